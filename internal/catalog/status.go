package catalog

import (
	"fmt"
)

// ReadingStatus is the closed set of reading states. The zero value is Unread.
type ReadingStatus int

const (
	StatusUnread ReadingStatus = iota
	StatusReading
	StatusRead
)

// Canonical strings used at the storage boundary.
const (
	statusUnread  = "unread"
	statusReading = "reading"
	statusRead    = "read"
)

// Statuses lists every ReadingStatus in declaration order.
var Statuses = []ReadingStatus{StatusUnread, StatusReading, StatusRead}

func (s ReadingStatus) String() string {
	switch s {
	case StatusUnread:
		return statusUnread
	case StatusReading:
		return statusReading
	case StatusRead:
		return statusRead
	default:
		return fmt.Sprintf("ReadingStatus(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared statuses.
func (s ReadingStatus) Valid() bool {
	return s >= StatusUnread && s <= StatusRead
}

// ParseStatus converts a canonical status string. Matching is case-sensitive
// and there is no fallback: unknown input fails with ErrInvalidStatus.
func ParseStatus(s string) (ReadingStatus, error) {
	switch s {
	case statusUnread:
		return StatusUnread, nil
	case statusReading:
		return StatusReading, nil
	case statusRead:
		return StatusRead, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s ReadingStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(s.String()), nil
}

func (s *ReadingStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
