package catalog

import (
	"strconv"
)

// effective resolves one field of an import: the override when present,
// otherwise the value from the metadata service.
func effective[T any](override *T, external T) T {
	if override != nil {
		return *override
	}
	return external
}

// effectiveRef is effective for optional fields, where the external value
// may itself be absent.
func effectiveRef[T any](override, external *T) *T {
	if override != nil {
		return override
	}
	return external
}

// resolveImport merges in's overrides over vol. The author falls back to the
// first listed external author; with no override and no authors the import
// fails with "no author".
func resolveImport(in AddGoogleBookInput, vol Volume) (AddBookInput, error) {
	var author string
	switch {
	case in.Author != nil:
		author = *in.Author
	case len(vol.Authors) > 0:
		author = vol.Authors[0]
	default:
		return AddBookInput{}, invalidInput(ReasonNoAuthor)
	}

	return AddBookInput{
		Title:    effective(in.Title, vol.Title),
		Author:   author,
		ImageURL: effectiveRef(in.ImageURL, vol.CoverURL),
		Year:     effective(in.Year, ParseYear(vol.PublishedDate)),
		Pages:    effective(in.Pages, vol.PageCount),
		Status:   in.Status,
	}, nil
}

// ParseYear reads the leading four characters of a publication date
// ("1973-01-01", "1973") as a year. Shorter or unparseable input yields 0
// so a malformed date never aborts an import.
func ParseYear(date string) int {
	runes := []rune(date)
	if len(runes) < 4 {
		return 0
	}
	year, err := strconv.Atoi(string(runes[:4]))
	if err != nil {
		return 0
	}
	return year
}
