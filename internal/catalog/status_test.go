package catalog_test

import (
	"encoding/json"
	"testing"

	"borges/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want catalog.ReadingStatus
	}{
		{"unread", catalog.StatusUnread},
		{"reading", catalog.StatusReading},
		{"read", catalog.StatusRead},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := catalog.ParseStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	for _, bad := range []string{"", "Read", "READING", "finished", " unread"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := catalog.ParseStatus(bad)
			assert.ErrorIs(t, err, catalog.ErrInvalidStatus)
		})
	}
}

func TestReadingStatus_ZeroValueIsUnread(t *testing.T) {
	var s catalog.ReadingStatus
	assert.Equal(t, catalog.StatusUnread, s)
	assert.True(t, s.Valid())
	assert.False(t, catalog.ReadingStatus(7).Valid())
}

func TestReadingStatus_JSON(t *testing.T) {
	b, err := json.Marshal(catalog.Book{ID: 1, Title: "T", Status: catalog.StatusReading})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"reading"`)

	var book catalog.Book
	require.NoError(t, json.Unmarshal([]byte(`{"status":"read"}`), &book))
	assert.Equal(t, catalog.StatusRead, book.Status)

	err = json.Unmarshal([]byte(`{"status":"done"}`), &book)
	assert.ErrorIs(t, err, catalog.ErrInvalidStatus)

	_, err = json.Marshal(catalog.Book{Status: catalog.ReadingStatus(9)})
	assert.Error(t, err)
}
