package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{
  "totalItems": 2,
  "items": [
    {
      "id": "zyTCAlFPjgYC",
      "volumeInfo": {
        "title": "The Google Story",
        "authors": ["David A. Vise", "Mark Malseed"],
        "pageCount": 207,
        "publishedDate": "2005-11-15",
        "imageLinks": {"thumbnail": "http://books.google.com/thumb.jpg"}
      }
    },
    {
      "id": "noCover",
      "volumeInfo": {
        "title": "Untitled",
        "authors": [],
        "publishedDate": "bad"
      }
    }
  ]
}`

const volumeBody = `{
  "id": "abc123",
  "volumeInfo": {
    "title": "Gravity's Rainbow",
    "authors": ["Thomas Pynchon"],
    "pageCount": 776,
    "publishedDate": "1973-01-01",
    "imageLinks": {"thumbnail": "http://books.google.com/gr.jpg"}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cacheTTL time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:  srv.URL,
		APIKey:   "test-key",
		RPS:      1000,
		CacheTTL: cacheTTL,
	})
	t.Cleanup(c.Close)
	return c
}

func TestClient_Search(t *testing.T) {
	var gotQuery, gotKey, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}, 0)

	results, err := c.Search(context.Background(), "google story")
	require.NoError(t, err)

	assert.Equal(t, "/volumes", gotPath)
	assert.Equal(t, "google story", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, results, 2)
	assert.Equal(t, "zyTCAlFPjgYC", results[0].ID)
	assert.Equal(t, "The Google Story", results[0].Title)
	assert.Equal(t, []string{"David A. Vise", "Mark Malseed"}, results[0].Authors)
	assert.Equal(t, 207, results[0].Pages)
	assert.Equal(t, 2005, results[0].Year)
	require.NotNil(t, results[0].ImageURL)
	assert.Equal(t, "http://books.google.com/thumb.jpg", *results[0].ImageURL)

	assert.Equal(t, 0, results[1].Pages)
	assert.Equal(t, 0, results[1].Year)
	assert.Nil(t, results[1].ImageURL)
}

func TestClient_FetchByID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(volumeBody))
	}, 0)

	vol, err := c.FetchByID(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, "/volumes/abc123", gotPath)
	assert.Equal(t, "Gravity's Rainbow", vol.Title)
	assert.Equal(t, []string{"Thomas Pynchon"}, vol.Authors)
	assert.Equal(t, 776, vol.PageCount)
	assert.Equal(t, "1973-01-01", vol.PublishedDate)
	require.NotNil(t, vol.CoverURL)
	assert.Equal(t, "http://books.google.com/gr.jpg", *vol.CoverURL)
}

func TestClient_FetchByID_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}, 0)

		_, err := c.FetchByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrVolumeNotFound)
	})

	t.Run("server error is not retried by default", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}, 0)

		_, err := c.FetchByID(context.Background(), "abc123")
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("undecodable body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}, 0)

		_, err := c.FetchByID(context.Background(), "abc123")
		assert.Error(t, err)
	})

	t.Run("empty id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}, 0)

		_, err := c.FetchByID(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyVolumeID)
	})
}

func TestClient_CachesResponses(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(volumeBody))
	}, time.Minute)

	for i := 0; i < 3; i++ {
		vol, err := c.FetchByID(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "Gravity's Rainbow", vol.Title)
	}
	assert.Equal(t, int32(1), calls.Load())
}
