package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"borges/internal/catalog"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://www.googleapis.com/books/v1"

var (
	// ErrVolumeNotFound is returned when the API has no volume for an id.
	ErrVolumeNotFound = errors.New("volume not found")
	ErrEmptyVolumeID  = errors.New("volume id is required")
)

type Config struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	RPS        int
	MaxRetries int
	Timeout    time.Duration
	// CacheTTL enables response caching when positive.
	CacheTTL time.Duration
}

// Client talks to the Google Books volumes API. It implements
// catalog.MetadataClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	cache      *ttlcache.Cache[string, []byte]
}

var _ catalog.MetadataClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "borges/1.0"
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.RPS)), 1),
		maxRetries: cfg.MaxRetries,
	}
	if cfg.CacheTTL > 0 {
		c.cache = ttlcache.New(ttlcache.WithTTL[string, []byte](cfg.CacheTTL))
		go c.cache.Start()
	}
	return c
}

// Close stops the cache janitor, if any.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Stop()
	}
}

// volumesResponse matches GET /volumes
type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	PageCount     int         `json:"pageCount"`
	PublishedDate string      `json:"publishedDate"`
	ImageLinks    *imageLinks `json:"imageLinks"`
}

type imageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

func (v volumeInfo) coverURL() *string {
	if v.ImageLinks == nil || v.ImageLinks.Thumbnail == "" {
		return nil
	}
	thumb := v.ImageLinks.Thumbnail
	return &thumb
}

// Search runs a free-text query and returns up to ten book results.
func (c *Client) Search(ctx context.Context, query string) ([]catalog.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "10")
	params.Set("printType", "books")

	var res volumesResponse
	if err := c.get(ctx, c.endpoint("/volumes", params), &res); err != nil {
		return nil, err
	}

	out := make([]catalog.SearchResult, 0, len(res.Items))
	for _, item := range res.Items {
		info := item.VolumeInfo
		out = append(out, catalog.SearchResult{
			ID:       item.ID,
			Title:    info.Title,
			Authors:  info.Authors,
			Pages:    info.PageCount,
			Year:     catalog.ParseYear(info.PublishedDate),
			ImageURL: info.coverURL(),
		})
	}
	return out, nil
}

// FetchByID returns the volume with the given Google Books id.
func (c *Client) FetchByID(ctx context.Context, volumeID string) (catalog.Volume, error) {
	if volumeID == "" {
		return catalog.Volume{}, ErrEmptyVolumeID
	}

	var item volumeItem
	if err := c.get(ctx, c.endpoint("/volumes/"+url.PathEscape(volumeID), url.Values{}), &item); err != nil {
		return catalog.Volume{}, err
	}

	info := item.VolumeInfo
	return catalog.Volume{
		Title:         info.Title,
		Authors:       info.Authors,
		PageCount:     info.PageCount,
		PublishedDate: info.PublishedDate,
		CoverURL:      info.coverURL(),
	}, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	u := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	if c.cache != nil {
		if item := c.cache.Get(url); item != nil {
			return json.Unmarshal(item.Value(), target)
		}
	}

	body, err := c.fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(url, body, ttlcache.DefaultTTL)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retry, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, url string) (body []byte, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrVolumeNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	return body, false, nil
}
