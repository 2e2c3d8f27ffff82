// Package zendesk queries the help-center article search API and adapts
// matches into navigation search results.
package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/search"
)

const (
	defaultTimeout  = 2 * time.Second
	defaultPageSize = 5
	defaultLocale   = "en-us"
)

// Client talks to a Zendesk help-center instance.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	pageSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPageSize overrides how many articles one search requests.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a client against baseURL, e.g.
// "https://support.example.zendesk.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   zap.NewNop(),
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type article struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	Results []article `json:"results"`
}

// SearchArticles queries the article index for query in the given locale.
func (c *Client) SearchArticles(ctx context.Context, query, locale string) ([]search.Result, error) {
	if locale == "" {
		locale = defaultLocale
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("locale", locale)
	q.Set("per_page", strconv.Itoa(c.pageSize))
	endpoint := c.baseURL + "/api/v2/help_center/articles/search.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build article search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("article search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article search: unexpected status %d", resp.StatusCode)
	}
	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode article search response: %w", err)
	}

	results := make([]search.Result, 0, len(body.Results))
	for _, art := range body.Results {
		results = append(results, search.Result{
			URL:          art.HTMLURL,
			Type:         search.TypeZendesk,
			Title:        art.Title,
			Description:  art.Snippet,
			ObjectID:     strconv.FormatInt(art.ID, 10),
			OpenInNewTab: true,
		})
	}
	return results, nil
}
