// Package objectapi resolves object-id queries against the backend lookup
// endpoint. Ids that hash like database object ids (orders, products,
// fines, warnings, tracking disputes) all route through the one endpoint,
// which answers with the entity kind and its dashboard URL.
package objectapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/search"
)

const (
	defaultTimeout = 2 * time.Second

	// Negative-cache sizing: a session produces at most a few thousand
	// distinct misses, so this keeps the false-positive rate well under
	// the configured 1%.
	missFilterCapacity = 100_000
	missFilterFPRate   = 0.01

	// missFilterTTL bounds how long a miss is remembered. Objects are
	// created continuously, so a 404 now does not mean a 404 forever.
	missFilterTTL = 10 * time.Minute
)

// Client queries the object lookup endpoint. Misses are remembered in a
// periodically reset bloom filter so repeated keystrokes on a dead id do
// not hammer the backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	mu        sync.Mutex
	misses    *bloom.BloomFilter
	lastReset time.Time
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

// New creates a client against baseURL, e.g. "https://api.internal".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		logger:    zap.NewNop(),
		misses:    bloom.NewWithEstimates(missFilterCapacity, missFilterFPRate),
		lastReset: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// objectResponse is the backend's lookup answer.
type objectResponse struct {
	Type        string   `json:"type"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Nuggets     []string `json:"nuggets"`
}

// SearchObject resolves oid. currentPath lets the backend prefer entity
// kinds related to the page the user is on. A miss returns (nil, nil).
func (c *Client) SearchObject(ctx context.Context, oid, currentPath string) (*search.Result, error) {
	if c.knownMiss(oid) {
		return nil, nil
	}

	q := url.Values{}
	q.Set("oid", oid)
	if currentPath != "" {
		q.Set("path", currentPath)
	}
	endpoint := c.baseURL + "/api/v1/objects/lookup?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build object lookup request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("object lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.rememberMiss(oid)
		return nil, nil
	default:
		return nil, fmt.Errorf("object lookup: unexpected status %d", resp.StatusCode)
	}

	var body objectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode object lookup response: %w", err)
	}
	return &search.Result{
		URL:         body.URL,
		Type:        resultType(body.Type),
		Title:       body.Title,
		Description: body.Description,
		ImageURL:    body.ImageURL,
		Nuggets:     body.Nuggets,
		ObjectID:    oid,
	}, nil
}

// resultType maps backend entity kinds onto result types, defaulting
// unknown kinds to order so the hit still renders somewhere sensible.
func resultType(kind string) search.ResultType {
	switch kind {
	case "order":
		return search.TypeOrder
	case "product":
		return search.TypeProduct
	case "fine", "fine_display_item":
		return search.TypeFineDisplayItem
	case "warning":
		return search.TypeWarning
	case "tracking_dispute":
		return search.TypeTrackingDispute
	case "merchant":
		return search.TypeMerchant
	}
	return search.TypeOrder
}

// knownMiss reports whether oid was recently looked up and not found. The
// filter can report a false positive for a live object, hiding it from
// lookups until the next reset; missFilterTTL bounds that window and
// missFilterFPRate bounds how often it happens.
func (c *Client) knownMiss(oid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastReset) > missFilterTTL {
		c.misses.ClearAll()
		c.lastReset = time.Now()
	}
	return c.misses.TestString(oid)
}

func (c *Client) rememberMiss(oid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses.AddString(oid)
	c.logger.Debug("object lookup miss cached", zap.String("oid", oid))
}
