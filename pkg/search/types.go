// Package search implements the dashboard's navigation search engine: it
// turns weighted navigation nodes into searchable documents, queries a
// fuzzy full-text index over them, merges the hits with remote result
// sources, and groups the ranked results for rendering. A reactive store
// debounces raw keystrokes into committed queries that drive recomputation.
package search

import (
	"context"
	"time"

	"github.com/commercekit/chrome/pkg/nav"
)

// ResultType tags a search result with the kind of entity it points at.
type ResultType string

const (
	TypePage            ResultType = "page"
	TypeAdminPage       ResultType = "admin_page"
	TypeRecentPage      ResultType = "recent_page"
	TypeFrequentPage    ResultType = "frequent_page"
	TypeMerchant        ResultType = "merchant"
	TypeOrder           ResultType = "order"
	TypeProduct         ResultType = "product"
	TypeFineDisplayItem ResultType = "fine_display_item"
	TypeWarning         ResultType = "warning"
	TypeZendesk         ResultType = "zendesk"
	TypeRecentLogin     ResultType = "recent_login"
	TypeTrackingDispute ResultType = "tracking_dispute"
)

// Result is a single navigation search hit. Payload is populated for
// page/admin_page results only; remote and history results carry none.
type Result struct {
	URL          string     `json:"url"`
	Type         ResultType `json:"type"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Breadcrumbs  []string   `json:"breadcrumbs,omitempty"`
	SearchPhrase string     `json:"search_phrase,omitempty"`
	OpenInNewTab bool       `json:"open_in_new_tab,omitempty"`
	Nuggets      []string   `json:"nuggets,omitempty"`
	Weight       float64    `json:"weight,omitempty"`

	// ObjectID identifies the underlying entity for remote results: the
	// merchant id for merchant hits, the article id for help-center hits.
	ObjectID string `json:"object_id,omitempty"`

	Payload *nav.WeightedNode `json:"-"`
}

// Group is a type-bucketed, capped, deduplicated slice of results shown
// under one heading.
type Group struct {
	Title   string     `json:"title"`
	Type    ResultType `json:"type"`
	Results []Result   `json:"results"`
}

// groupCap limits how many results one group shows.
const groupCap = 3

// GroupTitles maps result types to their rendered headings. Callers that
// localize replace entries before building groups.
var GroupTitles = map[ResultType]string{
	TypePage:            "Pages",
	TypeAdminPage:       "Admin",
	TypeRecentPage:      "Recently Visited",
	TypeFrequentPage:    "Frequently Visited",
	TypeMerchant:        "Merchants",
	TypeOrder:           "Orders",
	TypeProduct:         "Products",
	TypeFineDisplayItem: "Fines",
	TypeWarning:         "Warnings",
	TypeZendesk:         "Help Center",
	TypeRecentLogin:     "Recent Logins",
	TypeTrackingDispute: "Tracking Disputes",
}

// typePriority orders groups: business objects and pages first, admin
// second, help third, identity/history last. Types absent from the table
// sort after every listed type.
var typePriority = map[ResultType]int{
	TypePage:            1,
	TypeMerchant:        1,
	TypeOrder:           1,
	TypeProduct:         1,
	TypeFineDisplayItem: 1,
	TypeWarning:         1,
	TypeTrackingDispute: 1,
	TypeAdminPage:       2,
	TypeZendesk:         3,
	TypeRecentLogin:     4,
	TypeRecentPage:      5,
	TypeFrequentPage:    6,
}

// Session describes the signed-in user as far as search policy cares.
type Session struct {
	IsMerchant bool
	IsPlus     bool
	Locale     string
}

// Policy holds the configurable divergences between dashboard variants.
type Policy struct {
	// IncludeRecentLogins adds recent-login results to the empty-query
	// fallback.
	IncludeRecentLogins bool
	// PlusArticleAllowList, when non-empty, restricts help-center results
	// for plus-tier users to the listed article ids.
	PlusArticleAllowList []string
}

// ObjectSearcher resolves an object-id-shaped query against the backend.
// A miss is (nil, nil): the aggregator treats errors and absence uniformly.
type ObjectSearcher interface {
	SearchObject(ctx context.Context, oid, currentPath string) (*Result, error)
}

// MerchantSearcher looks merchants up by name or id.
type MerchantSearcher interface {
	SearchMerchants(ctx context.Context, query string) ([]Result, error)
}

// HelpCenterSearcher queries the help-center article index.
type HelpCenterSearcher interface {
	SearchArticles(ctx context.Context, query, locale string) ([]Result, error)
}

// History supplies the empty-query fallback from the analytics store.
type History interface {
	RecentPages(n int) []Result
	RecentLogins(n int) []Result
}

// Defaults for the reactive store and the aggregator.
const (
	defaultDebounce      = 300 * time.Millisecond
	defaultRemoteTimeout = 2 * time.Second
	defaultFuzzyLimit    = 50
	fallbackPageCount    = 5
)
