// Package nav models the merchant dashboard navigation graph: a rooted tree
// of pages and menu entries, annotated with usage counters, that the search
// engine flattens into weighted searchable documents.
package nav

import (
	"errors"
)

// ErrMalformedGraph is returned when a navigation graph is not a well-formed
// tree (a node reachable twice, a nil child) or fails schema validation.
var ErrMalformedGraph = errors.New("nav: malformed graph")

// NavigationNode is one entry in the navigation tree. A node with no
// children is a page leaf; interior nodes are menus. Usage counters are
// optional and absent for pages that have never been visited.
type NavigationNode struct {
	NodeID       string            `json:"node_id"`
	Label        string            `json:"label"`
	URL          string            `json:"url,omitempty"`
	Description  string            `json:"description,omitempty"`
	SearchPhrase string            `json:"search_phrase,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	ImageURL     string            `json:"image_url,omitempty"`
	OpenInNewTab bool              `json:"open_in_new_tab,omitempty"`
	Children     []*NavigationNode `json:"children,omitempty"`

	// Usage counters, merged in from the analytics store. MostRecentHit is
	// a unix timestamp in seconds.
	TotalHits     *int64 `json:"total_hits,omitempty"`
	MostRecentHit *int64 `json:"most_recent_hit,omitempty"`
}

// FlattenedNode pairs a leaf node with its root-to-parent ancestor chain.
type FlattenedNode struct {
	Node    *NavigationNode
	Parents []*NavigationNode
}

// ParentLabels returns the labels of the ancestor chain in root-to-leaf
// order.
func (f FlattenedNode) ParentLabels() []string {
	labels := make([]string, 0, len(f.Parents))
	for _, p := range f.Parents {
		labels = append(labels, p.Label)
	}
	return labels
}

// HasAncestor reports whether any ancestor of the leaf carries the given
// node id.
func (f FlattenedNode) HasAncestor(nodeID string) bool {
	for _, p := range f.Parents {
		if p.NodeID == nodeID {
			return true
		}
	}
	return false
}

// WeightedNode is a flattened node annotated with a blended
// frequency/recency relevance score in [0,1].
type WeightedNode struct {
	FlattenedNode
	Weight float64
}

// Usage holds the analytics counters for one page URL.
type Usage struct {
	TotalHits     int64
	MostRecentHit int64
}
