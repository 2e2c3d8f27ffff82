package nav

import (
	"fmt"
	"net/url"
)

// Flatten converts a navigation tree into a flat list of (leaf, ancestor
// chain) pairs in depth-first document order. A node with no children is a
// leaf by definition, even when it carries a URL that could have had
// children.
//
// The traversal is iterative so arbitrarily deep trees cannot overflow the
// stack, and it rejects graphs where a node is reachable twice: the source
// is supposed to be a tree, so a repeat visit means a cycle or a shared
// subtree and the graph is refused rather than silently producing wrong
// weights.
func Flatten(root *NavigationNode) ([]FlattenedNode, error) {
	if root == nil {
		return nil, nil
	}

	type frame struct {
		node    *NavigationNode
		parents []*NavigationNode
	}

	seen := make(map[*NavigationNode]struct{})
	stack := []frame{{node: root}}
	var flattened []FlattenedNode

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := seen[f.node]; dup {
			return nil, fmt.Errorf("%w: node %q reachable twice", ErrMalformedGraph, f.node.NodeID)
		}
		seen[f.node] = struct{}{}

		if len(f.node.Children) == 0 {
			flattened = append(flattened, FlattenedNode{Node: f.node, Parents: f.parents})
			continue
		}

		parents := make([]*NavigationNode, 0, len(f.parents)+1)
		parents = append(parents, f.parents...)
		parents = append(parents, f.node)

		// Push children in reverse so the LIFO pop preserves tree order.
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			child := f.node.Children[i]
			if child == nil {
				return nil, fmt.Errorf("%w: nil child under node %q", ErrMalformedGraph, f.node.NodeID)
			}
			stack = append(stack, frame{node: child, parents: parents})
		}
	}

	return flattened, nil
}

// RewriteAdminURLs routes every URL in the tree through the impersonation
// redirect so that admin pages open in the acting merchant's context. The
// tree is modified in place.
func RewriteAdminURLs(root *NavigationNode) {
	if root == nil {
		return
	}
	stack := []*NavigationNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.URL != "" {
			node.URL = "/go/me?next=" + url.QueryEscape(node.URL)
		}
		for _, child := range node.Children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// ApplyUsage merges analytics counters into the tree, keyed by page URL.
// Nodes without an entry keep their existing counters.
func ApplyUsage(root *NavigationNode, usage map[string]Usage) {
	if root == nil || len(usage) == 0 {
		return
	}
	stack := []*NavigationNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if u, ok := usage[node.URL]; ok && node.URL != "" {
			hits := u.TotalHits
			recent := u.MostRecentHit
			node.TotalHits = &hits
			node.MostRecentHit = &recent
		}
		for _, child := range node.Children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
}
