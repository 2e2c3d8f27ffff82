package search

import (
	"github.com/commercekit/chrome/pkg/nav"
)

// Documents converts weighted navigation nodes into searchable results of
// the given type. Title and search phrase fall back to the node label, and
// breadcrumbs are the ancestor labels followed by the title.
func Documents(weighted []nav.WeightedNode, typ ResultType) []Result {
	docs := make([]Result, 0, len(weighted))
	for i := range weighted {
		wn := weighted[i]
		node := wn.Node

		title := node.SearchPhrase
		if title == "" {
			title = node.Label
		}

		breadcrumbs := append(wn.ParentLabels(), title)

		docs = append(docs, Result{
			URL:          node.URL,
			Type:         typ,
			Title:        title,
			Description:  node.Description,
			ImageURL:     node.ImageURL,
			Keywords:     node.Keywords,
			Breadcrumbs:  breadcrumbs,
			SearchPhrase: title,
			OpenInNewTab: node.OpenInNewTab,
			Weight:       wn.Weight,
			Payload:      &weighted[i],
		})
	}
	return docs
}
