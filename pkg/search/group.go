package search

import (
	"sort"
)

// overviewNodeID marks generic index pages that duplicate a more specific
// page's URL.
const overviewNodeID = "overview"

// GroupResults buckets a ranked result list by type, capping each bucket,
// deduplicating by URL within a bucket, and promoting overview duplicates
// to their more specific twin. Groups come back ordered by the fixed type
// priority.
func GroupResults(ranked []Result) []Group {
	buckets := make(map[ResultType][]Result)
	var bucketOrder []ResultType

	for _, result := range ranked {
		bucket := buckets[result.Type]
		if len(bucket) >= groupCap {
			continue
		}

		candidate := result
		if hasOverviewAncestor(result) {
			// Overview pages are generic index pages sharing a more
			// specific page's URL; show the specific one when it exists
			// anywhere in the ranked list.
			if twin, ok := nonOverviewTwin(ranked, result.URL); ok {
				candidate = twin
			}
		}

		if containsURL(bucket, candidate.URL) {
			continue
		}

		if len(bucket) == 0 {
			bucketOrder = append(bucketOrder, result.Type)
		}
		buckets[result.Type] = append(bucket, candidate)
	}

	groups := make([]Group, 0, len(bucketOrder))
	for _, typ := range bucketOrder {
		groups = append(groups, Group{
			Title:   groupTitle(typ),
			Type:    typ,
			Results: buckets[typ],
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groupPriority(groups[i].Type) < groupPriority(groups[j].Type)
	})
	return groups
}

func hasOverviewAncestor(r Result) bool {
	return r.Payload != nil && r.Payload.HasAncestor(overviewNodeID)
}

// nonOverviewTwin finds a result with the same URL whose payload does not
// descend from an overview node.
func nonOverviewTwin(ranked []Result, url string) (Result, bool) {
	for _, r := range ranked {
		if r.URL == url && !hasOverviewAncestor(r) {
			return r, true
		}
	}
	return Result{}, false
}

func containsURL(bucket []Result, url string) bool {
	for _, r := range bucket {
		if r.URL == url {
			return true
		}
	}
	return false
}

func groupTitle(typ ResultType) string {
	if title, ok := GroupTitles[typ]; ok {
		return title
	}
	return string(typ)
}

func groupPriority(typ ResultType) int {
	if p, ok := typePriority[typ]; ok {
		return p
	}
	// Unlisted types sort after every listed one.
	return len(typePriority) + 100
}
