package nav

// Relevance blend between how often a page is visited and how recently it
// was last visited.
const (
	frequencyShare = 0.6
	recencyShare   = 0.4
)

// Weigh annotates each flattened node with a relevance weight in [0,1].
// Frequency and recency are each normalized against the maximum observed in
// this node set, so user-graph and admin-graph sets must be weighed
// separately. A set where no node has ever been visited scores uniformly
// zero; an empty input returns an empty result rather than propagating a
// degenerate maximum.
func Weigh(flattened []FlattenedNode) []WeightedNode {
	if len(flattened) == 0 {
		return nil
	}

	var maxHits, maxRecent int64
	for _, fn := range flattened {
		if fn.Node.TotalHits != nil && *fn.Node.TotalHits > maxHits {
			maxHits = *fn.Node.TotalHits
		}
		if fn.Node.MostRecentHit != nil && *fn.Node.MostRecentHit > maxRecent {
			maxRecent = *fn.Node.MostRecentHit
		}
	}

	weighted := make([]WeightedNode, 0, len(flattened))
	for _, fn := range flattened {
		var frequency, recency float64
		if maxHits > 0 && fn.Node.TotalHits != nil {
			frequency = float64(*fn.Node.TotalHits) / float64(maxHits)
		}
		if maxRecent > 0 && fn.Node.MostRecentHit != nil {
			recency = float64(*fn.Node.MostRecentHit) / float64(maxRecent)
		}
		weighted = append(weighted, WeightedNode{
			FlattenedNode: fn,
			Weight:        frequencyShare*frequency + recencyShare*recency,
		})
	}
	return weighted
}
