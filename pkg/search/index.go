package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Per-field match boosts, in the .2/.3/.2/.2/.1 relevance ratio.
const (
	boostTitle        = 2.0
	boostSearchPhrase = 3.0
	boostKeywords     = 2.0
	boostDescription  = 2.0
	boostBreadcrumbs  = 1.0
)

// Index is an in-memory fuzzy full-text index over navigation documents.
// It is built once per graph change and queried on every committed search;
// rebuilding per keystroke would be wasteful even for a corpus of a few
// hundred pages.
type Index struct {
	mu   sync.RWMutex
	idx  bleve.Index
	docs []Result
}

// Scored pairs a document with its normalized match score in (0,1].
type Scored struct {
	Result Result
	Score  float64
}

// NewIndex returns an empty index; Build populates it.
func NewIndex() *Index {
	return &Index{}
}

func indexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"title", "search_phrase", "keywords", "description", "breadcrumbs"} {
		fm := bleve.NewTextFieldMapping()
		fm.Store = false
		fm.Index = true
		fm.Analyzer = standard.Name
		doc.AddFieldMappingsAt(field, fm)
	}

	im.DefaultMapping = doc
	return im
}

// Build replaces the index contents with the given documents. Documents
// are snapshotted to plain maps at this boundary so nothing downstream can
// hand the index a live, mutable structure.
func (x *Index) Build(docs []Result) error {
	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	snapshot := make([]Result, len(docs))
	copy(snapshot, docs)

	batch := idx.NewBatch()
	for i, doc := range snapshot {
		plain := map[string]interface{}{
			"title":         doc.Title,
			"search_phrase": doc.SearchPhrase,
			"keywords":      append([]string(nil), doc.Keywords...),
			"description":   doc.Description,
			"breadcrumbs":   append([]string(nil), doc.Breadcrumbs...),
		}
		if err := batch.Index(strconv.Itoa(i), plain); err != nil {
			idx.Close()
			return fmt.Errorf("failed to index document %q: %w", doc.Title, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("failed to apply index batch: %w", err)
	}

	x.mu.Lock()
	old := x.idx
	x.idx = idx
	x.docs = snapshot
	x.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// DocCount returns the number of indexed documents.
func (x *Index) DocCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Docs returns the indexed document snapshot.
func (x *Index) Docs() []Result {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docs
}

// Search queries the index and returns hits with scores normalized by the
// result set's maximum, so downstream ranking can blend them with node
// weights on a common scale.
func (x *Index) Search(queryStr string, limit int) ([]Scored, error) {
	x.mu.RLock()
	idx := x.idx
	docs := x.docs
	x.mu.RUnlock()

	if idx == nil || strings.TrimSpace(queryStr) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultFuzzyLimit
	}

	req := bleve.NewSearchRequest(x.buildQuery(queryStr))
	req.Size = limit

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	if res.MaxScore <= 0 {
		return nil, nil
	}

	hits := make([]Scored, 0, len(res.Hits))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(docs) {
			continue
		}
		hits = append(hits, Scored{
			Result: docs[i],
			Score:  hit.Score / res.MaxScore,
		})
	}
	return hits, nil
}

// buildQuery combines per-field fuzzy match queries with prefix queries so
// both typos and partially typed words match.
func (x *Index) buildQuery(queryStr string) query.Query {
	fields := []struct {
		name  string
		boost float64
	}{
		{"title", boostTitle},
		{"search_phrase", boostSearchPhrase},
		{"keywords", boostKeywords},
		{"description", boostDescription},
		{"breadcrumbs", boostBreadcrumbs},
	}

	// Prefix-match only the last token, the word still being typed; earlier
	// tokens are complete words and go through the fuzzy match clause.
	var lastToken string
	if tokens := strings.Fields(strings.ToLower(queryStr)); len(tokens) > 0 {
		lastToken = tokens[len(tokens)-1]
	}

	var clauses []query.Query
	for _, f := range fields {
		match := bleve.NewMatchQuery(queryStr)
		match.SetField(f.name)
		match.SetBoost(f.boost)
		match.SetFuzziness(1)
		clauses = append(clauses, match)

		if lastToken != "" {
			prefix := bleve.NewPrefixQuery(lastToken)
			prefix.SetField(f.name)
			prefix.SetBoost(f.boost)
			clauses = append(clauses, prefix)
		}
	}
	return bleve.NewDisjunctionQuery(clauses...)
}

// Close releases the underlying index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	x.docs = nil
	return err
}
