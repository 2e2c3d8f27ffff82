package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Blend between the index's match score and the node's usage weight when
// re-ranking fuzzy hits.
const (
	matchShare  = 0.7
	weightShare = 0.3
)

// Aggregator merges fuzzy-index hits with the remote result sources into a
// single ranked list.
//
// Precedence is strict: an empty query short-circuits to the history
// fallback; an object-id-shaped query short-circuits to the object lookup
// (with no fuzzy fallback on a miss); anything else is re-ranked fuzzy
// hits followed by merchant results followed by help-center results.
// Remote sources are never blended into the fuzzy ranking, and a remote
// failure is indistinguishable from an empty answer.
type Aggregator struct {
	index      *Index
	objects    ObjectSearcher
	merchants  MerchantSearcher
	helpCenter HelpCenterSearcher
	history    History

	session Session
	policy  Policy
	staging bool

	currentPath func() string
	logger      *zap.Logger
	metrics     *Metrics

	mu       sync.RWMutex
	frequent []Result
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithObjectSearcher wires the object-id lookup source.
func WithObjectSearcher(s ObjectSearcher) AggregatorOption {
	return func(a *Aggregator) { a.objects = s }
}

// WithMerchantSearcher wires the merchant lookup source.
func WithMerchantSearcher(s MerchantSearcher) AggregatorOption {
	return func(a *Aggregator) { a.merchants = s }
}

// WithHelpCenterSearcher wires the help-center lookup source.
func WithHelpCenterSearcher(s HelpCenterSearcher) AggregatorOption {
	return func(a *Aggregator) { a.helpCenter = s }
}

// WithHistory wires the recent-page/recent-login fallback source.
func WithHistory(h History) AggregatorOption {
	return func(a *Aggregator) { a.history = h }
}

// WithSession sets the signed-in user context.
func WithSession(s Session) AggregatorOption {
	return func(a *Aggregator) { a.session = s }
}

// WithPolicy sets the variant policy flags.
func WithPolicy(p Policy) AggregatorOption {
	return func(a *Aggregator) { a.policy = p }
}

// WithStaging marks a staging environment, where merchant lookups are
// skipped entirely.
func WithStaging(staging bool) AggregatorOption {
	return func(a *Aggregator) { a.staging = staging }
}

// WithCurrentPath supplies the dashboard path object lookups are scoped to.
func WithCurrentPath(fn func() string) AggregatorOption {
	return func(a *Aggregator) { a.currentPath = fn }
}

// WithLogger sets the aggregator's logger.
func WithLogger(logger *zap.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// NewAggregator creates an aggregator over the given index. Sources left
// unwired are simply skipped.
func NewAggregator(index *Index, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		index:       index,
		currentPath: func() string { return "/" },
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetFrequent replaces the frequently-visited fallback set. The engine
// refreshes it from the weighted corpus after every index rebuild.
func (a *Aggregator) SetFrequent(results []Result) {
	a.mu.Lock()
	a.frequent = results
	a.mu.Unlock()
}

// Search produces the ranked, ungrouped result list for a committed query.
func (a *Aggregator) Search(ctx context.Context, query string) []Result {
	q := strings.TrimSpace(query)

	if q == "" {
		return a.fallback()
	}

	if IsObjectID(q) {
		return a.objectLookup(ctx, q)
	}

	results := a.rankedFuzzyHits(q)

	if !a.staging && a.merchants != nil {
		merchants, err := a.merchants.SearchMerchants(ctx, q)
		if err != nil {
			a.remoteFailure("merchants", err)
		} else {
			results = append(results, merchants...)
		}
	}

	if a.session.IsMerchant && a.helpCenter != nil {
		articles, err := a.helpCenter.SearchArticles(ctx, q, a.session.Locale)
		if err != nil {
			a.remoteFailure("help_center", err)
		} else {
			results = append(results, a.filterArticles(articles)...)
		}
	}

	return results
}

// fallback is the empty-query result list: recent logins when the variant
// enables them, then recently visited pages, then the heaviest pages in
// the corpus.
func (a *Aggregator) fallback() []Result {
	var results []Result
	if a.history != nil {
		if a.policy.IncludeRecentLogins {
			results = append(results, a.history.RecentLogins(fallbackPageCount)...)
		}
		results = append(results, a.history.RecentPages(fallbackPageCount)...)
	}

	a.mu.RLock()
	frequent := a.frequent
	a.mu.RUnlock()
	if len(frequent) > fallbackPageCount {
		frequent = frequent[:fallbackPageCount]
	}
	return append(results, frequent...)
}

// objectLookup resolves an object-id query. A miss yields zero results: a
// 24-hex string that merely looks like an id never falls through to text
// search.
func (a *Aggregator) objectLookup(ctx context.Context, oid string) []Result {
	if a.objects == nil {
		return nil
	}
	result, err := a.objects.SearchObject(ctx, oid, a.currentPath())
	if err != nil {
		a.remoteFailure("objects", err)
		return nil
	}
	if result == nil {
		return nil
	}
	return []Result{*result}
}

func (a *Aggregator) rankedFuzzyHits(q string) []Result {
	hits, err := a.index.Search(q, defaultFuzzyLimit)
	if err != nil {
		a.logger.Warn("index search failed", zap.String("query", q), zap.Error(err))
		return nil
	}

	type ranked struct {
		result Result
		final  float64
	}
	rankedHits := make([]ranked, 0, len(hits))
	for _, hit := range hits {
		rankedHits = append(rankedHits, ranked{
			result: hit.Result,
			final:  matchShare*hit.Score + weightShare*hit.Result.Weight,
		})
	}
	sort.SliceStable(rankedHits, func(i, j int) bool {
		return rankedHits[i].final > rankedHits[j].final
	})

	results := make([]Result, 0, len(rankedHits))
	for _, r := range rankedHits {
		results = append(results, r.result)
	}
	return results
}

// filterArticles applies the plus-tier allow-list policy.
func (a *Aggregator) filterArticles(articles []Result) []Result {
	if !a.session.IsPlus || len(a.policy.PlusArticleAllowList) == 0 {
		return articles
	}
	allowed := make(map[string]struct{}, len(a.policy.PlusArticleAllowList))
	for _, id := range a.policy.PlusArticleAllowList {
		allowed[id] = struct{}{}
	}
	filtered := articles[:0:0]
	for _, article := range articles {
		if _, ok := allowed[article.ObjectID]; ok {
			filtered = append(filtered, article)
		}
	}
	return filtered
}

func (a *Aggregator) remoteFailure(source string, err error) {
	a.logger.Warn("remote search source failed", zap.String("source", source), zap.Error(err))
	if a.metrics != nil {
		a.metrics.RemoteErrors.WithLabelValues(source).Inc()
	}
}
