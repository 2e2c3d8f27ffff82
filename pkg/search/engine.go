package search

import (
	"fmt"
	"sort"

	"github.com/commercekit/chrome/pkg/nav"
	"go.uber.org/zap"
)

// Engine ties the navigation graphs, the index, the aggregator and the
// reactive store together. SetGraphs may be called again at any time (for
// example from a graph-file watcher) to rebuild the corpus.
type Engine struct {
	index   *Index
	agg     *Aggregator
	store   *Store
	logger  *zap.Logger
	metrics *Metrics
}

// EngineConfig bundles the construction knobs for NewEngine.
type EngineConfig struct {
	AggregatorOptions []AggregatorOption
	StoreOptions      []StoreOption
	Logger            *zap.Logger
	Metrics           *Metrics
}

// NewEngine builds an engine with an empty corpus.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	index := NewIndex()
	aggOpts := append([]AggregatorOption{WithLogger(logger)}, cfg.AggregatorOptions...)
	if cfg.Metrics != nil {
		aggOpts = append(aggOpts, WithMetrics(cfg.Metrics))
	}
	agg := NewAggregator(index, aggOpts...)

	storeOpts := append([]StoreOption{WithStoreLogger(logger)}, cfg.StoreOptions...)
	if cfg.Metrics != nil {
		storeOpts = append(storeOpts, WithStoreMetrics(cfg.Metrics))
	}

	return &Engine{
		index:   index,
		agg:     agg,
		store:   NewStore(agg, storeOpts...),
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// SetGraphs flattens and weighs the user and admin navigation trees and
// rebuilds the index over their combined documents. The two sets are
// weighed independently before being indexed together. The admin tree is
// expected to have had its URLs rewritten through the impersonation
// redirect already.
func (e *Engine) SetGraphs(user, admin *nav.NavigationNode) error {
	userDocs, err := graphDocuments(user, TypePage)
	if err != nil {
		return fmt.Errorf("user graph: %w", err)
	}
	adminDocs, err := graphDocuments(admin, TypeAdminPage)
	if err != nil {
		return fmt.Errorf("admin graph: %w", err)
	}

	docs := append(userDocs, adminDocs...)
	if err := e.index.Build(docs); err != nil {
		return err
	}

	e.agg.SetFrequent(frequentPages(userDocs))

	if e.metrics != nil {
		e.metrics.IndexDocs.Set(float64(len(docs)))
		e.metrics.IndexRebuilds.Inc()
	}
	e.logger.Info("navigation index rebuilt",
		zap.Int("user_docs", len(userDocs)),
		zap.Int("admin_docs", len(adminDocs)))
	return nil
}

// Store returns the reactive query controller.
func (e *Engine) Store() *Store { return e.store }

// Aggregator returns the result aggregator, for synchronous one-shot
// searches.
func (e *Engine) Aggregator() *Aggregator { return e.agg }

// Index exposes the underlying fuzzy index.
func (e *Engine) Index() *Index { return e.index }

// Close releases the engine's resources.
func (e *Engine) Close() error {
	e.store.Close()
	return e.index.Close()
}

func graphDocuments(root *nav.NavigationNode, typ ResultType) ([]Result, error) {
	if root == nil {
		return nil, nil
	}
	flattened, err := nav.Flatten(root)
	if err != nil {
		return nil, err
	}
	return Documents(nav.Weigh(flattened), typ), nil
}

// frequentPages returns the user-graph documents with non-zero weight,
// heaviest first, retyped for the empty-query fallback.
func frequentPages(docs []Result) []Result {
	frequent := make([]Result, 0, len(docs))
	for _, doc := range docs {
		if doc.Weight > 0 {
			frequent = append(frequent, doc)
		}
	}
	sort.SliceStable(frequent, func(i, j int) bool {
		return frequent[i].Weight > frequent[j].Weight
	})
	for i := range frequent {
		frequent[i].Type = TypeFrequentPage
	}
	return frequent
}
