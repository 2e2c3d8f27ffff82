package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the reactive query controller. Every keystroke lands in
// SetRawQuery; a trailing debounce window commits the query and drives one
// recomputation of the grouped results. Object-id-shaped input commits
// immediately so id lookups feel instantaneous, while free text always
// waits out the full window with no further keystrokes.
//
// Commits are serialized: at most one committed query is active, and a
// recomputation whose query has been superseded is discarded rather than
// published.
type Store struct {
	agg *Aggregator

	debounce      time.Duration
	remoteTimeout time.Duration
	logger        *zap.Logger
	metrics       *Metrics

	mu        sync.Mutex
	raw       string
	committed string
	timer     *time.Timer
	gen       uint64
	groups    []Group
	subs      map[int]func([]Group)
	nextSub   int
	closed    bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDebounce overrides the commit debounce window.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *Store) { s.debounce = d }
}

// WithRemoteTimeout bounds the remote lookups of a single recomputation.
func WithRemoteTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.remoteTimeout = d }
}

// WithStoreLogger sets the store's logger.
func WithStoreLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithStoreMetrics wires Prometheus instrumentation.
func WithStoreMetrics(m *Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store over the given aggregator.
func NewStore(agg *Aggregator, opts ...StoreOption) *Store {
	s := &Store{
		agg:           agg,
		debounce:      defaultDebounce,
		remoteTimeout: defaultRemoteTimeout,
		logger:        zap.NewNop(),
		subs:          make(map[int]func([]Group)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRawQuery records a keystroke. Any pending commit is cancelled; a new
// one is scheduled after the debounce window, or performed immediately for
// a valid object id.
func (s *Store) SetRawQuery(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.raw = query
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	trimmed := strings.TrimSpace(query)
	if IsObjectID(trimmed) {
		s.commitLocked(trimmed)
		s.mu.Unlock()
		return
	}

	captured := query
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.raw != captured {
			return
		}
		s.commitLocked(strings.TrimSpace(captured))
	})
	s.mu.Unlock()
}

// commitLocked commits a query and kicks off recomputation. Callers hold
// s.mu.
func (s *Store) commitLocked(query string) {
	if query == s.committed && s.groups != nil {
		return
	}
	s.committed = query
	s.gen++
	gen := s.gen

	if s.metrics != nil {
		s.metrics.Commits.Inc()
	}
	go s.recompute(query, gen)
}

func (s *Store) recompute(query string, gen uint64) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
	defer cancel()

	groups := GroupResults(s.agg.Search(ctx, query))

	s.mu.Lock()
	if gen != s.gen {
		// A newer query committed while this one was in flight.
		s.mu.Unlock()
		return
	}
	s.groups = groups
	subs := make([]func([]Group), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(time.Since(started).Seconds())
	}
	s.logger.Debug("search recomputed",
		zap.String("query", query),
		zap.Int("groups", len(groups)),
		zap.Duration("took", time.Since(started)))

	for _, fn := range subs {
		fn(groups)
	}
}

// RawQuery returns the last keystroke value.
func (s *Store) RawQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw
}

// Query returns the last committed query.
func (s *Store) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Groups returns the last computed result groups. It may trail an in-flight
// recomputation; subscribers see the fresh value when it lands.
func (s *Store) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups
}

// Subscribe registers a callback invoked with fresh groups after each
// completed recomputation. Callbacks run on the recompute goroutine and
// must not block. The returned function removes the subscription.
func (s *Store) Subscribe(fn func([]Group)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Close cancels any pending commit. Subsequent keystrokes are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
