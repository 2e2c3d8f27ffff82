package main

import (
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/analytics"
	"github.com/commercekit/chrome/pkg/search"
)

// historyAdapter exposes the analytics store as the search history source.
// Read failures degrade to empty lists; the fallback view just ends up
// shorter.
type historyAdapter struct {
	store  *analytics.Store
	logger *zap.Logger
}

func newHistoryAdapter(store *analytics.Store, logger *zap.Logger) *historyAdapter {
	return &historyAdapter{store: store, logger: logger}
}

func (h *historyAdapter) RecentPages(n int) []search.Result {
	visits, err := h.store.RecentPages(n)
	if err != nil {
		h.logger.Warn("recent pages unavailable", zap.Error(err))
		return nil
	}
	results := make([]search.Result, 0, len(visits))
	for _, v := range visits {
		results = append(results, search.Result{
			URL:   v.URL,
			Type:  search.TypeRecentPage,
			Title: v.Title,
		})
	}
	return results
}

func (h *historyAdapter) RecentLogins(n int) []search.Result {
	logins, err := h.store.RecentLogins(n)
	if err != nil {
		h.logger.Warn("recent logins unavailable", zap.Error(err))
		return nil
	}
	results := make([]search.Result, 0, len(logins))
	for _, l := range logins {
		results = append(results, search.Result{
			URL:      l.URL,
			Type:     search.TypeRecentLogin,
			Title:    l.MerchantName,
			ObjectID: l.MerchantID,
		})
	}
	return results
}
