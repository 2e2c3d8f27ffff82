package analytics

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordVisitAccumulatesUsage(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordVisit(PageVisit{
			URL:   "/orders",
			Title: "Orders",
			At:    base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, store.RecordVisit(PageVisit{URL: "/products", Title: "Products", At: base}))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["/orders"].TotalHits)
	assert.Equal(t, base.Add(2*time.Hour).UnixMilli(), stats["/orders"].MostRecentHit)
	assert.Equal(t, int64(1), stats["/products"].TotalHits)
}

func TestRecentPagesNewestFirstAndDeduped(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordVisit(PageVisit{URL: "/orders", Title: "Orders", At: base}))
	require.NoError(t, store.RecordVisit(PageVisit{URL: "/products", Title: "Products", At: base.Add(time.Minute)}))
	require.NoError(t, store.RecordVisit(PageVisit{URL: "/orders", Title: "Orders", At: base.Add(2 * time.Minute)}))

	pages, err := store.RecentPages(10)
	require.NoError(t, err)
	require.Len(t, pages, 2, "revisit should replace the older entry")
	assert.Equal(t, "/orders", pages[0].URL)
	assert.Equal(t, "/products", pages[1].URL)
}

func TestRecentPagesHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordVisit(PageVisit{
			URL: fmt.Sprintf("/page-%d", i),
			At:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	pages, err := store.RecentPages(2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "/page-4", pages[0].URL)
	assert.Equal(t, "/page-3", pages[1].URL)
}

func TestRecentListPrunedAtCap(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < recentCap+10; i++ {
		require.NoError(t, store.RecordVisit(PageVisit{
			URL: fmt.Sprintf("/page-%d", i),
			At:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	pages, err := store.RecentPages(recentCap * 2)
	require.NoError(t, err)
	assert.Len(t, pages, recentCap)
	assert.Equal(t, fmt.Sprintf("/page-%d", recentCap+9), pages[0].URL)
}

func TestRecordLoginDedupedByMerchant(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordLogin(Login{MerchantID: "m1", MerchantName: "Acme", At: base}))
	require.NoError(t, store.RecordLogin(Login{MerchantID: "m2", MerchantName: "Globex", At: base.Add(time.Minute)}))
	require.NoError(t, store.RecordLogin(Login{MerchantID: "m1", MerchantName: "Acme", At: base.Add(2 * time.Minute)}))

	logins, err := store.RecentLogins(10)
	require.NoError(t, err)
	require.Len(t, logins, 2)
	assert.Equal(t, "m1", logins[0].MerchantID)
	assert.Equal(t, "m2", logins[1].MerchantID)
}

func TestRecordVisitRejectsEmptyURL(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.RecordVisit(PageVisit{}))
}

func TestRecordLoginRejectsEmptyMerchant(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.RecordLogin(Login{}))
}

func TestStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordVisit(PageVisit{URL: "/orders", At: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	stats, err := reopened.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["/orders"].TotalHits)
}
