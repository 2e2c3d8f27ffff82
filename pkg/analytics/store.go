// Package analytics persists page-visit and login history for the
// navigation search. Visit counters feed result weighting, and the recent
// and frequent lists back the empty-query fallback.
package analytics

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/commercekit/chrome/pkg/nav"
)

var (
	bucketUsage        = []byte("usage")
	bucketRecentPages  = []byte("recent_pages")
	bucketRecentLogins = []byte("recent_logins")
)

// recentCap bounds the recent-page and recent-login buckets. Oldest
// entries are pruned on insert.
const recentCap = 50

// PageVisit is one recorded navigation to a dashboard page.
type PageVisit struct {
	URL   string    `json:"url"`
	Title string    `json:"title"`
	At    time.Time `json:"at"`
}

// Login is one recorded login into a merchant account.
type Login struct {
	MerchantID   string    `json:"merchant_id"`
	MerchantName string    `json:"merchant_name"`
	URL          string    `json:"url"`
	At           time.Time `json:"at"`
}

// Store is a bolt-backed analytics database. It is safe for concurrent
// use; bolt serializes writers internally.
type Store struct {
	db  *bolt.DB
	seq uint64 // disambiguates same-nanosecond keys
}

// Open opens (or creates) the analytics database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsage, bucketRecentPages, bucketRecentLogins} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init analytics buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordVisit bumps the usage counter for the visited URL and pushes the
// page onto the recent-pages list, replacing any older entry for the same
// URL.
func (s *Store) RecordVisit(visit PageVisit) error {
	if visit.URL == "" {
		return fmt.Errorf("record visit: empty url")
	}
	if visit.At.IsZero() {
		visit.At = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		usage := tx.Bucket(bucketUsage)
		var u nav.Usage
		if raw := usage.Get([]byte(visit.URL)); raw != nil {
			if err := json.Unmarshal(raw, &u); err != nil {
				return fmt.Errorf("decode usage for %s: %w", visit.URL, err)
			}
		}
		u.TotalHits++
		if ts := visit.At.UnixMilli(); ts > u.MostRecentHit {
			u.MostRecentHit = ts
		}
		raw, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if err := usage.Put([]byte(visit.URL), raw); err != nil {
			return err
		}

		recents := tx.Bucket(bucketRecentPages)
		if err := dropMatching(recents, func(raw []byte) bool {
			var prev PageVisit
			return json.Unmarshal(raw, &prev) == nil && prev.URL == visit.URL
		}); err != nil {
			return err
		}
		payload, err := json.Marshal(visit)
		if err != nil {
			return err
		}
		if err := recents.Put(s.timeKey(visit.At), payload); err != nil {
			return err
		}
		return prune(recents, recentCap)
	})
}

// RecordLogin pushes a merchant login onto the recent-logins list,
// replacing any older entry for the same merchant.
func (s *Store) RecordLogin(login Login) error {
	if login.MerchantID == "" {
		return fmt.Errorf("record login: empty merchant id")
	}
	if login.At.IsZero() {
		login.At = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		logins := tx.Bucket(bucketRecentLogins)
		if err := dropMatching(logins, func(raw []byte) bool {
			var prev Login
			return json.Unmarshal(raw, &prev) == nil && prev.MerchantID == login.MerchantID
		}); err != nil {
			return err
		}
		payload, err := json.Marshal(login)
		if err != nil {
			return err
		}
		if err := logins.Put(s.timeKey(login.At), payload); err != nil {
			return err
		}
		return prune(logins, recentCap)
	})
}

// Stats returns the usage counters keyed by page URL, in the shape the
// navigation tree merges before weighting.
func (s *Store) Stats() (map[string]nav.Usage, error) {
	out := make(map[string]nav.Usage)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsage).ForEach(func(k, v []byte) error {
			var u nav.Usage
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("decode usage for %s: %w", k, err)
			}
			out[string(k)] = u
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentPages returns up to n visits, newest first.
func (s *Store) RecentPages(n int) ([]PageVisit, error) {
	var out []PageVisit
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecentPages).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var visit PageVisit
			if err := json.Unmarshal(v, &visit); err != nil {
				return err
			}
			out = append(out, visit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecentLogins returns up to n logins, newest first.
func (s *Store) RecentLogins(n int) ([]Login, error) {
	var out []Login
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRecentLogins).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var login Login
			if err := json.Unmarshal(v, &login); err != nil {
				return err
			}
			out = append(out, login)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// timeKey builds a byte-sortable key so cursor order is chronological. A
// per-store sequence breaks ties between same-nanosecond writes.
func (s *Store) timeKey(t time.Time) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], uint64(t.UnixNano()))
	binary.BigEndian.PutUint64(key[8:], atomic.AddUint64(&s.seq, 1))
	return key
}

// dropMatching deletes every entry whose value satisfies match.
func dropMatching(b *bolt.Bucket, match func([]byte) bool) error {
	var stale [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if match(v) {
			stale = append(stale, append([]byte(nil), k...))
		}
	}
	for _, k := range stale {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// prune deletes the oldest entries until at most limit remain. Counting
// uses a cursor because bucket stats lag uncommitted writes.
func prune(b *bolt.Bucket, limit int) error {
	count := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		count++
	}
	for excess := count - limit; excess > 0; excess-- {
		k, _ := c.First()
		if k == nil {
			return nil
		}
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
