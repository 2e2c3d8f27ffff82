// Package merchantdb looks merchants up by name or id in the merchants
// Postgres database.
package merchantdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/search"
)

const (
	defaultMaxResults  = 5
	defaultConnTimeout = 5 * time.Second
)

// Store answers merchant searches from a Postgres database.
type Store struct {
	db         *sql.DB
	logger     *zap.Logger
	maxResults int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMaxResults overrides how many merchants one search returns.
func WithMaxResults(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// Open connects to the merchants database and verifies the connection.
func Open(connString string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("open merchant db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping merchant db: %w", err)
	}
	return NewWithDB(db, opts...), nil
}

// NewWithDB wraps an existing connection. Tests inject mock connections
// through here.
func NewWithDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: zap.NewNop(), maxResults: defaultMaxResults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies pending schema migrations from migrationsPath, e.g.
// "file://migrations".
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const searchQuery = `
SELECT id, name, domain, plus_tier
FROM merchants
WHERE name ILIKE '%' || $1 || '%' OR id = $1
ORDER BY name
LIMIT $2`

// SearchMerchants matches merchants whose name contains the query, or
// whose id equals it exactly.
func (s *Store) SearchMerchants(ctx context.Context, query string) ([]search.Result, error) {
	rows, err := s.db.QueryContext(ctx, searchQuery, query, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("search merchants: %w", err)
	}
	defer rows.Close()

	var results []search.Result
	for rows.Next() {
		var (
			id, name string
			domain   sql.NullString
			plusTier bool
		)
		if err := rows.Scan(&id, &name, &domain, &plusTier); err != nil {
			return nil, fmt.Errorf("scan merchant row: %w", err)
		}
		res := search.Result{
			URL:         "/merchants/" + id,
			Type:        search.TypeMerchant,
			Title:       name,
			Description: domain.String,
			ObjectID:    id,
		}
		if plusTier {
			res.Nuggets = []string{"Plus"}
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant rows: %w", err)
	}
	return results, nil
}
