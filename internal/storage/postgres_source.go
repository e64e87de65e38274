package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"car-catalog-api/internal/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx pool, retrying while the database comes up
func NewPool(ctx context.Context, databaseURL string, attempts int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	if attempts <= 0 {
		attempts = 1
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				slog.Info("Database connected", "attempt", attempt)
				return pool, nil
			}
			pool.Close()
		}
		slog.Warn("Database connect attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

const createCatalogSchema = `CREATE SCHEMA IF NOT EXISTS catalog`

const createCarsTable = `
CREATE TABLE IF NOT EXISTS catalog.cars (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	model_name       TEXT NOT NULL DEFAULT '',
	brand            TEXT NOT NULL DEFAULT '',
	fraction_price   TEXT NOT NULL DEFAULT '',
	token_price      TEXT NOT NULL DEFAULT '',
	price            TEXT NOT NULL DEFAULT '',
	total_units      INTEGER NOT NULL DEFAULT 0,
	available_units  INTEGER NOT NULL DEFAULT 0,
	total_tokens     INTEGER NOT NULL DEFAULT 0,
	available_tokens INTEGER NOT NULL DEFAULT 0,
	location         TEXT NOT NULL DEFAULT '',
	pincode          TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT '',
	stop_bookings    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ
)`

const selectCars = `
SELECT id, COALESCE(name, ''), COALESCE(model_name, ''), COALESCE(brand, ''),
       COALESCE(fraction_price, ''), COALESCE(token_price, ''), COALESCE(price, ''),
       COALESCE(total_units, 0), COALESCE(available_units, 0),
       COALESCE(total_tokens, 0), COALESCE(available_tokens, 0),
       COALESCE(location, ''), COALESCE(pincode, ''), COALESCE(state, ''),
       COALESCE(stop_bookings, FALSE), created_at
FROM catalog.cars
ORDER BY created_at DESC NULLS LAST`

const upsertCar = `
INSERT INTO catalog.cars (id, name, model_name, brand, fraction_price, token_price, price,
	total_units, available_units, total_tokens, available_tokens,
	location, pincode, state, stop_bookings, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name, model_name = EXCLUDED.model_name, brand = EXCLUDED.brand,
	fraction_price = EXCLUDED.fraction_price, token_price = EXCLUDED.token_price, price = EXCLUDED.price,
	total_units = EXCLUDED.total_units, available_units = EXCLUDED.available_units,
	total_tokens = EXCLUDED.total_tokens, available_tokens = EXCLUDED.available_tokens,
	location = EXCLUDED.location, pincode = EXCLUDED.pincode, state = EXCLUDED.state,
	stop_bookings = EXCLUDED.stop_bookings`

// PostgresSource reads and writes catalog.cars
type PostgresSource struct {
	db *pgxpool.Pool
}

func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

// EnsureSchema creates the cars table when missing
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createCatalogSchema); err != nil {
		return fmt.Errorf("create schema catalog: %w", err)
	}
	if _, err := s.db.Exec(ctx, createCarsTable); err != nil {
		return fmt.Errorf("create catalog.cars: %w", err)
	}
	return nil
}

// Load returns every car, newest first
func (s *PostgresSource) Load(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.Query(ctx, selectCars)
	if err != nil {
		return nil, fmt.Errorf("query cars: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.Item, 0)
	for rows.Next() {
		var (
			it                                         catalog.Item
			fraction, token, price                     string
			totalUnits, availUnits, totalTok, availTok int
			createdAt                                  *time.Time
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.ModelName, &it.Brand,
			&fraction, &token, &price,
			&totalUnits, &availUnits, &totalTok, &availTok,
			&it.Location, &it.Pincode, &it.State,
			&it.StopBookings, &createdAt); err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		it.FractionPrice = catalog.Amount(fraction)
		it.TokenPrice = catalog.Amount(token)
		it.Price = catalog.Amount(price)
		it.TotalUnits = nonNegative(totalUnits)
		it.AvailableUnits = nonNegative(availUnits)
		it.TotalTokens = nonNegative(totalTok)
		it.AvailableTokens = nonNegative(availTok)
		if createdAt != nil {
			it.CreatedAt = *createdAt
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cars: %w", err)
	}
	return items, nil
}

// Save upserts every car in one transaction
func (s *PostgresSource) Save(ctx context.Context, items []catalog.Item) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, it := range items {
		var createdAt *time.Time
		if !it.CreatedAt.IsZero() {
			t := it.CreatedAt
			createdAt = &t
		}
		batch.Queue(upsertCar,
			it.ID, it.Name, it.ModelName, it.Brand,
			string(it.FractionPrice), string(it.TokenPrice), string(it.Price),
			int(it.TotalUnits), int(it.AvailableUnits), int(it.TotalTokens), int(it.AvailableTokens),
			it.Location, it.Pincode, it.State, it.StopBookings, createdAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert cars: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresSource) String() string { return "postgres" }

func nonNegative(n int) catalog.Count {
	if n < 0 {
		return 0
	}
	return catalog.Count(n)
}
