package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"flexPool/internal/chain"
	"flexPool/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pool_events (
	id          UUID PRIMARY KEY,
	pool        TEXT NOT NULL,
	seq         BIGINT NOT NULL,
	ts          BIGINT NOT NULL,
	event_name  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (pool, seq)
);
CREATE INDEX IF NOT EXISTS pool_events_name_idx ON pool_events (pool, event_name);
`

// Options tune batching and retries of event inserts.
type Options struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

// Store persists pool events in Postgres.
type Store struct {
	pool *pgxpool.Pool
	opts Options
}

func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, opts: opts}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the event table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutEvents inserts events in batches. Records already stored are skipped, so
// a retried batch is harmless.
func (s *Store) PutEvents(ctx context.Context, events []model.EventRecord) error {
	for start := 0; start < len(events); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[start:end]
		err := chain.Retry(ctx, s.opts.MaxRetries, s.opts.RetryBackoff, s.opts.Logger, "insert events", func(ctx context.Context) error {
			return s.insert(ctx, chunk)
		})
		if err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, events []model.EventRecord) error {
	batch := &pgx.Batch{}
	for _, ev := range events {
		payload, err := json.Marshal(ev.Decoded)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", ev.EventName, err)
		}
		batch.Queue(`
			INSERT INTO pool_events (id, pool, seq, ts, event_name, payload)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`,
			ev.ID,
			ev.Pool,
			int64(ev.Seq),
			int64(ev.Timestamp),
			ev.EventName,
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LastSeq returns the highest stored sequence number of a pool.
func (s *Store) LastSeq(ctx context.Context, pool string) (uint64, bool, error) {
	if pool == "" {
		return 0, false, fmt.Errorf("pool required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT seq FROM pool_events WHERE pool=$1 ORDER BY seq DESC LIMIT 1`, pool)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}
