package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const defaultMaxRetries = 5

// PostgresStore keeps the key-value pairs in the kv table (see migrations).
// Read-write transactions run at SERIALIZABLE and lock the rows they read.
type PostgresStore struct {
	pool       *pgxpool.Pool
	log        *zap.Logger
	maxRetries int
}

func NewPostgresStore(pool *pgxpool.Pool, log *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, log: log, maxRetries: defaultMaxRetries}
}

func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
	return retrySerializable(ctx, s.maxRetries, s.log, func() error {
		return s.run(ctx, opts, fn)
	})
}

// retrySerializable reruns attempt while it fails with a serialization
// conflict, at most maxRetries extra times.
func retrySerializable(ctx context.Context, maxRetries int, log *zap.Logger, attempt func() error) error {
	for n := 0; ; n++ {
		err := attempt()
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) || n >= maxRetries || ctx.Err() != nil {
			return err
		}
		log.Debug("serialization conflict, retrying transaction",
			zap.Int("attempt", n+1),
			zap.Error(err),
		)
	}
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts pgx.TxOptions, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx, readOnly: opts.AccessMode == pgx.ReadOnly}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) Has(ctx context.Context, key Key) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM kv WHERE namespace = $1 AND key = $2)",
		string(key.Namespace), key.ID,
	).Scan(&exists)
	return exists, err
}

func (t *pgTx) Get(ctx context.Context, key Key, dst any) (bool, error) {
	query := "SELECT value FROM kv WHERE namespace = $1 AND key = $2"
	if !t.readOnly {
		query += " FOR UPDATE"
	}

	var raw []byte
	err := t.tx.QueryRow(ctx, query, string(key.Namespace), key.ID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *pgTx) Set(ctx context.Context, key Key, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO kv (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()
	`, string(key.Namespace), key.ID, string(raw))
	return err
}

// 40001 serialization_failure, 40P01 deadlock_detected
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
