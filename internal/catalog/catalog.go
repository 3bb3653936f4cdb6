// Package catalog tracks corpus ingestion in PostgreSQL. The asynchronous
// path records a PENDING row before publishing to Kafka; the consumer flips
// it to INDEXED or FAILED once the corpus is built.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS corpora (
    name            TEXT PRIMARY KEY,
    content_hash    TEXT NOT NULL,
    word_count      INTEGER NOT NULL,
    status          TEXT NOT NULL DEFAULT 'PENDING',
    idempotency_key TEXT UNIQUE,
    failure_reason  TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    indexed_at      TIMESTAMPTZ
)`

// Record is one row of the corpora table.
type Record struct {
	Name           string     `json:"name"`
	ContentHash    string     `json:"content_hash"`
	WordCount      int        `json:"word_count"`
	Status         string     `json:"status"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	IndexedAt      *time.Time `json:"indexed_at,omitempty"`
}

type Catalog struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Catalog {
	return &Catalog{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the corpora table if it is missing.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating corpora table: %w", err)
	}
	return nil
}

// Insert records a PENDING corpus. A clash on the name yields
// ErrCorpusExists; a clash on the idempotency key yields
// ErrIdempotencyConflict.
func (c *Catalog) Insert(ctx context.Context, rec Record) error {
	return c.db.InTx(ctx, func(tx *sql.Tx) error {
		var created time.Time
		err := tx.QueryRowContext(ctx,
			`INSERT INTO corpora (name, content_hash, word_count, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING created_at`,
			rec.Name, rec.ContentHash, rec.WordCount, ingestion.StatusPending, nullableString(rec.IdempotencyKey),
		).Scan(&created)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM corpora WHERE name=$1)`, rec.Name).Scan(&exists); err != nil {
				return fmt.Errorf("checking corpus name: %w", err)
			}
			if exists {
				return apperrors.Newf(apperrors.ErrCorpusExists, http.StatusConflict, "corpus %q is already registered", rec.Name)
			}
			return apperrors.New(apperrors.ErrIdempotencyConflict, http.StatusConflict, "idempotency key already in use")
		}
		if err != nil {
			return fmt.Errorf("inserting corpus %q: %w", rec.Name, err)
		}
		c.logger.Debug("catalog row inserted", "corpus", rec.Name, "created_at", created)
		return nil
	})
}

// FindByIdempotencyKey returns nil, nil when no row carries key.
func (c *Catalog) FindByIdempotencyKey(ctx context.Context, key string) (*Record, error) {
	rec, err := c.scanOne(ctx, `WHERE idempotency_key=$1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return rec, nil
}

func (c *Catalog) Get(ctx context.Context, name string) (*Record, error) {
	rec, err := c.scanOne(ctx, `WHERE name=$1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrCorpusNotFound, http.StatusNotFound, "corpus %q is not in the catalog", name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying corpus %q: %w", name, err)
	}
	return rec, nil
}

func (c *Catalog) MarkIndexed(ctx context.Context, name string) error {
	return c.updateStatus(ctx, name, ingestion.StatusIndexed, "")
}

func (c *Catalog) MarkFailed(ctx context.Context, name, reason string) error {
	return c.updateStatus(ctx, name, ingestion.StatusFailed, reason)
}

func (c *Catalog) Delete(ctx context.Context, name string) error {
	if _, err := c.db.DB.ExecContext(ctx, `DELETE FROM corpora WHERE name=$1`, name); err != nil {
		return fmt.Errorf("deleting corpus %q: %w", name, err)
	}
	return nil
}

func (c *Catalog) updateStatus(ctx context.Context, name, status, reason string) error {
	res, err := c.db.DB.ExecContext(ctx,
		`UPDATE corpora
		SET status=$2, failure_reason=$3,
		    indexed_at = CASE WHEN $4 THEN NOW() ELSE indexed_at END
		WHERE name=$1`,
		name, status, nullableString(reason), status == ingestion.StatusIndexed,
	)
	if err != nil {
		return fmt.Errorf("updating status of %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		c.logger.Warn("status update matched no catalog row", "corpus", name, "status", status)
	}
	return nil
}

func (c *Catalog) scanOne(ctx context.Context, where string, arg any) (*Record, error) {
	var (
		rec       Record
		key       sql.NullString
		reason    sql.NullString
		indexedAt sql.NullTime
	)
	err := c.db.DB.QueryRowContext(ctx,
		`SELECT name, content_hash, word_count, status, idempotency_key, failure_reason, created_at, indexed_at
		FROM corpora `+where, arg,
	).Scan(&rec.Name, &rec.ContentHash, &rec.WordCount, &rec.Status, &key, &reason, &rec.CreatedAt, &indexedAt)
	if err != nil {
		return nil, err
	}
	rec.IdempotencyKey = key.String
	rec.FailureReason = reason.String
	if indexedAt.Valid {
		t := indexedAt.Time
		rec.IndexedAt = &t
	}
	return &rec, nil
}

// nullableString maps "" to SQL NULL so the UNIQUE constraint ignores it.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
