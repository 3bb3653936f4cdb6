// Package publisher is the asynchronous ingestion path. It records the
// corpus in the catalog as PENDING and publishes an IngestEvent to Kafka; a
// consumer builds the index later.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/resilience"
)

// Catalog is the subset of *catalog.Catalog the publisher writes to.
type Catalog interface {
	Insert(ctx context.Context, rec catalog.Record) error
	FindByIdempotencyKey(ctx context.Context, key string) (*catalog.Record, error)
	Delete(ctx context.Context, name string) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Publisher struct {
	catalog  Catalog
	producer EventPublisher
	limits   validator.Limits
	retry    resilience.RetryConfig
	now      func() time.Time
	logger   *slog.Logger
}

func New(cat Catalog, producer EventPublisher, limits validator.Limits) *Publisher {
	return &Publisher{
		catalog:  cat,
		producer: producer,
		limits:   limits,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
		},
		now:    time.Now,
		logger: slog.Default().With("component", "publisher"),
	}
}

// Ingest validates the request, catalogs it and hands it to Kafka. A replay
// of an already-accepted idempotency key returns the recorded status.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if err := validator.ValidateIngestRequest(req, p.limits); err != nil {
		return nil, err
	}
	words := req.Sequence()
	hash := corpus.ContentHash(words)

	if req.IdempotencyKey != "" {
		existing, err := p.catalog.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			if existing.Name != req.Name || existing.ContentHash != hash {
				return nil, apperrors.New(apperrors.ErrIdempotencyConflict, http.StatusConflict,
					"idempotency key already used for a different corpus")
			}
			p.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"corpus", existing.Name,
				"status", existing.Status,
			)
			return &ingestion.IngestResponse{
				Name:      existing.Name,
				Status:    existing.Status,
				WordCount: existing.WordCount,
			}, nil
		}
	}

	rec := catalog.Record{
		Name:           req.Name,
		ContentHash:    hash,
		WordCount:      len(words),
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := p.catalog.Insert(ctx, rec); err != nil {
		return nil, err
	}

	event := kafka.Event{
		Key: req.Name,
		Value: ingestion.IngestEvent{
			Name:        req.Name,
			Words:       words,
			ContentHash: hash,
			IngestedAt:  p.now().UTC(),
		},
	}
	err := resilience.Retry(ctx, "publish-ingest-event", p.retry, func(ctx context.Context) error {
		return p.producer.Publish(ctx, event)
	})
	if err != nil {
		p.logger.Error("failed to publish ingest event, releasing catalog row",
			"corpus", req.Name,
			"error", err,
		)
		if delErr := p.catalog.Delete(context.WithoutCancel(ctx), req.Name); delErr != nil {
			p.logger.Error("failed to release catalog row, corpus stuck in PENDING",
				"corpus", req.Name,
				"error", delErr,
			)
		}
		return nil, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable,
			"ingestion queue unavailable, retry later")
	}

	p.logger.Info("corpus accepted for indexing", "corpus", req.Name, "words", len(words))
	return &ingestion.IngestResponse{
		Name:      req.Name,
		Status:    ingestion.StatusPending,
		WordCount: len(words),
	}, nil
}
