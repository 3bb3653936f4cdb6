// Package consumer drains the corpus-ingest topic: each event is indexed
// into the registry and its catalog row is moved out of PENDING.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/kafka"
)

// Registry is the subset of *corpus.Registry the consumer indexes into.
type Registry interface {
	Add(ctx context.Context, name string, words []string) (*corpus.Corpus, error)
	Get(name string) (*corpus.Corpus, error)
}

// StatusUpdater is satisfied by *catalog.Catalog.
type StatusUpdater interface {
	MarkIndexed(ctx context.Context, name string) error
	MarkFailed(ctx context.Context, name, reason string) error
}

// Tracker receives an IndexEvent per built corpus.
type Tracker interface {
	Track(corpus string, event any)
}

// HandleMessage returns a kafka.MessageHandler that builds corpora from
// ingest events. catalog and tracker may be nil. Undecodable or invalid
// events are logged and committed; storage failures are returned so the
// offset is not committed.
func HandleMessage(registry Registry, catalog StatusUpdater, tracker Tracker) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		logger.Debug("processing ingest event", "corpus", event.Name, "words", len(event.Words))

		if event.ContentHash != "" && event.ContentHash != corpus.ContentHash(event.Words) {
			markFailed(ctx, catalog, event.Name, "content hash mismatch", logger)
			return nil
		}

		start := time.Now()
		c, err := registry.Add(ctx, event.Name, event.Words)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrCorpusExists):
			// Redelivery after a crash between Add and commit.
			existing, getErr := registry.Get(event.Name)
			if getErr == nil && existing.ContentHash == corpus.ContentHash(event.Words) {
				markIndexed(ctx, catalog, event.Name, logger)
				return nil
			}
			markFailed(ctx, catalog, event.Name, "name already holds a different corpus", logger)
			return nil
		case errors.Is(err, apperrors.ErrInvalidInput):
			markFailed(ctx, catalog, event.Name, err.Error(), logger)
			return nil
		default:
			return fmt.Errorf("indexing corpus %q: %w", event.Name, err)
		}

		markIndexed(ctx, catalog, event.Name, logger)
		latency := time.Since(start)
		if tracker != nil {
			tracker.Track(event.Name, analytics.IndexEvent{
				Type:          analytics.EventCorpusIndex,
				Corpus:        event.Name,
				WordCount:     c.Index.Len(),
				DistinctWords: c.Index.WordCount(),
				LatencyMs:     latency.Milliseconds(),
				Timestamp:     time.Now().UTC(),
			})
		}
		logger.Info("corpus indexed",
			"corpus", event.Name,
			"words", c.Index.Len(),
			"latency", latency,
		)
		return nil
	}
}

func markIndexed(ctx context.Context, catalog StatusUpdater, name string, logger *slog.Logger) {
	if catalog == nil {
		return
	}
	if err := catalog.MarkIndexed(ctx, name); err != nil {
		logger.Error("failed to update corpus status", "corpus", name, "status", ingestion.StatusIndexed, "error", err)
	}
}

func markFailed(ctx context.Context, catalog StatusUpdater, name, reason string, logger *slog.Logger) {
	logger.Warn("corpus ingestion failed", "corpus", name, "reason", reason)
	if catalog == nil {
		return
	}
	if err := catalog.MarkFailed(ctx, name, reason); err != nil {
		logger.Error("failed to update corpus status", "corpus", name, "status", ingestion.StatusFailed, "error", err)
	}
}
