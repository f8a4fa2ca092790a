// Package ingest receives inbound chat events, deduplicates them, and
// turns accepted events into persisted messages and derived signals.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Result reports how the gateway disposed of an inbound event.
type Result string

const (
	// ResultAccepted means the event was new and has been dispatched.
	ResultAccepted Result = "accepted"
	// ResultDuplicate means the event id was seen before and dropped.
	ResultDuplicate Result = "duplicate"
)

// ingestTimeout bounds one dispatched ingestion. The transport caller is
// long gone by then; the timeout only protects against a stuck store.
const ingestTimeout = 30 * time.Second

// Gateway deduplicates inbound events by transport-assigned id and hands
// accepted events to the pipeline off the caller's critical path.
//
// The seen-id cache is bounded and memory resident: very old duplicates
// can re-enter after eviction or a restart. That is best effort by
// contract; the store's natural key uniqueness is the real backstop.
type Gateway struct {
	seen     *lru.Cache[int64, struct{}]
	pipeline *Pipeline
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewGateway creates a Gateway with a seen-id cache of the given
// capacity. A non-positive capacity disables deduplication entirely; the
// gateway then fails open and accepts everything.
func NewGateway(pipeline *Pipeline, cacheSize int, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "gateway")

	var seen *lru.Cache[int64, struct{}]
	if cacheSize > 0 {
		cache, err := lru.New[int64, struct{}](cacheSize)
		if err != nil {
			// Losing a message is worse than processing a duplicate, so
			// a broken cache means no dedup rather than no ingestion.
			logger.Error("Failed to create dedup cache, deduplication disabled",
				"size", cacheSize, "error", err)
		} else {
			seen = cache
		}
	}

	return &Gateway{
		seen:     seen,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Accept deduplicates one inbound event and, when it is new, dispatches
// it to the pipeline. It returns before ingestion completes; ingestion
// failures surface only through logs, never to the transport caller.
func (g *Gateway) Accept(eventID int64, event Event) Result {
	if g.seen != nil {
		if previouslySeen, _ := g.seen.ContainsOrAdd(eventID, struct{}{}); previouslySeen {
			g.logger.Debug("Dropping duplicate event",
				"event_id", eventID, "chat_id", event.ChatID, "message_id", event.MessageID)
			return ResultDuplicate
		}
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		if _, err := g.pipeline.Ingest(ctx, event); err != nil {
			g.logger.ErrorContext(ctx, "Ingestion failed",
				"event_id", eventID, "chat_id", event.ChatID, "message_id", event.MessageID, "error", err)
		}
	}()

	return ResultAccepted
}

// AcceptEdit handles an edit notification for an already stored message.
// It is deduplicated and dispatched the same way as Accept.
func (g *Gateway) AcceptEdit(eventID, messageID, chatID, editedAt int64) Result {
	if g.seen != nil {
		if previouslySeen, _ := g.seen.ContainsOrAdd(eventID, struct{}{}); previouslySeen {
			g.logger.Debug("Dropping duplicate edit event",
				"event_id", eventID, "chat_id", chatID, "message_id", messageID)
			return ResultDuplicate
		}
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()

		if err := g.pipeline.MarkEdited(ctx, messageID, chatID, editedAt); err != nil {
			g.logger.ErrorContext(ctx, "Failed to record message edit",
				"event_id", eventID, "chat_id", chatID, "message_id", messageID, "error", err)
		}
	}()

	return ResultAccepted
}

// Wait blocks until all dispatched ingestions have finished. Used during
// shutdown so in-flight events are not cut off mid-write.
func (g *Gateway) Wait() {
	g.wg.Wait()
}
