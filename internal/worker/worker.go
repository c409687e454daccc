// Package worker provides async pre-scoring of newly created transactions.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/fraud"
	"github.com/samarth3301/payment-simulator/internal/ledger"
)

// verdictTTL bounds how long a pre-computed verdict stays warm. A
// transaction settled later than this is simply re-scored inline.
const verdictTTL = 15 * time.Minute

// Worker listens for created transactions, scores them ahead of the
// status transition, and warms the verdict cache so the transition path
// does not pay the scoring cost. Suspicious transactions are announced
// early on the flagged topic.
type Worker struct {
	bus    domain.EventBus
	scorer fraud.Scorer
	cache  domain.Cache

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async pre-scoring worker.
func NewWorker(bus domain.EventBus, scorer fraud.Scorer, cache domain.Cache) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		scorer: scorer,
		cache:  cache,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the created-transaction topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionCreated, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("pre-scoring worker started", "topic", domain.TopicTransactionCreated)
	return nil
}

// Stop unsubscribes and cancels in-flight handlers.
func (w *Worker) Stop() {
	for _, sub := range w.subscriptions {
		_ = sub.Unsubscribe()
	}
	w.subscriptions = nil
	w.cancel()
	slog.Info("pre-scoring worker stopped")
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var tx domain.Transaction
	if err := json.Unmarshal(msg.Payload, &tx); err != nil {
		slog.Error("failed to parse transaction message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if tx.ID == "" {
		slog.Warn("transaction message without id", "message_id", msg.ID)
		return nil
	}

	start := time.Now()
	verdict := w.scorer.Score(ctx, &tx)

	if w.cache != nil {
		if err := w.cache.SetVerdict(ctx, tx.ID, &verdict, verdictTTL); err != nil {
			slog.Warn("failed to cache verdict", "tx_id", tx.ID, "error", err)
		}
	}

	slog.Debug("transaction pre-scored",
		"tx_id", tx.ID,
		"suspicious", verdict.IsSuspicious,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if verdict.IsSuspicious {
		event := ledger.FlaggedEvent{
			TxID:   tx.ID,
			Amount: tx.Amount,
			Score:  verdict.Score,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if err := w.bus.Publish(ctx, domain.TopicTransactionFlagged, data); err != nil {
			slog.Warn("failed to publish flagged event", "tx_id", tx.ID, "error", err)
		}
	}

	return nil
}
