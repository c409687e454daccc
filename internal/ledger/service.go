// Package ledger implements the transaction lifecycle: submission,
// lookup, and the guarded status transition that consults the fraud
// scorer before a transaction may become successful.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/fraud"
	"github.com/samarth3301/payment-simulator/internal/screening"
)

// Service owns ledger semantics. The repository is the source of truth;
// cache and bus are best-effort collaborators whose failures never block
// a transaction.
type Service struct {
	repo   domain.Repository
	scorer fraud.Scorer
	cache  domain.Cache
	bus    domain.EventBus
	screen *screening.Engine

	velocityWindow time.Duration
}

// New creates a ledger service. cache, bus, and screen may be nil.
func New(repo domain.Repository, scorer fraud.Scorer, cache domain.Cache, bus domain.EventBus, screen *screening.Engine, velocityWindow time.Duration) *Service {
	if velocityWindow <= 0 {
		velocityWindow = time.Hour
	}
	return &Service{
		repo:           repo,
		scorer:         scorer,
		cache:          cache,
		bus:            bus,
		screen:         screen,
		velocityWindow: velocityWindow,
	}
}

// TransitionResult is the outcome of a status transition attempt.
type TransitionResult struct {
	Transaction *domain.Transaction     `json:"transaction"`
	Verdict     *domain.Verdict         `json:"verdict,omitempty"`
	Reasons     []domain.ScreeningMatch `json:"reasons,omitempty"`
}

// FlaggedEvent is published to TopicTransactionFlagged when a transition
// to success is blocked.
type FlaggedEvent struct {
	TxID    string                  `json:"txId"`
	Amount  float64                 `json:"amount"`
	Score   *float64                `json:"score"`
	Reasons []domain.ScreeningMatch `json:"reasons,omitempty"`
}

// Create validates and persists a new pending transaction, bumps the
// sender's velocity counter, and announces the record on the bus.
func (s *Service) Create(ctx context.Context, req *domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx := req.ToTransaction()
	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	if s.cache != nil {
		if _, err := s.cache.IncrementCounter(ctx, "sender:"+tx.SenderUPIID, s.velocityWindow); err != nil {
			slog.Warn("failed to bump velocity counter", "tx_id", tx.ID, "error", err)
		}
	}

	s.publish(ctx, domain.TopicTransactionCreated, tx)

	return tx, nil
}

// Get returns one transaction by ID.
func (s *Service) Get(ctx context.Context, txID string) (*domain.Transaction, error) {
	return s.repo.GetTransaction(ctx, txID)
}

// List returns the most recent transactions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, limit)
}

// Transition attempts to move a transaction out of pending. Terminal
// states reject further transitions. A transition to success is
// intercepted: the transaction is scored, the verdict is recorded on the
// record either way, and a suspicious verdict forces the transaction to
// failed instead.
func (s *Service) Transition(ctx context.Context, txID, target string) (*TransitionResult, error) {
	if target != domain.StatusSuccess && target != domain.StatusFailed {
		return nil, fmt.Errorf("%w: cannot transition to %q", domain.ErrInvalidTransition, target)
	}

	tx, err := s.repo.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.IsTerminal() {
		return nil, fmt.Errorf("%w: transaction %s is already %s", domain.ErrInvalidTransition, txID, tx.Status)
	}

	if target == domain.StatusFailed {
		if err := s.applyStatus(ctx, tx, domain.StatusFailed, nil, nil); err != nil {
			return nil, err
		}
		return &TransitionResult{Transaction: tx}, nil
	}

	verdict := s.verdict(ctx, tx)
	reasons := s.screenTransaction(ctx, tx)

	final := domain.StatusSuccess
	if verdict.IsSuspicious {
		final = domain.StatusFailed
	}

	if err := s.applyStatus(ctx, tx, final, &verdict.IsSuspicious, verdict.Score); err != nil {
		return nil, err
	}

	if verdict.IsSuspicious {
		event := FlaggedEvent{TxID: tx.ID, Amount: tx.Amount, Score: verdict.Score, Reasons: reasons}
		s.publish(ctx, domain.TopicTransactionFlagged, event)
		slog.Info("transaction blocked by fraud check",
			"tx_id", tx.ID,
			"amount", tx.Amount,
			"score", scoreValue(verdict.Score),
			"screening_matches", len(reasons),
		)
	}

	return &TransitionResult{Transaction: tx, Verdict: &verdict, Reasons: reasons}, nil
}

// verdict returns the fraud verdict for a transaction, preferring one the
// async worker already computed and cached.
func (s *Service) verdict(ctx context.Context, tx *domain.Transaction) domain.Verdict {
	if s.cache != nil {
		if cached, err := s.cache.GetVerdict(ctx, tx.ID); err == nil && cached != nil {
			return *cached
		}
	}
	return s.scorer.Score(ctx, tx)
}

// screenTransaction runs the advisory CEL rules. Failures degrade to no
// matches.
func (s *Service) screenTransaction(ctx context.Context, tx *domain.Transaction) []domain.ScreeningMatch {
	if s.screen == nil || s.screen.RulesCount() == 0 {
		return nil
	}

	var velocity int64
	if count, err := s.repo.CountBySender(ctx, tx.SenderUPIID, time.Now().Add(-s.velocityWindow)); err == nil {
		velocity = count
	}

	return s.screen.Evaluate(&screening.Input{
		Amount:        tx.Amount,
		Hour:          tx.Timestamp.Hour(),
		SenderUPI:     tx.SenderUPIID,
		ReceiverUPI:   tx.ReceiverUPIID,
		VelocityCount: velocity,
	})
}

// applyStatus persists the status change and mirrors it onto the in-memory
// record.
func (s *Service) applyStatus(ctx context.Context, tx *domain.Transaction, status string, flag *bool, score *float64) error {
	if err := s.repo.UpdateTransactionStatus(ctx, tx.ID, status, flag, score); err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	tx.Status = status
	tx.FraudFlag = flag
	tx.FraudScore = score

	s.publish(ctx, domain.TopicStatusChanged, tx)
	return nil
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, data); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func scoreValue(score *float64) float64 {
	if score == nil {
		return -1
	}
	return *score
}
