// Package fraud exposes the scoring façade consumed by the transaction
// lifecycle handler. It owns the lazy model load and the fail-open policy:
// absence of a model must never block normal transaction processing.
package fraud

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/feature"
	"github.com/samarth3301/payment-simulator/internal/model"
)

// suspicionThreshold maps the ensemble vote fraction to the boolean verdict.
const suspicionThreshold = 0.5

// Scorer is the contract the ledger depends on.
type Scorer interface {
	// Score never returns an error; internal failures degrade to a
	// not-suspicious verdict with a nil score.
	Score(ctx context.Context, tx *domain.Transaction) domain.Verdict
}

// Service scores transactions against the persisted classifier. The model
// is loaded lazily on first use and cached for the process lifetime; once
// loaded it is immutable and shared across concurrent requests.
type Service struct {
	path string

	mu       sync.RWMutex
	artifact *model.Artifact
}

// NewService creates a scoring service reading its model from path. No
// I/O happens until the first Score call.
func NewService(path string) *Service {
	return &Service{path: path}
}

// Score encodes the transaction with the training-time encoding and asks
// the classifier for a verdict. Fail-open on any fault.
func (s *Service) Score(ctx context.Context, tx *domain.Transaction) (verdict domain.Verdict) {
	// Any panic during encoding or prediction degrades to fail-open.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("fraud scoring panicked", "tx_id", tx.ID, "panic", r)
			verdict = domain.Verdict{IsSuspicious: false, Score: nil}
		}
	}()

	artifact := s.load()
	if artifact == nil {
		return domain.Verdict{IsSuspicious: false, Score: nil}
	}

	fv := feature.EncodeTransaction(tx, artifact.Encoding)
	score := artifact.Forest.PredictProba(fv.Vector())

	return domain.Verdict{
		IsSuspicious: score > suspicionThreshold,
		Score:        &score,
	}
}

// Loaded reports whether a model is currently cached.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// load returns the cached artifact, reading it from disk on first use.
// The write lock guards the unloaded-to-loaded transition so concurrent
// first calls do not duplicate I/O. A failed load leaves the service
// unloaded; the next call retries, so a model trained after startup is
// picked up without a restart.
func (s *Service) load() *model.Artifact {
	s.mu.RLock()
	artifact := s.artifact
	s.mu.RUnlock()
	if artifact != nil {
		return artifact
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.artifact != nil {
		return s.artifact
	}

	artifact, err := model.Load(s.path)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			slog.Debug("no fraud model available, scoring fails open", "path", s.path)
		} else {
			slog.Warn("failed to load fraud model, scoring fails open", "path", s.path, "error", err)
		}
		return nil
	}

	slog.Info("fraud model loaded",
		"path", s.path,
		"trained_at", artifact.TrainedAt,
		"trees", len(artifact.Forest.Trees),
	)
	s.artifact = artifact
	return artifact
}
