package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/fraud"
	"github.com/samarth3301/payment-simulator/internal/ledger"
	"github.com/samarth3301/payment-simulator/internal/repository"
	"github.com/samarth3301/payment-simulator/internal/screening"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	ledger  *ledger.Service
	repo    domain.Repository
	cache   domain.Cache
	screen  *screening.Engine
	scorer  *fraud.Service
	version string
}

// NewHandler creates a new API handler.
func NewHandler(svc *ledger.Service, repo domain.Repository, cache domain.Cache, screen *screening.Engine, scorer *fraud.Service, version string) *Handler {
	return &Handler{
		ledger:  svc,
		repo:    repo,
		cache:   cache,
		screen:  screen,
		scorer:  scorer,
		version: version,
	}
}

// CreateTransaction handles POST /transactions.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	tx, err := h.ledger.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransaction) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("failed to create transaction", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to create transaction",
		})
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

// ListTransactions handles GET /transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = parsed
	}

	list, err := h.ledger.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list transactions",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": list,
		"count":        len(list),
	})
}

// GetTransaction handles GET /transactions/{id}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	tx, err := h.ledger.Get(r.Context(), txID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "transaction not found",
			})
			return
		}
		slog.Error("failed to get transaction", "id", txID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get transaction",
		})
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// UpdateStatusRequest is the request body for status transitions.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /transactions/{id}/status.
// Transitions to success run the fraud check; a suspicious transaction is
// recorded as failed and the verdict is returned.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "id")
	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	res, err := h.ledger.Transition(r.Context(), txID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "transaction not found",
			})
		case errors.Is(err, domain.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": err.Error(),
			})
		default:
			slog.Error("failed to update status", "id", txID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to update status",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ListRules handles GET /screening/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.ListScreeningRules(r.Context())
	if err != nil {
		slog.Error("failed to list screening rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list screening rules",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  rules,
		"count":  len(rules),
		"loaded": h.screen.RulesCount(),
	})
}

// CreateRule handles POST /screening/rules. The expression is compiled
// before the rule is persisted so a bad rule never reaches the database.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.ScreeningRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if rule.ID == "" || rule.Name == "" || rule.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, name, and expression are required",
		})
		return
	}

	if err := h.screen.LoadRule(&rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid rule expression: " + err.Error(),
		})
		return
	}

	if err := h.repo.SaveScreeningRule(r.Context(), &rule); err != nil {
		slog.Error("failed to save screening rule", "id", rule.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save screening rule",
		})
		return
	}

	slog.Info("screening rule created", "id", rule.ID)
	writeJSON(w, http.StatusCreated, &rule)
}

// ReloadRules handles POST /screening/rules/reload.
func (h *Handler) ReloadRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.ListScreeningRules(r.Context())
	if err != nil {
		slog.Error("failed to load screening rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load screening rules",
		})
		return
	}

	if err := h.screen.ReloadRules(rules); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload screening rules: " + err.Error(),
		})
		return
	}

	slog.Info("screening rules reloaded", "count", h.screen.RulesCount())
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "screening rules reloaded",
		"count":   h.screen.RulesCount(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	modelLoaded := false
	if h.scorer != nil {
		modelLoaded = h.scorer.Loaded()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"version":      h.version,
		"model_loaded": modelLoaded,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
