package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
)

func newTestRepository(t *testing.T) domain.Repository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransaction(id string) *domain.Transaction {
	return &domain.Transaction{
		ID:            id,
		Amount:        1250.50,
		SenderUPIID:   "alice@upi",
		ReceiverUPIID: "bob@upi",
		SenderName:    "Alice",
		ReceiverName:  "Bob",
		SenderPhone:   "9876543210",
		ReceiverPhone: "9123456780",
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		Status:        domain.StatusPending,
	}
}

func TestRepositoryPing(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSaveAndGetTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := testTransaction("TX001")
	if err := repo.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "TX001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if got.ID != tx.ID {
		t.Errorf("id = %q, want %q", got.ID, tx.ID)
	}
	if got.Amount != tx.Amount {
		t.Errorf("amount = %v, want %v", got.Amount, tx.Amount)
	}
	if got.SenderUPIID != tx.SenderUPIID {
		t.Errorf("sender = %q, want %q", got.SenderUPIID, tx.SenderUPIID)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %q, want %q", got.Status, domain.StatusPending)
	}
	if got.FraudFlag != nil || got.FraudScore != nil {
		t.Errorf("expected nil fraud verdict on new transaction, got flag=%v score=%v", got.FraudFlag, got.FraudScore)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetTransaction(context.Background(), "NOPE")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"TX001", "TX002", "TX003"} {
		tx := testTransaction(id)
		tx.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	list, err := repo.ListTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(list))
	}
	// Newest first
	if list[0].ID != "TX003" {
		t.Errorf("expected TX003 first, got %s", list[0].ID)
	}

	limited, err := repo.ListTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("limited list failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(limited))
	}
}

func TestUpdateTransactionStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := testTransaction("TX100")
	if err := repo.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	flag := true
	score := 0.87
	if err := repo.UpdateTransactionStatus(ctx, "TX100", domain.StatusFailed, &flag, &score); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "TX100")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Errorf("status = %q, want %q", got.Status, domain.StatusFailed)
	}
	if got.FraudFlag == nil || !*got.FraudFlag {
		t.Errorf("fraud_flag = %v, want true", got.FraudFlag)
	}
	if got.FraudScore == nil || *got.FraudScore != 0.87 {
		t.Errorf("fraud_score = %v, want 0.87", got.FraudScore)
	}
}

func TestUpdateTransactionStatusOnlyOnce(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := testTransaction("TX200")
	if err := repo.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := repo.UpdateTransactionStatus(ctx, "TX200", domain.StatusSuccess, nil, nil); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	// A transaction in a terminal state must not move again.
	err := repo.UpdateTransactionStatus(ctx, "TX200", domain.StatusFailed, nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for settled transaction, got %v", err)
	}

	got, err := repo.GetTransaction(ctx, "TX200")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.StatusSuccess {
		t.Errorf("status changed after settlement: %q", got.Status)
	}
}

func TestUpdateTransactionStatusValidation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.UpdateTransactionStatus(ctx, "", domain.StatusSuccess, nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if err := repo.UpdateTransactionStatus(ctx, "TX300", "reversed", nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if err := repo.UpdateTransactionStatus(ctx, "MISSING", domain.StatusSuccess, nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing transaction, got %v", err)
	}
}

func TestCountBySender(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"TX1", "TX2", "TX3"} {
		tx := testTransaction(id)
		tx.Timestamp = now.Add(-time.Duration(i) * time.Hour)
		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	other := testTransaction("TX4")
	other.SenderUPIID = "carol@upi"
	other.Timestamp = now
	if err := repo.SaveTransaction(ctx, other); err != nil {
		t.Fatalf("save TX4 failed: %v", err)
	}

	count, err := repo.CountBySender(ctx, "alice@upi", now.Add(-90*time.Minute))
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestScreeningRuleRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rule := &domain.ScreeningRule{
		ID:         "high-velocity",
		Name:       "High sender velocity",
		Expression: "velocity_count > 10",
		Reason:     "too many transfers in window",
		Enabled:    true,
	}
	if err := repo.SaveScreeningRule(ctx, rule); err != nil {
		t.Fatalf("save rule failed: %v", err)
	}

	disabled := &domain.ScreeningRule{
		ID:         "disabled-rule",
		Name:       "Unused",
		Expression: "amount > 0.0",
		Enabled:    false,
	}
	if err := repo.SaveScreeningRule(ctx, disabled); err != nil {
		t.Fatalf("save disabled rule failed: %v", err)
	}

	rules, err := repo.ListScreeningRules(ctx)
	if err != nil {
		t.Fatalf("list rules failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 enabled rule, got %d", len(rules))
	}
	if rules[0].ID != "high-velocity" || rules[0].Expression != "velocity_count > 10" {
		t.Errorf("unexpected rule: %+v", rules[0])
	}

	// Upsert replaces the expression.
	rule.Expression = "velocity_count > 5"
	if err := repo.SaveScreeningRule(ctx, rule); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	rules, err = repo.ListScreeningRules(ctx)
	if err != nil {
		t.Fatalf("list after upsert failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Expression != "velocity_count > 5" {
		t.Errorf("upsert did not replace expression: %+v", rules)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{"sqlite", "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres", "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres", "INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
	}

	for _, tt := range tests {
		r := &SQLRepository{driver: tt.driver}
		if got := r.rebind(tt.query); got != tt.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", tt.driver, tt.query, got, tt.want)
		}
	}
}
