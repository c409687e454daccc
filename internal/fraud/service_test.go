package fraud

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/trainer"
)

func trainedModelPath(t *testing.T) string {
	t.Helper()

	var rows []domain.TrainingRow
	for i := 0; i < 25; i++ {
		rows = append(rows, domain.TrainingRow{
			ID: "ok", Amount: 300 + float64(i)*200,
			SenderUPI: "regular@upi", ReceiverUPI: "shop@upi",
			Timestamp: "12-05-2024 13:00", State: "Karnataka", City: "Bengaluru",
		})
	}
	for i := 0; i < 25; i++ {
		rows = append(rows, domain.TrainingRow{
			ID: "hot", Amount: 56000 + float64(i)*1500,
			SenderUPI: "whale@upi", ReceiverUPI: "mule@upi",
			Timestamp: "12-05-2024 23:45", State: "Delhi", City: "New Delhi",
		})
	}

	path := filepath.Join(t.TempDir(), "fraud_model.json")
	if _, err := trainer.TrainAndSave(rows, path, trainer.DefaultOptions()); err != nil {
		t.Fatalf("TrainAndSave failed: %v", err)
	}
	return path
}

func sampleTx(amount float64, hour int) *domain.Transaction {
	return &domain.Transaction{
		ID:            "TX-TEST",
		Amount:        amount,
		SenderUPIID:   "someone@upi",
		ReceiverUPIID: "else@upi",
		Timestamp:     time.Date(2024, 5, 13, hour, 30, 0, 0, time.UTC),
		Status:        domain.StatusPending,
	}
}

func TestScoreFailOpenWithoutModel(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "missing.json"))

	v := svc.Score(context.Background(), sampleTx(70000, 23))

	if v.IsSuspicious {
		t.Error("expected fail-open not-suspicious verdict")
	}
	if v.Score != nil {
		t.Errorf("expected nil score, got %v", *v.Score)
	}
	if svc.Loaded() {
		t.Error("service must stay unloaded when no model exists")
	}
}

func TestScoreFailOpenWithCorruptModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fraud_model.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	svc := NewService(path)
	v := svc.Score(context.Background(), sampleTx(70000, 23))

	if v.IsSuspicious || v.Score != nil {
		t.Errorf("expected fail-open verdict, got %+v", v)
	}
}

func TestScoreLoadedModel(t *testing.T) {
	svc := NewService(trainedModelPath(t))
	ctx := context.Background()

	t.Run("HighAmountFlagged", func(t *testing.T) {
		v := svc.Score(ctx, sampleTx(70000, 14))
		if !v.IsSuspicious {
			t.Error("expected high-amount transaction to be suspicious")
		}
		if v.Score == nil || *v.Score <= 0.5 {
			t.Errorf("expected score above threshold, got %v", v.Score)
		}
	})

	t.Run("NormalTransactionPasses", func(t *testing.T) {
		v := svc.Score(ctx, sampleTx(450, 14))
		if v.IsSuspicious {
			t.Error("expected normal transaction to pass")
		}
		if v.Score == nil {
			t.Error("expected a concrete score from a loaded model")
		}
	})

	t.Run("StaysLoaded", func(t *testing.T) {
		if !svc.Loaded() {
			t.Error("service must stay loaded after first score")
		}
	})
}

func TestScoreDeterministic(t *testing.T) {
	svc := NewService(trainedModelPath(t))
	ctx := context.Background()
	tx := sampleTx(82000, 10)

	first := svc.Score(ctx, tx)
	second := svc.Score(ctx, tx)

	if first.IsSuspicious != second.IsSuspicious {
		t.Error("identical input produced different verdicts")
	}
	if *first.Score != *second.Score {
		t.Errorf("identical input produced different scores: %f vs %f", *first.Score, *second.Score)
	}
}

func TestScoreModelAppearsAfterStartup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fraud_model.json")

	svc := NewService(path)
	ctx := context.Background()

	if v := svc.Score(ctx, sampleTx(70000, 23)); v.Score != nil {
		t.Fatal("expected nil score before the model exists")
	}

	// Train the model after the first (failed) load attempt.
	src := trainedModelPath(t)
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if v := svc.Score(ctx, sampleTx(70000, 23)); v.Score == nil {
		t.Error("expected the service to pick up a model written after startup")
	}
}

func TestScoreConcurrentFirstLoad(t *testing.T) {
	svc := NewService(trainedModelPath(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	verdicts := make([]domain.Verdict, 16)
	for i := range verdicts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			verdicts[i] = svc.Score(ctx, sampleTx(91000, 2))
		}(i)
	}
	wg.Wait()

	for i, v := range verdicts {
		if !v.IsSuspicious || v.Score == nil {
			t.Errorf("goroutine %d got %+v, want a suspicious verdict", i, v)
		}
	}
}
