//go:build integration
// +build integration

// Package integration provides end-to-end tests for the payment
// simulator ledger.
//
// These tests exercise the COMPLETE transaction lifecycle over HTTP:
//
//	Submit → Pending → Status transition → Fraud check → Settled
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The tests expect a running server (default http://localhost:8080,
// override with LEDGER_TEST_URL). Scoring behavior depends on whether a
// model artifact is present at the server's configured path:
//
//   - No model: scoring fails open, every transition to success settles.
//   - Trained model: high amounts and odd-hour transactions are forced
//     to failed with fraud_flag=true.
//
// Generate a model first with:
//
//	go run ./cmd/datagen -rows 5000 -seed 42 -output data/transactions.csv
//	go run ./cmd/train -csv data/transactions.csv -model model/fraud_model.json
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

func baseURL() string {
	if url := os.Getenv("LEDGER_TEST_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

var client = &http.Client{Timeout: 10 * time.Second}

type transaction struct {
	ID         string   `json:"id"`
	Amount     float64  `json:"amount"`
	Status     string   `json:"status"`
	FraudFlag  *bool    `json:"fraud_flag"`
	FraudScore *float64 `json:"fraud_score"`
}

type transitionResult struct {
	Transaction transaction `json:"transaction"`
	Verdict     *struct {
		IsSuspicious bool     `json:"is_suspicious"`
		Score        *float64 `json:"score"`
	} `json:"verdict"`
}

func postJSON(t *testing.T, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}

	resp, err := client.Post(baseURL()+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s failed: %v", path, err)
		}
	}
	return resp.StatusCode
}

func getJSON(t *testing.T, path string, out any) int {
	t.Helper()

	resp, err := client.Get(baseURL() + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response from %s failed: %v", path, err)
		}
	}
	return resp.StatusCode
}

func createBody(amount float64) map[string]any {
	return map[string]any{
		"amount":          amount,
		"sender_upi_id":   "itest-sender@upi",
		"receiver_upi_id": "itest-receiver@upi",
		"sender_name":     "Integration Sender",
		"receiver_name":   "Integration Receiver",
		"sender_phone":    "9000000001",
		"receiver_phone":  "9000000002",
	}
}

func createTransaction(t *testing.T, amount float64) transaction {
	t.Helper()

	var tx transaction
	code := postJSON(t, "/transactions", createBody(amount), &tx)
	if code != http.StatusCreated {
		t.Fatalf("create returned %d, want 201", code)
	}
	if tx.ID == "" {
		t.Fatal("created transaction has no id")
	}
	return tx
}

func TestHealth(t *testing.T) {
	var resp map[string]any
	code := getJSON(t, "/health", &resp)
	if code != http.StatusOK {
		t.Fatalf("health returned %d", code)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
	t.Logf("server version %v, model_loaded=%v", resp["version"], resp["model_loaded"])
}

func TestSubmitAndLookup(t *testing.T) {
	tx := createTransaction(t, 1234.56)

	if tx.Status != "pending" {
		t.Errorf("status = %q, want pending", tx.Status)
	}
	if tx.FraudFlag != nil || tx.FraudScore != nil {
		t.Error("new transaction must not carry a fraud verdict")
	}

	var got transaction
	code := getJSON(t, "/transactions/"+tx.ID, &got)
	if code != http.StatusOK {
		t.Fatalf("get returned %d", code)
	}
	if got.ID != tx.ID || got.Amount != 1234.56 {
		t.Errorf("lookup mismatch: %+v", got)
	}
}

func TestAmountValidation(t *testing.T) {
	for _, amount := range []float64{0, -5, 100001} {
		code := postJSON(t, "/transactions", createBody(amount), nil)
		if code != http.StatusBadRequest {
			t.Errorf("amount %v: status %d, want 400", amount, code)
		}
	}
}

func TestLifecycle(t *testing.T) {
	tx := createTransaction(t, 2000)

	var res transitionResult
	code := postJSON(t, fmt.Sprintf("/transactions/%s/status", tx.ID),
		map[string]string{"status": "success"}, &res)
	if code != http.StatusOK {
		t.Fatalf("transition returned %d", code)
	}

	// Small amount at whatever hour the test runs: only an odd-hour run
	// with a trained model can legitimately block this one.
	if res.Transaction.Status != "success" && res.Transaction.Status != "failed" {
		t.Fatalf("settled status = %q", res.Transaction.Status)
	}
	if res.Transaction.FraudFlag == nil {
		t.Error("settled transaction missing fraud_flag")
	}

	// A settled transaction never transitions again.
	code = postJSON(t, fmt.Sprintf("/transactions/%s/status", tx.ID),
		map[string]string{"status": "failed"}, nil)
	if code != http.StatusConflict {
		t.Errorf("second transition returned %d, want 409", code)
	}
}

func TestDirectFailure(t *testing.T) {
	tx := createTransaction(t, 900)

	var res transitionResult
	code := postJSON(t, fmt.Sprintf("/transactions/%s/status", tx.ID),
		map[string]string{"status": "failed"}, &res)
	if code != http.StatusOK {
		t.Fatalf("transition returned %d", code)
	}
	if res.Transaction.Status != "failed" {
		t.Errorf("status = %q, want failed", res.Transaction.Status)
	}
	if res.Verdict != nil {
		t.Errorf("direct failure must not be scored: %+v", res.Verdict)
	}
}

func TestUnknownTransaction(t *testing.T) {
	code := postJSON(t, "/transactions/DOESNOTEXIST0000/status",
		map[string]string{"status": "success"}, nil)
	if code != http.StatusNotFound {
		t.Errorf("status %d, want 404", code)
	}
}

func TestScreeningRuleManagement(t *testing.T) {
	rule := map[string]any{
		"id":         "itest-high-velocity",
		"name":       "Integration velocity rule",
		"expression": "velocity_count > 1000",
		"reason":     "integration test rule",
		"enabled":    true,
	}
	code := postJSON(t, "/screening/rules", rule, nil)
	if code != http.StatusCreated {
		t.Fatalf("create rule returned %d", code)
	}

	var resp struct {
		Rules []map[string]any `json:"rules"`
		Count int              `json:"count"`
	}
	code = getJSON(t, "/screening/rules", &resp)
	if code != http.StatusOK {
		t.Fatalf("list rules returned %d", code)
	}

	found := false
	for _, r := range resp.Rules {
		if r["id"] == "itest-high-velocity" {
			found = true
		}
	}
	if !found {
		t.Error("created rule not listed")
	}

	code = postJSON(t, "/screening/rules/reload", nil, nil)
	if code != http.StatusOK {
		t.Errorf("reload returned %d", code)
	}
}
