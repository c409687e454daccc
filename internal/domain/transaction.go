package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAmount is the upper bound for a single UPI transaction (1 lakh rupees).
const MaxAmount = 100000.0

// Transaction statuses. A transaction starts at pending and moves to
// success or failed exactly once; success and failed are terminal.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transaction is a simulated UPI payment held in the ledger.
type Transaction struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`

	SenderUPIID   string `json:"sender_upi_id"`
	ReceiverUPIID string `json:"receiver_upi_id"`
	SenderName    string `json:"sender_name"`
	ReceiverName  string `json:"receiver_name"`
	SenderPhone   string `json:"sender_phone"`
	ReceiverPhone string `json:"receiver_phone"`

	// Timestamp has second precision; sub-second components are truncated
	// on creation.
	Timestamp time.Time `json:"timestamp"`

	Status string `json:"status"`

	// FraudFlag and FraudScore are nil until a transition to success is
	// attempted; they are always set together.
	FraudFlag  *bool    `json:"fraud_flag"`
	FraudScore *float64 `json:"fraud_score"`
}

// IsTerminal reports whether the transaction can no longer change status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// CreateTransactionRequest is the API request payload for transaction submission.
type CreateTransactionRequest struct {
	Amount        float64 `json:"amount"`
	SenderUPIID   string  `json:"sender_upi_id"`
	ReceiverUPIID string  `json:"receiver_upi_id"`
	SenderName    string  `json:"sender_name"`
	ReceiverName  string  `json:"receiver_name"`
	SenderPhone   string  `json:"sender_phone"`
	ReceiverPhone string  `json:"receiver_phone"`
}

// Validate checks required fields and the amount range.
func (r *CreateTransactionRequest) Validate() error {
	required := []struct {
		field, value string
	}{
		{"sender_upi_id", r.SenderUPIID},
		{"receiver_upi_id", r.ReceiverUPIID},
		{"sender_name", r.SenderName},
		{"receiver_name", r.ReceiverName},
		{"sender_phone", r.SenderPhone},
		{"receiver_phone", r.ReceiverPhone},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidTransaction, f.field)
		}
	}
	if r.Amount <= 0 || r.Amount > MaxAmount {
		return fmt.Errorf("%w: amount must be between 1 and %.0f rupees", ErrInvalidTransaction, MaxAmount)
	}
	return nil
}

// ToTransaction converts a request to a pending ledger transaction.
// IDs follow the original simulator format: the first 16 characters of a
// UUID, uppercased.
func (r *CreateTransactionRequest) ToTransaction() *Transaction {
	return &Transaction{
		ID:            NewTransactionID(),
		Amount:        r.Amount,
		SenderUPIID:   r.SenderUPIID,
		ReceiverUPIID: r.ReceiverUPIID,
		SenderName:    r.SenderName,
		ReceiverName:  r.ReceiverName,
		SenderPhone:   r.SenderPhone,
		ReceiverPhone: r.ReceiverPhone,
		Timestamp:     time.Now().UTC().Truncate(time.Second),
		Status:        StatusPending,
	}
}

// NewTransactionID generates an opaque 16-character transaction ID.
func NewTransactionID() string {
	return strings.ToUpper(uuid.New().String()[:16])
}

// ValidStatus reports whether s is a known transaction status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusSuccess || s == StatusFailed
}
