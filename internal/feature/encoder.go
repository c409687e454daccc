// Package feature turns raw transaction records into the fixed-order
// numeric vectors the fraud classifier consumes. The same encoding must be
// applied at training and at serving time; the trained category mapping is
// persisted inside the model artifact for that reason.
package feature

import (
	"fmt"
	"sort"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
)

// unknownPlaceholder is used for fields the serving path does not have
// (the ledger does not capture state or city on live transactions).
const unknownPlaceholder = "Unknown"

// Encoding is the frozen category-to-code mapping produced by a training
// batch. Codes are dense integers assigned in sorted order of the distinct
// values seen during training. Values never seen at training time map to
// the unseen bucket: one past the highest trained code.
type Encoding struct {
	Senders   map[string]int `json:"senders"`
	Receivers map[string]int `json:"receivers"`
	States    map[string]int `json:"states"`
	Cities    map[string]int `json:"cities"`
}

// SenderCode returns the trained code for a sender UPI ID, or the unseen
// bucket for identifiers the training batch never contained.
func (e *Encoding) SenderCode(v string) int   { return code(e.Senders, v) }
func (e *Encoding) ReceiverCode(v string) int { return code(e.Receivers, v) }
func (e *Encoding) StateCode(v string) int    { return code(e.States, v) }
func (e *Encoding) CityCode(v string) int     { return code(e.Cities, v) }

func code(m map[string]int, v string) int {
	if c, ok := m[v]; ok {
		return c
	}
	return len(m)
}

// EncodeBatch encodes an ordered batch of training rows, one feature
// vector per row. Category codes are scoped to this batch; the returned
// Encoding freezes them for reuse at serving time.
func EncodeBatch(rows []domain.TrainingRow) ([]domain.FeatureVector, *Encoding, error) {
	enc := &Encoding{
		Senders:   buildCodes(rows, func(r domain.TrainingRow) string { return r.SenderUPI }),
		Receivers: buildCodes(rows, func(r domain.TrainingRow) string { return r.ReceiverUPI }),
		States:    buildCodes(rows, func(r domain.TrainingRow) string { return r.State }),
		Cities:    buildCodes(rows, func(r domain.TrainingRow) string { return r.City }),
	}

	vectors := make([]domain.FeatureVector, 0, len(rows))
	for i, row := range rows {
		hour, err := ParseHour(row.Timestamp)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d (%s): %w", i, row.ID, err)
		}
		vectors = append(vectors, domain.FeatureVector{
			Amount:       row.Amount,
			Hour:         hour,
			SenderCode:   enc.Senders[row.SenderUPI],
			ReceiverCode: enc.Receivers[row.ReceiverUPI],
			StateCode:    enc.States[row.State],
			CityCode:     enc.Cities[row.City],
		})
	}

	return vectors, enc, nil
}

// EncodeTransaction encodes a single ledger transaction for scoring using
// the frozen training-time mapping. The ledger carries no state or city,
// so those columns take the same placeholder the original data pipeline
// used for live records.
func EncodeTransaction(tx *domain.Transaction, enc *Encoding) domain.FeatureVector {
	return domain.FeatureVector{
		Amount:       tx.Amount,
		Hour:         tx.Timestamp.Hour(),
		SenderCode:   enc.SenderCode(tx.SenderUPIID),
		ReceiverCode: enc.ReceiverCode(tx.ReceiverUPIID),
		StateCode:    enc.StateCode(unknownPlaceholder),
		CityCode:     enc.CityCode(unknownPlaceholder),
	}
}

// ParseHour extracts the hour component from a DD-MM-YYYY HH:MM timestamp.
func ParseHour(ts string) (int, error) {
	t, err := time.Parse(domain.TimestampLayout, ts)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedTimestamp, ts)
	}
	return t.Hour(), nil
}

// buildCodes assigns dense integer codes to the distinct values of one
// column, in sorted order.
func buildCodes(rows []domain.TrainingRow, get func(domain.TrainingRow) string) map[string]int {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[get(r)] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	codes := make(map[string]int, len(values))
	for i, v := range values {
		codes[v] = i
	}
	return codes
}
