package domain

// TimestampLayout is the fixed parsing format for training data timestamps
// (day-month-year, 24-hour clock, minute precision).
const TimestampLayout = "02-01-2006 15:04"

// TrainingRow is one decoded record from the training CSV.
type TrainingRow struct {
	ID          string
	Amount      float64
	SenderUPI   string
	ReceiverUPI string
	// Timestamp is the raw DD-MM-YYYY HH:MM string; the encoder parses it.
	Timestamp string
	State     string
	City      string
}

// FeatureVector is the fixed-order numeric encoding of one transaction.
// The order of Vector() is load-bearing: the classifier is trained and
// queried against exactly [amount, hour, sender, receiver, state, city].
type FeatureVector struct {
	Amount       float64
	Hour         int
	SenderCode   int
	ReceiverCode int
	StateCode    int
	CityCode     int
}

// Vector returns the feature values in training order.
func (f FeatureVector) Vector() []float64 {
	return []float64{
		f.Amount,
		float64(f.Hour),
		float64(f.SenderCode),
		float64(f.ReceiverCode),
		float64(f.StateCode),
		float64(f.CityCode),
	}
}

// NumFeatures is the width of every feature vector.
const NumFeatures = 6

// Verdict is the fraud scoring result consumed by the transaction
// lifecycle handler. Score is nil when no model was available.
type Verdict struct {
	IsSuspicious bool     `json:"is_suspicious"`
	Score        *float64 `json:"score"`
}
