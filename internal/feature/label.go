package feature

// Label thresholds. The classifier is trained against this rule-derived
// signal; the source data carries no ground-truth fraud label.
const (
	highAmountThreshold = 50000.0
	lateHourStart       = 23
	earlyHourEnd        = 5
)

// Label assigns the binary training label for one transaction row.
// Precedence: unusually high amount first, then odd-hour activity.
// A rare-counterparty rule for mule account detection was considered and
// deliberately left out; the signal here is a bootstrap, not an oracle.
func Label(amount float64, hour int) int {
	if amount > highAmountThreshold {
		return 1
	}
	if hour >= lateHourStart || hour <= earlyHourEnd {
		return 1
	}
	return 0
}
