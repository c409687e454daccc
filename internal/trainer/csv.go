package trainer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/samarth3301/payment-simulator/internal/domain"
)

// Training CSV column order, matching the original dataset export:
// transaction id, amount, sender UPI, receiver UPI, timestamp, state, city.
const numColumns = 7

// CSVHeader is the expected header row of a training file.
var CSVHeader = []string{
	"Transaction ID",
	"Amount",
	"Sender UPI ID",
	"Receiver UPI ID",
	"Timestamp",
	"State",
	"City",
}

// LoadCSV reads a training file wholesale into memory. The first row is
// treated as a header and skipped.
func LoadCSV(path string) ([]domain.TrainingRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training file: %w", err)
	}
	defer f.Close()

	return ReadRows(f)
}

// ReadRows parses training rows from CSV data.
func ReadRows(r io.Reader) ([]domain.TrainingRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = numColumns

	// Header row.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []domain.TrainingRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		amount, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, record[1], err)
		}

		rows = append(rows, domain.TrainingRow{
			ID:          record[0],
			Amount:      amount,
			SenderUPI:   record[2],
			ReceiverUPI: record[3],
			Timestamp:   record[4],
			State:       record[5],
			City:        record[6],
		})
	}

	return rows, nil
}
