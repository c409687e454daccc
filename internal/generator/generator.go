// Package generator produces synthetic UPI transaction datasets for
// training and load testing.
package generator

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/feature"
)

// Config controls dataset generation.
type Config struct {
	// NumRows is the number of transactions to generate.
	NumRows int

	// NumUsers is the size of the synthetic UPI handle pool.
	NumUsers int

	// SuspiciousRatio is the fraction of rows generated with a high
	// amount or an odd hour.
	SuspiciousRatio float64

	// Seed makes generation deterministic when non-zero.
	Seed int64

	// Start anchors the timestamp range; rows are spread over the 90
	// days before it.
	Start time.Time
}

// DefaultConfig returns a dataset sized for a quick training run.
func DefaultConfig() Config {
	return Config{
		NumRows:         5000,
		NumUsers:        200,
		SuspiciousRatio: 0.2,
	}
}

// Generator produces synthetic training rows.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	users []user
}

type user struct {
	upiID string
	state string
	city  string
}

var banks = []string{"oksbi", "okhdfc", "okicici", "okaxis", "ybl", "paytm"}

var regions = []struct {
	state  string
	cities []string
}{
	{"Maharashtra", []string{"Mumbai", "Pune", "Nagpur"}},
	{"Karnataka", []string{"Bengaluru", "Mysuru", "Mangaluru"}},
	{"Delhi", []string{"New Delhi"}},
	{"Tamil Nadu", []string{"Chennai", "Coimbatore", "Madurai"}},
	{"West Bengal", []string{"Kolkata", "Durgapur"}},
	{"Gujarat", []string{"Ahmedabad", "Surat", "Vadodara"}},
	{"Telangana", []string{"Hyderabad", "Warangal"}},
	{"Rajasthan", []string{"Jaipur", "Udaipur", "Jodhpur"}},
	{"Uttar Pradesh", []string{"Lucknow", "Kanpur", "Varanasi"}},
	{"Kerala", []string{"Kochi", "Thiruvananthapuram"}},
}

var givenNames = []string{
	"aarav", "vivaan", "aditya", "arjun", "ishaan", "kabir", "rohan",
	"ananya", "diya", "isha", "kavya", "meera", "priya", "sneha",
	"rahul", "vikram", "nikhil", "pooja", "neha", "amit",
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumRows <= 0 {
		cfg.NumRows = def.NumRows
	}
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.SuspiciousRatio < 0 || cfg.SuspiciousRatio > 1 {
		cfg.SuspiciousRatio = def.SuspiciousRatio
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().UTC()
	}

	g := &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
	g.users = g.buildUsers()
	return g
}

func (g *Generator) buildUsers() []user {
	users := make([]user, g.cfg.NumUsers)
	for i := range users {
		name := givenNames[g.rand.Intn(len(givenNames))]
		bank := banks[g.rand.Intn(len(banks))]
		region := regions[g.rand.Intn(len(regions))]
		users[i] = user{
			upiID: fmt.Sprintf("%s%03d@%s", name, i, bank),
			state: region.state,
			city:  region.cities[g.rand.Intn(len(region.cities))],
		}
	}
	return users
}

// Generate synthesises training rows. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]domain.TrainingRow, error) {
	rows := make([]domain.TrainingRow, g.cfg.NumRows)

	for i := 0; i < g.cfg.NumRows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		senderIdx := g.rand.Intn(len(g.users))
		receiverIdx := g.rand.Intn(len(g.users))
		if senderIdx == receiverIdx {
			receiverIdx = (receiverIdx + 1) % len(g.users)
		}
		sender := g.users[senderIdx]
		receiver := g.users[receiverIdx]

		amount, hour := g.amountAndHour()
		ts := g.timestampAt(hour)

		rows[i] = domain.TrainingRow{
			ID:          fmt.Sprintf("TXN%07d", i+1),
			Amount:      amount,
			SenderUPI:   sender.upiID,
			ReceiverUPI: receiver.upiID,
			Timestamp:   ts.Format(domain.TimestampLayout),
			State:       sender.state,
			City:        sender.city,
		}
	}

	return rows, nil
}

// amountAndHour draws a (amount, hour) pair. A suspicious draw gets a
// high amount, an odd hour, or both; a normal draw stays inside daytime
// hours and below the high-amount threshold.
func (g *Generator) amountAndHour() (float64, int) {
	if g.rand.Float64() < g.cfg.SuspiciousRatio {
		switch g.rand.Intn(3) {
		case 0:
			return g.highAmount(), g.daytimeHour()
		case 1:
			return g.normalAmount(), g.oddHour()
		default:
			return g.highAmount(), g.oddHour()
		}
	}
	return g.normalAmount(), g.daytimeHour()
}

func (g *Generator) normalAmount() float64 {
	return float64(g.rand.Intn(4999900)+100) / 100 // 1.00 .. 50000.00
}

func (g *Generator) highAmount() float64 {
	return float64(g.rand.Intn(4999900)+5000100) / 100 // 50001.00 .. 100000.00
}

func (g *Generator) daytimeHour() int {
	return 6 + g.rand.Intn(17) // 06..22
}

func (g *Generator) oddHour() int {
	odd := []int{23, 0, 1, 2, 3, 4, 5}
	return odd[g.rand.Intn(len(odd))]
}

func (g *Generator) timestampAt(hour int) time.Time {
	day := g.rand.Intn(90)
	minute := g.rand.Intn(60)
	base := g.cfg.Start.AddDate(0, 0, -day)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, time.UTC)
}

// WriteCSV writes rows as a training CSV, creating parent directories as
// needed. The column order matches what the trainer expects.
func WriteCSV(rows []domain.TrainingRow, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Transaction ID", "Amount", "Sender UPI ID", "Receiver UPI ID", "Timestamp", "State", "City"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.ID,
			strconv.FormatFloat(row.Amount, 'f', 2, 64),
			row.SenderUPI,
			row.ReceiverUPI,
			row.Timestamp,
			row.State,
			row.City,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// LabelStats summarises how rows split under the labelling rule.
type LabelStats struct {
	Total      int
	Suspicious int
}

// Stats labels rows the way the trainer will and reports the split.
func Stats(rows []domain.TrainingRow) (LabelStats, error) {
	stats := LabelStats{Total: len(rows)}
	for _, row := range rows {
		hour, err := feature.ParseHour(row.Timestamp)
		if err != nil {
			return LabelStats{}, err
		}
		if feature.Label(row.Amount, hour) == 1 {
			stats.Suspicious++
		}
	}
	return stats, nil
}
