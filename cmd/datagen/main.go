// Datagen CLI: produces a synthetic UPI transaction CSV for training.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/samarth3301/payment-simulator/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		rows       = flag.Int("rows", cfg.NumRows, "number of transactions to generate")
		users      = flag.Int("users", cfg.NumUsers, "size of the synthetic UPI handle pool")
		suspicious = flag.Float64("suspicious-ratio", cfg.SuspiciousRatio, "fraction of rows drawn with a high amount or odd hour")
		seed       = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output     = flag.String("output", "./data/transactions.csv", "path to write the training CSV")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumRows:         *rows,
		NumUsers:        *users,
		SuspiciousRatio: *suspicious,
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(genCfg)
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if err := generator.WriteCSV(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	stats, err := generator.Stats(dataset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to compute stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d transactions (%d suspicious under the labelling rule) into %s\n",
		stats.Total, stats.Suspicious, *output)
}
