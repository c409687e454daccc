// Trainer CLI: fits the fraud classifier from a transaction CSV and
// writes the model artifact the scoring service loads.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/logging"
	"github.com/samarth3301/payment-simulator/internal/trainer"
)

func main() {
	opts := trainer.DefaultOptions()
	var (
		csvPath   = flag.String("csv", "./data/transactions.csv", "path to the training CSV")
		modelPath = flag.String("model", "./model/fraud_model.json", "output path for the model artifact")
		trees     = flag.Int("trees", opts.Params.NumTrees, "number of trees in the ensemble")
		maxDepth  = flag.Int("max-depth", opts.Params.MaxDepth, "maximum tree depth")
		seed      = flag.Int64("seed", opts.Params.Seed, "seed for bagging and feature selection")
		splitSeed = flag.Int64("split-seed", opts.SplitSeed, "seed for the train/test partition")
		testRatio = flag.Float64("test-ratio", opts.TestRatio, "held-out fraction for evaluation")
		logLevel  = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	slog.SetDefault(logging.New(domain.LoggingConfig{Level: *logLevel, Format: "text"}))

	opts.Params.NumTrees = *trees
	opts.Params.MaxDepth = *maxDepth
	opts.Params.Seed = *seed
	opts.SplitSeed = *splitSeed
	opts.TestRatio = *testRatio

	rows, err := trainer.LoadCSV(*csvPath)
	if err != nil {
		slog.Error("failed to load training data", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	slog.Info("training data loaded", "path", *csvPath, "rows", len(rows))

	report, err := trainer.TrainAndSave(rows, *modelPath, opts)
	if err != nil {
		slog.Error("training failed", "error", err)
		os.Exit(1)
	}

	slog.Info("model saved", "path", *modelPath)
	fmt.Println(report.String())
}
