// Package trainer fits the fraud classifier from historical transaction
// rows and persists the resulting artifact.
package trainer

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/samarth3301/payment-simulator/internal/domain"
	"github.com/samarth3301/payment-simulator/internal/feature"
	"github.com/samarth3301/payment-simulator/internal/forest"
	"github.com/samarth3301/payment-simulator/internal/model"
)

// Options controls a training run.
type Options struct {
	// Params are handed to the forest fitter.
	Params forest.Params

	// SplitSeed keys the train/test partition assignment.
	SplitSeed int64

	// TestRatio is the held-out fraction.
	TestRatio float64
}

// DefaultOptions mirrors the original training script: 80/20 split, 200
// trees, everything keyed to seed 42.
func DefaultOptions() Options {
	return Options{
		Params:    forest.DefaultParams(),
		SplitSeed: 42,
		TestRatio: 0.2,
	}
}

// Train encodes the rows, derives labels from the suspicion rule, fits the
// ensemble on an 80/20 split and evaluates the held-out partition. The
// model is always produced; degenerate inputs only add report warnings.
// Encoding failures (malformed timestamps) abort the run.
func Train(rows []domain.TrainingRow, opts Options) (*model.Artifact, *Report, error) {
	vectors, enc, err := feature.EncodeBatch(rows)
	if err != nil {
		return nil, nil, err
	}

	X := make([][]float64, len(vectors))
	y := make([]int, len(vectors))
	positives := 0
	for i, v := range vectors {
		X[i] = v.Vector()
		y[i] = feature.Label(v.Amount, v.Hour)
		positives += y[i]
	}

	report := &Report{TotalRows: len(rows)}
	if len(rows) == 0 {
		report.Warnings = append(report.Warnings, "empty training batch; model is degenerate")
	} else if positives == 0 || positives == len(rows) {
		report.Warnings = append(report.Warnings, "all labels collapse to one class; model is degenerate")
	}
	for _, w := range report.Warnings {
		slog.Warn("training input is degenerate", "detail", w, "rows", len(rows), "positives", positives)
	}

	trainIdx, testIdx := split(len(rows), opts.TestRatio, opts.SplitSeed)
	report.TrainRows = len(trainIdx)
	report.TestRows = len(testIdx)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = X[idx]
		trainY[i] = y[idx]
	}

	fitted := forest.Fit(trainX, trainY, opts.Params)

	// Held-out evaluation, diagnostic only.
	testTrue := make([]int, len(testIdx))
	testPred := make([]int, len(testIdx))
	for i, idx := range testIdx {
		testTrue[i] = y[idx]
		testPred[i] = fitted.Predict(X[idx])
	}
	report.Classes, report.Accuracy = classificationReport(testTrue, testPred)

	artifact := &model.Artifact{
		Version:   model.ArtifactVersion,
		TrainedAt: time.Now().UTC(),
		Params:    opts.Params,
		Encoding:  enc,
		Forest:    fitted,
	}

	return artifact, report, nil
}

// TrainAndSave runs Train and persists the artifact. Artifact write
// failures are fatal to the job; there is no partial-training recovery.
func TrainAndSave(rows []domain.TrainingRow, path string, opts Options) (*Report, error) {
	artifact, report, err := Train(rows, opts)
	if err != nil {
		return nil, err
	}
	if err := model.Save(artifact, path); err != nil {
		return nil, err
	}
	slog.Info("model saved", "path", path, "rows", report.TotalRows, "accuracy", report.Accuracy)
	return report, nil
}

// split partitions [0, n) into train and test index sets with a
// deterministic shuffle keyed by seed.
func split(n int, testRatio float64, seed int64) (train, test []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	testN := int(float64(n) * testRatio)

	test = append(test, perm[:testN]...)
	train = append(train, perm[testN:]...)
	return train, test
}
