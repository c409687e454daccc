// Package forest implements a bagged ensemble of binary classification
// trees. Fitting and prediction are fully deterministic for a fixed seed,
// and a fitted forest survives a JSON round-trip with bit-identical
// predictions.
package forest

import (
	"math"
	"math/rand"
)

// Default fitting parameters.
const (
	DefaultNumTrees = 200
	DefaultMaxDepth = 12
	DefaultSeed     = 42
)

// Params controls ensemble fitting.
type Params struct {
	// NumTrees is the ensemble size.
	NumTrees int

	// MaxDepth bounds individual tree growth.
	MaxDepth int

	// Seed drives bootstrap sampling and per-split feature selection.
	Seed int64
}

// DefaultParams returns the standard fitting configuration.
func DefaultParams() Params {
	return Params{
		NumTrees: DefaultNumTrees,
		MaxDepth: DefaultMaxDepth,
		Seed:     DefaultSeed,
	}
}

// Forest is a fitted ensemble. Immutable after Fit; safe for concurrent
// prediction.
type Forest struct {
	Trees       []*Node `json:"trees"`
	NumFeatures int     `json:"numFeatures"`
}

// Fit trains an ensemble on feature matrix X and binary labels y. Each
// tree is grown on a bootstrap sample (drawn with replacement) and
// considers sqrt(d) features per split. An empty X yields a degenerate
// forest that always predicts class 0; the caller is expected to warn
// about that, not fail.
func Fit(X [][]float64, y []int, p Params) *Forest {
	if p.NumTrees <= 0 {
		p.NumTrees = DefaultNumTrees
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = DefaultMaxDepth
	}

	numFeatures := 0
	if len(X) > 0 {
		numFeatures = len(X[0])
	}
	maxFeatures := int(math.Sqrt(float64(numFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rng := rand.New(rand.NewSource(p.Seed))

	f := &Forest{
		Trees:       make([]*Node, 0, p.NumTrees),
		NumFeatures: numFeatures,
	}

	n := len(X)
	for i := 0; i < p.NumTrees; i++ {
		// Per-tree generator seeded from the master stream keeps trees
		// independent of each other while staying reproducible.
		treeRng := rand.New(rand.NewSource(rng.Int63()))

		if n == 0 {
			f.Trees = append(f.Trees, &Node{Leaf: true, Class: 0})
			continue
		}

		sample := make([]int, n)
		for j := range sample {
			sample[j] = treeRng.Intn(n)
		}

		f.Trees = append(f.Trees, buildTree(X, y, sample, 0, p.MaxDepth, maxFeatures, treeRng))
	}

	return f
}

// Predict returns the majority-vote class for a single sample.
func (f *Forest) Predict(x []float64) int {
	if f.PredictProba(x) > 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the fraction of trees voting class 1, which serves
// as the fraud probability score.
func (f *Forest) PredictProba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	votes := 0
	for _, tree := range f.Trees {
		votes += tree.predict(x)
	}
	return float64(votes) / float64(len(f.Trees))
}

// PredictBatch predicts a class per row, order-preserving.
func (f *Forest) PredictBatch(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

// Valid reports whether the forest can serve predictions for vectors of
// the given width. Used by the model store to reject corrupt artifacts.
func (f *Forest) Valid(numFeatures int) bool {
	if len(f.Trees) == 0 {
		return false
	}
	return f.NumFeatures == 0 || f.NumFeatures == numFeatures
}
