package forest

import (
	"math/rand"
	"sort"
)

// Node is one node of a binary classification tree. Internal nodes route a
// sample left when sample[Feature] <= Threshold; leaves carry the majority
// class of the training samples that reached them.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      *Node   `json:"l,omitempty"`
	Right     *Node   `json:"r,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Class     int     `json:"c"`
}

// predict routes a sample down the tree to a leaf class.
func (n *Node) predict(x []float64) int {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

// buildTree grows a CART tree on the given sample indices using Gini
// impurity. At each split a random subset of maxFeatures candidate
// features is considered, which is what de-correlates the trees of the
// ensemble.
func buildTree(X [][]float64, y []int, idx []int, depth, maxDepth, maxFeatures int, rng *rand.Rand) *Node {
	if len(idx) == 0 {
		return &Node{Leaf: true, Class: 0}
	}

	majority, pure := majorityClass(y, idx)
	if pure || depth >= maxDepth || len(idx) < 2 {
		return &Node{Leaf: true, Class: majority}
	}

	feature, threshold, ok := bestSplit(X, y, idx, maxFeatures, rng)
	if !ok {
		return &Node{Leaf: true, Class: majority}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &Node{Leaf: true, Class: majority}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, y, left, depth+1, maxDepth, maxFeatures, rng),
		Right:     buildTree(X, y, right, depth+1, maxDepth, maxFeatures, rng),
	}
}

// bestSplit searches candidate features for the split with the lowest
// weighted Gini impurity. Thresholds are midpoints between consecutive
// distinct feature values.
func bestSplit(X [][]float64, y []int, idx []int, maxFeatures int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(X[idx[0]])
	candidates := rng.Perm(numFeatures)
	if maxFeatures < len(candidates) {
		candidates = candidates[:maxFeatures]
	}
	// Deterministic tie-breaking regardless of permutation order.
	sort.Ints(candidates)

	bestGini := gini(y, idx)
	bestFeature, bestThreshold := -1, 0.0
	found := false

	values := make([]float64, 0, len(idx))
	for _, f := range candidates {
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			g := splitGini(X, y, idx, f, threshold)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// splitGini computes the weighted Gini impurity of a candidate split.
func splitGini(X [][]float64, y []int, idx []int, feature int, threshold float64) float64 {
	var leftN, leftPos, rightN, rightPos int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftN++
			leftPos += y[i]
		} else {
			rightN++
			rightPos += y[i]
		}
	}

	total := float64(leftN + rightN)
	return float64(leftN)/total*binaryGini(leftPos, leftN) +
		float64(rightN)/total*binaryGini(rightPos, rightN)
}

// gini computes the Gini impurity of a sample subset.
func gini(y []int, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	return binaryGini(pos, len(idx))
}

func binaryGini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// majorityClass returns the dominant class and whether the subset is pure.
// Ties break toward class 0.
func majorityClass(y []int, idx []int) (int, bool) {
	pos := 0
	for _, i := range idx {
		pos += y[i]
	}
	majority := 0
	if pos*2 > len(idx) {
		majority = 1
	}
	pure := pos == 0 || pos == len(idx)
	return majority, pure
}
