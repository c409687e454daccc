package trainer

import "fmt"

// ClassMetrics holds standard classification quality numbers for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report summarizes a training run. Metrics are diagnostic only and never
// gate whether the model is persisted.
type Report struct {
	TotalRows int `json:"totalRows"`
	TrainRows int `json:"trainRows"`
	TestRows  int `json:"testRows"`

	Accuracy float64                 `json:"accuracy"`
	Classes  map[string]ClassMetrics `json:"classes"`

	// Warnings flag degenerate conditions (empty input, single-class
	// labels) that still produce a model.
	Warnings []string `json:"warnings,omitempty"`
}

// classificationReport computes per-class precision, recall and F1 for
// binary labels.
func classificationReport(yTrue, yPred []int) (map[string]ClassMetrics, float64) {
	classes := make(map[string]ClassMetrics, 2)
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}

	for _, class := range []int{0, 1} {
		var tp, fp, fn, support int
		for i := range yTrue {
			if yTrue[i] == class {
				support++
				if yPred[i] == class {
					tp++
				} else {
					fn++
				}
			} else if yPred[i] == class {
				fp++
			}
		}

		m := ClassMetrics{Support: support}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		classes[className(class)] = m
	}

	accuracy := 0.0
	if len(yTrue) > 0 {
		accuracy = float64(correct) / float64(len(yTrue))
	}
	return classes, accuracy
}

func className(class int) string {
	if class == 1 {
		return "suspicious"
	}
	return "not_suspicious"
}

// String renders the report in the familiar tabular layout.
func (r *Report) String() string {
	s := fmt.Sprintf("rows: %d (train %d / test %d)\n", r.TotalRows, r.TrainRows, r.TestRows)
	s += fmt.Sprintf("accuracy: %.3f\n", r.Accuracy)
	s += fmt.Sprintf("%-16s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support")
	for _, name := range []string{"not_suspicious", "suspicious"} {
		m := r.Classes[name]
		s += fmt.Sprintf("%-16s %9.3f %9.3f %9.3f %9d\n", name, m.Precision, m.Recall, m.F1, m.Support)
	}
	for _, w := range r.Warnings {
		s += "warning: " + w + "\n"
	}
	return s
}
