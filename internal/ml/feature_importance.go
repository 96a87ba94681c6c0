package ml

import (
	"math"
	"sort"
)

// FeatureWeight is the relative influence of one schema column on the
// loaded model.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Share  float64 `json:"share"`
}

// FeatureImportance ranks the schema columns by how much the model relies
// on them, most important first. Logistic models use the absolute
// coefficient in scaler space, trees the number of splits per column.
// Models without inspectable parameters return nil.
func FeatureImportance(a *Artifacts) []FeatureWeight {
	if a == nil || a.Scaler == nil {
		return nil
	}
	columns := a.Scaler.Schema().Columns()

	var weights []float64
	switch m := a.Model.(type) {
	case *LogisticModel:
		weights = make([]float64, len(m.Coefficients))
		for i, w := range m.Coefficients {
			weights[i] = math.Abs(w)
		}
	case *TreeModel:
		weights = make([]float64, len(columns))
		for i, left := range m.tree.ChildrenLeft {
			if left == -1 {
				continue
			}
			if f := m.tree.Feature[i]; f < len(weights) {
				weights[f]++
			}
		}
	default:
		return nil
	}

	if len(weights) != len(columns) {
		return nil
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	result := make([]FeatureWeight, len(columns))
	for i, name := range columns {
		result[i] = FeatureWeight{Name: name, Weight: weights[i]}
		if total > 0 {
			result[i].Share = weights[i] / total
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})
	return result
}

// TopFeatures returns the names of the n most important columns.
func TopFeatures(a *Artifacts, n int) []string {
	ranked := FeatureImportance(a)
	if n > len(ranked) {
		n = len(ranked)
	}
	names := make([]string, 0, n)
	for _, fw := range ranked[:n] {
		names = append(names, fw.Name)
	}
	return names
}
