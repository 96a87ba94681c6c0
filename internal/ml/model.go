package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Model is a trained binary classifier over a fixed-width feature vector.
type Model interface {
	// Predict returns the class label (1 = landed) and the probability of
	// the positive class.
	Predict(x []float64) (label int, proba float64, err error)

	// NumFeatures returns the expected input width, or -1 if unknown.
	NumFeatures() int

	Version() string
	Close() error
}

// modelFile is the JSON export of a fitted classifier.
type modelFile struct {
	Type         string    `json:"type"`
	Version      string    `json:"version"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Tree         *treeFile `json:"tree,omitempty"`
}

// LoadModel reads a model artifact. ".onnx" files go through ONNX Runtime
// using the shared library at ortLib; everything else is a JSON export.
func LoadModel(path, ortLib string) (Model, error) {
	if strings.EqualFold(filepath.Ext(path), ".onnx") {
		return NewONNXModel(path, ortLib)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	return ParseModel(f)
}

// ParseModel decodes a JSON model export.
func ParseModel(r io.Reader) (Model, error) {
	var mf modelFile
	if err := json.NewDecoder(r).Decode(&mf); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	switch mf.Type {
	case "logistic_regression":
		if len(mf.Coefficients) == 0 {
			return nil, fmt.Errorf("logistic regression model has no coefficients")
		}
		return &LogisticModel{
			Coefficients: mf.Coefficients,
			Intercept:    mf.Intercept,
			version:      mf.Version,
		}, nil
	case "decision_tree":
		if mf.Tree == nil {
			return nil, fmt.Errorf("decision tree model has no tree")
		}
		return newTreeModel(*mf.Tree, mf.Version)
	default:
		return nil, fmt.Errorf("unsupported model type %q", mf.Type)
	}
}

// LogisticModel is a binary logistic regression.
type LogisticModel struct {
	Coefficients []float64
	Intercept    float64
	version      string
}

func (m *LogisticModel) Predict(x []float64) (int, float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, 0, fmt.Errorf("logistic regression expects %d features, got %d", len(m.Coefficients), len(x))
	}
	z := m.Intercept
	for i, w := range m.Coefficients {
		z += w * x[i]
	}
	label := 0
	if z > 0 {
		label = 1
	}
	return label, sigmoid(z), nil
}

func (m *LogisticModel) NumFeatures() int { return len(m.Coefficients) }
func (m *LogisticModel) Version() string  { return m.version }
func (m *LogisticModel) Close() error     { return nil }

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// treeFile mirrors the arrays of a fitted sklearn tree_.
type treeFile struct {
	NFeatures     int         `json:"n_features_in"`
	Classes       []int       `json:"classes"`
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// TreeModel is a CART classification tree. A sample goes left when
// x[feature] <= threshold.
type TreeModel struct {
	tree     treeFile
	positive int
	version  string
}

func newTreeModel(t treeFile, version string) (*TreeModel, error) {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return nil, fmt.Errorf("decision tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return nil, fmt.Errorf("decision tree arrays have mismatched lengths")
	}
	if len(t.Classes) == 0 {
		t.Classes = []int{0, 1}
	}

	positive := -1
	for i, c := range t.Classes {
		if c == 1 {
			positive = i
		}
	}
	if positive < 0 {
		return nil, fmt.Errorf("decision tree has no positive class in %v", t.Classes)
	}

	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 {
			if len(t.Value[i]) != len(t.Classes) {
				return nil, fmt.Errorf("leaf %d has %d class values, want %d", i, len(t.Value[i]), len(t.Classes))
			}
			continue
		}
		if left <= i || right <= i || left >= n || right >= n {
			return nil, fmt.Errorf("node %d has invalid children %d/%d", i, left, right)
		}
		if t.Feature[i] < 0 || (t.NFeatures > 0 && t.Feature[i] >= t.NFeatures) {
			return nil, fmt.Errorf("node %d splits on invalid feature %d", i, t.Feature[i])
		}
	}

	return &TreeModel{tree: t, positive: positive, version: version}, nil
}

func (m *TreeModel) Predict(x []float64) (int, float64, error) {
	if m.tree.NFeatures > 0 && len(x) != m.tree.NFeatures {
		return 0, 0, fmt.Errorf("decision tree expects %d features, got %d", m.tree.NFeatures, len(x))
	}

	node := 0
	for m.tree.ChildrenLeft[node] != -1 {
		f := m.tree.Feature[node]
		if f >= len(x) {
			return 0, 0, fmt.Errorf("decision tree splits on feature %d of %d", f, len(x))
		}
		if x[f] <= m.tree.Threshold[node] {
			node = m.tree.ChildrenLeft[node]
		} else {
			node = m.tree.ChildrenRight[node]
		}
	}

	counts := m.tree.Value[node]
	var total float64
	best := 0
	for i, c := range counts {
		total += c
		if c > counts[best] {
			best = i
		}
	}
	if total <= 0 {
		return 0, 0, fmt.Errorf("decision tree leaf %d is empty", node)
	}
	return m.tree.Classes[best], counts[m.positive] / total, nil
}

func (m *TreeModel) NumFeatures() int {
	if m.tree.NFeatures > 0 {
		return m.tree.NFeatures
	}
	return -1
}

func (m *TreeModel) Version() string { return m.version }
func (m *TreeModel) Close() error    { return nil }
