package ml

import (
	"fmt"
	"math"
)

// Supported ensemble objectives.
const (
	ObjectiveSquaredError = "reg:squarederror"
	ObjectiveSoftProb     = "multi:softprob"
	ObjectiveSoftmax      = "multi:softmax"
)

// EnsembleSpec is the on-disk form of a gradient-boosted tree ensemble.
type EnsembleSpec struct {
	Objective string  `json:"objective"`
	NumClass  int     `json:"num_class,omitempty"`
	BaseScore float64 `json:"base_score"`
	Trees     []Node  `json:"trees"`
}

// Regressor is a gradient-boosted regression ensemble bound to an ordered feature list.
type Regressor struct {
	baseScore float64
	trees     []tree
	features  []string
}

// NewRegressor compiles spec against the declared feature list.
func NewRegressor(spec EnsembleSpec, features []string) (*Regressor, error) {
	if spec.Objective != "" && spec.Objective != ObjectiveSquaredError {
		return nil, fmt.Errorf("%w: unsupported regression objective %q", ErrInvalidModel, spec.Objective)
	}
	trees, err := compileTrees(spec.Trees, features)
	if err != nil {
		return nil, err
	}
	return &Regressor{
		baseScore: spec.BaseScore,
		trees:     trees,
		features:  append([]string(nil), features...),
	}, nil
}

// Features returns the declared feature order.
func (r *Regressor) Features() []string {
	return append([]string(nil), r.features...)
}

// Predict returns the raw ensemble output for one row.
func (r *Regressor) Predict(x []float64) (float64, error) {
	if len(x) != len(r.features) {
		return 0, fmt.Errorf("%w: got %d values, model declares %d", ErrFeatureCount, len(x), len(r.features))
	}
	sum := r.baseScore
	for _, t := range r.trees {
		sum += t.eval(x)
	}
	return sum, nil
}

// Classifier is a multi-class gradient-boosted ensemble. Tree i contributes to class i % NumClass.
type Classifier struct {
	numClass      int
	baseScore     float64
	trees         []tree
	features      []string
	probabilistic bool
}

// NewClassifier compiles spec against the declared feature list.
func NewClassifier(spec EnsembleSpec, features []string) (*Classifier, error) {
	var probabilistic bool
	switch spec.Objective {
	case ObjectiveSoftProb:
		probabilistic = true
	case ObjectiveSoftmax:
		probabilistic = false
	default:
		return nil, fmt.Errorf("%w: unsupported classification objective %q", ErrInvalidModel, spec.Objective)
	}
	if spec.NumClass < 2 {
		return nil, fmt.Errorf("%w: num_class must be at least 2, got %d", ErrInvalidModel, spec.NumClass)
	}
	if len(spec.Trees)%spec.NumClass != 0 {
		return nil, fmt.Errorf("%w: %d trees is not a multiple of num_class %d", ErrInvalidModel, len(spec.Trees), spec.NumClass)
	}
	trees, err := compileTrees(spec.Trees, features)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		numClass:      spec.NumClass,
		baseScore:     spec.BaseScore,
		trees:         trees,
		features:      append([]string(nil), features...),
		probabilistic: probabilistic,
	}, nil
}

// NumClass returns the number of output classes.
func (c *Classifier) NumClass() int {
	return c.numClass
}

// Features returns the declared feature order.
func (c *Classifier) Features() []string {
	return append([]string(nil), c.features...)
}

// PredictProba returns per-class probabilities for one row.
// Returns ErrProbabilitiesUnsupported for models exported with multi:softmax.
func (c *Classifier) PredictProba(x []float64) ([]float64, error) {
	if !c.probabilistic {
		return nil, ErrProbabilitiesUnsupported
	}
	margins, err := c.margins(x)
	if err != nil {
		return nil, err
	}
	return softmax(margins), nil
}

// Predict returns the most likely class. Ties resolve to the lowest class index.
func (c *Classifier) Predict(x []float64) (int, error) {
	margins, err := c.margins(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for i := 1; i < len(margins); i++ {
		if margins[i] > margins[best] {
			best = i
		}
	}
	return best, nil
}

func (c *Classifier) margins(x []float64) ([]float64, error) {
	if len(x) != len(c.features) {
		return nil, fmt.Errorf("%w: got %d values, model declares %d", ErrFeatureCount, len(x), len(c.features))
	}
	margins := make([]float64, c.numClass)
	for i := range margins {
		margins[i] = c.baseScore
	}
	for i, t := range c.trees {
		margins[i%c.numClass] += t.eval(x)
	}
	return margins, nil
}

func softmax(margins []float64) []float64 {
	maxMargin := math.Inf(-1)
	for _, m := range margins {
		if m > maxMargin {
			maxMargin = m
		}
	}
	out := make([]float64, len(margins))
	var sum float64
	for i, m := range margins {
		out[i] = math.Exp(m - maxMargin)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func compileTrees(nodes []Node, features []string) ([]tree, error) {
	index, err := featureIndex(features)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	trees := make([]tree, 0, len(nodes))
	for i := range nodes {
		t, err := compileTree(&nodes[i], index)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, t)
	}
	return trees, nil
}
