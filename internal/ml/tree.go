// Package ml evaluates pretrained models exported as JSON: gradient-boosted
// tree ensembles in the XGBoost JSON dump shape and a k-means partition.
package ml

import (
	"errors"
	"fmt"
	"math"
)

// Model errors.
var (
	// ErrInvalidModel indicates a malformed model artifact.
	ErrInvalidModel = errors.New("invalid model")
	// ErrUnknownFeature indicates a tree split on a feature the model does not declare.
	ErrUnknownFeature = errors.New("tree references undeclared feature")
	// ErrFeatureCount indicates an input vector whose length differs from the declared feature list.
	ErrFeatureCount = errors.New("feature count mismatch")
	// ErrProbabilitiesUnsupported indicates a classifier exported without probabilistic output.
	ErrProbabilitiesUnsupported = errors.New("model does not support probability output")
)

// Node is a tree node as written by XGBoost's JSON dump.
// Leaf nodes carry Leaf; split nodes carry Split, SplitCondition, Yes, No, Missing and Children.
type Node struct {
	NodeID         int      `json:"nodeid"`
	Split          string   `json:"split,omitempty"`
	SplitCondition float64  `json:"split_condition,omitempty"`
	Yes            int      `json:"yes,omitempty"`
	No             int      `json:"no,omitempty"`
	Missing        int      `json:"missing,omitempty"`
	Leaf           *float64 `json:"leaf,omitempty"`
	Children       []Node   `json:"children,omitempty"`
}

type compiledNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
}

// tree is a flattened decision tree. Index 0 is the root.
type tree struct {
	nodes []compiledNode
}

// compileTree flattens a nested dump tree, resolving feature names against index.
func compileTree(root *Node, index map[string]int) (tree, error) {
	positions := make(map[int]int)
	var flat []*Node

	var walk func(n *Node) error
	walk = func(n *Node) error {
		if _, dup := positions[n.NodeID]; dup {
			return fmt.Errorf("%w: duplicate node id %d", ErrInvalidModel, n.NodeID)
		}
		positions[n.NodeID] = len(flat)
		flat = append(flat, n)
		for i := range n.Children {
			if err := walk(&n.Children[i]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return tree{}, err
	}

	t := tree{nodes: make([]compiledNode, len(flat))}
	for i, n := range flat {
		if n.Leaf != nil {
			if len(n.Children) > 0 {
				return tree{}, fmt.Errorf("%w: leaf node %d has children", ErrInvalidModel, n.NodeID)
			}
			t.nodes[i] = compiledNode{leaf: true, value: *n.Leaf}
			continue
		}

		feature, ok := index[n.Split]
		if !ok {
			return tree{}, fmt.Errorf("%w: %q", ErrUnknownFeature, n.Split)
		}
		yes, okYes := positions[n.Yes]
		no, okNo := positions[n.No]
		if !okYes || !okNo {
			return tree{}, fmt.Errorf("%w: node %d has unresolved children", ErrInvalidModel, n.NodeID)
		}
		// Node 0 is always the root, so a zero Missing means the field was absent.
		missing := yes
		if n.Missing != 0 {
			m, ok := positions[n.Missing]
			if !ok {
				return tree{}, fmt.Errorf("%w: node %d has unresolved missing branch", ErrInvalidModel, n.NodeID)
			}
			missing = m
		}
		t.nodes[i] = compiledNode{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       yes,
			no:        no,
			missing:   missing,
		}
	}

	if err := t.checkAcyclic(); err != nil {
		return tree{}, err
	}
	return t, nil
}

// checkAcyclic verifies every path from the root terminates in a leaf.
func (t tree) checkAcyclic() error {
	state := make([]uint8, len(t.nodes)) // 0 unvisited, 1 on stack, 2 done
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case 1:
			return fmt.Errorf("%w: cycle at node index %d", ErrInvalidModel, i)
		case 2:
			return nil
		}
		state[i] = 1
		n := t.nodes[i]
		if !n.leaf {
			for _, next := range []int{n.yes, n.no, n.missing} {
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		state[i] = 2
		return nil
	}
	return visit(0)
}

// eval walks the tree for x. Values below the threshold take the yes branch, NaN takes missing.
func (t tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = n.missing
		case v < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
}

// featureIndex maps feature names to column positions, rejecting duplicates.
func featureIndex(features []string) (map[string]int, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: empty feature list", ErrInvalidModel)
	}
	index := make(map[string]int, len(features))
	for i, name := range features {
		if name == "" {
			return nil, fmt.Errorf("%w: empty feature name at position %d", ErrInvalidModel, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, name)
		}
		index[name] = i
	}
	return index, nil
}
