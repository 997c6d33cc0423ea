package assessment

import (
	"fmt"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// ModerateNodeID is the node used when a decision tree cannot be traversed.
// A playbook may define its own node under this id; otherwise
// builtinModerateNode is used.
const ModerateNodeID = "moderate_case"

var builtinModerateNode = legalcase.DecisionNode{
	ID:            ModerateNodeID,
	Question:      "Moderate case assessment",
	Result:        "moderate case",
	MonetaryRange: DefaultMonetaryTier,
	RecommendedActions: []string{
		"Gather additional supporting documentation",
		"Consider early negotiation or mediation",
	},
}

// Navigator walks a playbook decision tree from the root to a leaf.
//
// A tree must be fully specified to be traversed: every node reachable from
// the root is either a leaf with a result or a branch with a condition and
// both edges, and the graph has no cycles.  Trees that fail this check are
// not traversed at all; the navigator returns the moderate assessment node
// with Fallback set and the reason recorded.  An edge pointing at a missing
// node is an error (ErrCodeDecisionNodeNotFound).
type Navigator struct {
	registry *ConditionRegistry
}

// NewNavigator builds a Navigator that evaluates branch conditions through
// registry.  A nil registry means the default one.
func NewNavigator(registry *ConditionRegistry) *Navigator {
	if registry == nil {
		registry = NewConditionRegistry()
	}
	return &Navigator{registry: registry}
}

// Navigate selects the outcome node for facts.
func (n *Navigator) Navigate(tree legalcase.DecisionTree, facts Facts) (legalcase.DecisionPathResult, error) {
	if tree.IsEmpty() || tree.Root == "" {
		return fallbackResult(tree, "decision tree has no root node"), nil
	}
	if reason, err := validateTree(tree); err != nil {
		return legalcase.DecisionPathResult{}, err
	} else if reason != "" {
		return fallbackResult(tree, reason), nil
	}

	path := []string{}
	id := tree.Root
	for {
		node := tree.Nodes[id]
		path = append(path, id)
		if node.IsLeaf() {
			return resultFor(id, node, path), nil
		}
		if n.registry.Matches(node.Condition, facts) {
			id = node.Yes
		} else {
			id = node.No
		}
	}
}

// validateTree returns a non-empty reason when the tree lacks branching
// data, or an error when an edge references a missing node.
func validateTree(tree legalcase.DecisionTree) (string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(tree.Nodes))

	var visit func(id string) (string, error)
	visit = func(id string) (string, error) {
		node, ok := tree.Nodes[id]
		if !ok {
			return "", errors.Newf(errors.ErrCodeDecisionNodeNotFound, "decision node %q not found", id)
		}
		switch state[id] {
		case visiting:
			return fmt.Sprintf("decision tree contains a cycle through %q", id), nil
		case done:
			return "", nil
		}
		state[id] = visiting

		if node.IsLeaf() {
			if node.Result == "" {
				return fmt.Sprintf("leaf node %q has no result", id), nil
			}
		} else {
			if node.Condition == "" {
				return fmt.Sprintf("branch node %q has no condition", id), nil
			}
			if node.Yes == "" || node.No == "" {
				return fmt.Sprintf("branch node %q is missing an edge", id), nil
			}
			for _, next := range []string{node.Yes, node.No} {
				if reason, err := visit(next); err != nil || reason != "" {
					return reason, err
				}
			}
		}
		state[id] = done
		return "", nil
	}
	return visit(tree.Root)
}

func fallbackResult(tree legalcase.DecisionTree, reason string) legalcase.DecisionPathResult {
	node := builtinModerateNode
	if custom, ok := tree.Nodes[ModerateNodeID]; ok && custom.IsLeaf() && custom.Result != "" {
		node = custom
	}
	res := resultFor(ModerateNodeID, node, []string{ModerateNodeID})
	res.Fallback = true
	res.FallbackReason = reason
	return res
}

func resultFor(id string, node legalcase.DecisionNode, path []string) legalcase.DecisionPathResult {
	actions := make([]string, len(node.RecommendedActions))
	copy(actions, node.RecommendedActions)
	return legalcase.DecisionPathResult{
		NodeID:             id,
		Path:               path,
		Result:             node.Result,
		MonetaryRange:      node.MonetaryRange,
		RecommendedActions: actions,
	}
}

//Personal.AI order the ending
