package assessment

import (
	"context"
	"sort"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// FactsFor builds the predicate input for a case and its document summary.
func FactsFor(c *legalcase.Case, summary *legalcase.CaseDocumentSummary) Facts {
	f := Facts{CaseType: c.CaseType, Summary: c.FactText()}
	if summary != nil {
		f.Themes = summary.Themes
	}
	return f
}

// RuleEngine evaluates playbook rules against case facts.
type RuleEngine struct {
	registry *ConditionRegistry
}

// NewRuleEngine builds a RuleEngine.  A nil registry means the default one.
func NewRuleEngine(registry *ConditionRegistry) *RuleEngine {
	if registry == nil {
		registry = NewConditionRegistry()
	}
	return &RuleEngine{registry: registry}
}

// Registry exposes the condition registry shared with the navigator.
func (e *RuleEngine) Registry() *ConditionRegistry { return e.registry }

// Evaluate tests every rule of pb.  Rules are independent; matched rules are
// returned ordered by descending weight, ties in playbook order.  Weights are
// clamped to [0, 1] before they are summed.
func (e *RuleEngine) Evaluate(facts Facts, pb *legalcase.Playbook) legalcase.RuleEvaluation {
	eval := legalcase.RuleEvaluation{AppliedRules: []legalcase.PlaybookRule{}}
	if pb == nil {
		return eval
	}
	eval.PlaybookID = pb.ID
	eval.RulesEvaluated = len(pb.Rules)

	for _, rule := range pb.Rules {
		if !e.registry.Matches(rule.Condition, facts) {
			continue
		}
		applied := rule
		applied.Weight = clamp01(rule.Weight)
		eval.AppliedRules = append(eval.AppliedRules, applied)
		eval.TotalWeight += applied.Weight
	}
	sort.SliceStable(eval.AppliedRules, func(i, j int) bool {
		return eval.AppliedRules[i].Weight > eval.AppliedRules[j].Weight
	})
	eval.RulesMatched = len(eval.AppliedRules)
	return eval
}

// PlaybookResolver finds the playbook that serves a case.
type PlaybookResolver struct {
	repo legalcase.PlaybookRepository
}

// NewPlaybookResolver builds a resolver over repo.
func NewPlaybookResolver(repo legalcase.PlaybookRepository) *PlaybookResolver {
	return &PlaybookResolver{repo: repo}
}

// Resolve returns the playbook for c.  The assigned playbook id is tried
// first and accepted only when its case type equals the case's; otherwise
// all playbooks are scanned for an exact case-type match.
func (r *PlaybookResolver) Resolve(ctx context.Context, c *legalcase.Case) (*legalcase.Playbook, error) {
	if !c.HasPlaybookAssignment() {
		return nil, errors.NoPlaybookAssigned(c.ID)
	}

	pb, err := r.repo.GetPlaybook(ctx, c.PlaybookID)
	if err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeDatabaseError, "failed to load playbook "+c.PlaybookID)
	}
	if pb != nil && pb.CaseType == c.CaseType {
		return pb, nil
	}

	all, err := r.repo.ListPlaybooks(ctx)
	if err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeDatabaseError, "failed to list playbooks")
	}
	for i := range all {
		if all[i].CaseType == c.CaseType {
			return &all[i], nil
		}
	}
	return nil, errors.PlaybookNotFound(c.CaseType)
}

//Personal.AI order the ending
