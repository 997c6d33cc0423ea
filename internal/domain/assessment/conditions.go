package assessment

import (
	"sort"
	"strings"
	"sync"
)

// Facts are the case attributes a condition predicate can inspect.
type Facts struct {
	CaseType string
	Summary  string
	Themes   []string
}

// Predicate decides whether a condition holds for a case.
type Predicate func(Facts) bool

// KeywordPredicate matches when any keyword occurs, case-insensitively, in
// the case summary.
func KeywordPredicate(keywords ...string) Predicate {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	return func(f Facts) bool {
		summary := strings.ToLower(f.Summary)
		for _, k := range kws {
			if strings.Contains(summary, k) {
				return true
			}
		}
		return false
	}
}

// SubstringPredicate is the default for unregistered condition names: the
// condition text itself must occur in the summary or the case type.  It is
// permissive on purpose and can produce false positives for short
// conditions.
func SubstringPredicate(condition string) Predicate {
	return func(f Facts) bool {
		return containsFold(f.Summary, condition) || containsFold(f.CaseType, condition)
	}
}

// DefaultConditionKeywords is the built-in condition table.
var DefaultConditionKeywords = map[string][]string{
	"termination_within_protected_period": {"termination", "dismissal", "fired", "protected"},
	"discrimination_evidence":             {"discriminat", "harass", "hostile", "bias"},
	"whistleblower_retaliation":           {"whistleblow", "retaliat", "protected disclosure", "reported misconduct"},
	"unpaid_compensation":                 {"unpaid", "wages", "overtime", "salary", "compensation"},
	"notice_period_violation":             {"without notice", "no notice", "immediate dismissal", "notice period"},
	"breach_of_contract":                  {"breach", "violated", "failed to perform", "non-performance"},
	"confidentiality_breach":              {"confidential", "trade secret", "nda", "disclosed"},
	"non_compete_dispute":                 {"non-compete", "noncompete", "restrictive covenant", "competitor"},
	"documented_damages":                  {"damages", "financial loss", "invoice", "lost profits"},
	"negligence_injury":                   {"negligence", "negligent", "injury", "accident"},
	"benefits_denied":                     {"benefits", "pension", "insurance", "denied"},
}

// ConditionRegistry maps condition names to predicates.  Names that are not
// registered fall through to SubstringPredicate.  It is safe for concurrent
// use.
type ConditionRegistry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewConditionRegistry returns a registry preloaded with
// DefaultConditionKeywords.
func NewConditionRegistry() *ConditionRegistry {
	r := NewEmptyConditionRegistry()
	for name, kws := range DefaultConditionKeywords {
		r.Register(name, KeywordPredicate(kws...))
	}
	return r
}

// NewEmptyConditionRegistry returns a registry with only the substring
// fallback.
func NewEmptyConditionRegistry() *ConditionRegistry {
	return &ConditionRegistry{predicates: make(map[string]Predicate)}
}

// Register installs or replaces the predicate for name.
func (r *ConditionRegistry) Register(name string, p Predicate) {
	if name == "" || p == nil {
		return
	}
	r.mu.Lock()
	r.predicates[name] = p
	r.mu.Unlock()
}

// RegisterKeywords is Register with a KeywordPredicate.
func (r *ConditionRegistry) RegisterKeywords(name string, keywords ...string) {
	r.Register(name, KeywordPredicate(keywords...))
}

// Lookup returns the predicate registered for name.
func (r *ConditionRegistry) Lookup(name string) (Predicate, bool) {
	r.mu.RLock()
	p, ok := r.predicates[name]
	r.mu.RUnlock()
	return p, ok
}

// Names lists registered condition names in sorted order.
func (r *ConditionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.predicates))
	for n := range r.predicates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Matches evaluates condition against facts, using the registered predicate
// when there is one and the substring fallback otherwise.
func (r *ConditionRegistry) Matches(condition string, facts Facts) bool {
	if p, ok := r.Lookup(condition); ok {
		return p(facts)
	}
	return SubstringPredicate(condition)(facts)
}

//Personal.AI order the ending
