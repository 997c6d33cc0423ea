// Package assessment implements the playbook-driven case assessment engine:
// document aggregation, research ranking, rule evaluation, decision-tree
// navigation, monetary assessment, strength scoring and recommendation
// synthesis.  Every function here is deterministic and free of I/O apart
// from the injected corpus and playbook lookups.
package assessment

import (
	"math"
	"strings"
)

// clamp01 restricts v to [0, 1].  NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// containsFold reports whether substr occurs in s, ignoring case.  An empty
// substr never matches.
func containsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// orderedSet accumulates distinct non-empty strings in first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *orderedSet) len() int { return len(s.items) }

func (s *orderedSet) has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// firstN returns at most n leading elements of xs as a new slice.
func firstN(xs []string, n int) []string {
	if len(xs) > n {
		xs = xs[:n]
	}
	out := make([]string, len(xs))
	copy(out, xs)
	return out
}

//Personal.AI order the ending
