package assessment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordPredicate(t *testing.T) {
	p := KeywordPredicate("Fired", " ", "dismissal")
	assert.True(t, p(Facts{Summary: "He was FIRED on Monday"}))
	assert.True(t, p(Facts{Summary: "summary dismissal"}))
	assert.False(t, p(Facts{Summary: "resigned voluntarily"}))
	assert.False(t, p(Facts{CaseType: "fired"}))
}

func TestSubstringPredicate(t *testing.T) {
	p := SubstringPredicate("Wrongful")
	assert.True(t, p(Facts{Summary: "a wrongful dismissal"}))
	assert.True(t, p(Facts{CaseType: "wrongful termination"}))
	assert.False(t, p(Facts{Summary: "fair dismissal"}))
	assert.False(t, SubstringPredicate("")(Facts{Summary: "anything"}))
}

func TestConditionRegistry_Defaults(t *testing.T) {
	r := NewConditionRegistry()
	names := r.Names()
	assert.Len(t, names, len(DefaultConditionKeywords))
	assert.Contains(t, names, "termination_within_protected_period")

	assert.True(t, r.Matches("termination_within_protected_period", Facts{Summary: "dismissal during leave"}))
	assert.False(t, r.Matches("termination_within_protected_period", Facts{Summary: "contract dispute"}))
}

func TestConditionRegistry_FallbackIsSubstring(t *testing.T) {
	r := NewEmptyConditionRegistry()
	assert.Empty(t, r.Names())
	assert.True(t, r.Matches("late payment", Facts{Summary: "repeated late payment of rent"}))
	assert.False(t, r.Matches("late payment", Facts{Summary: "on time"}))
}

func TestConditionRegistry_Register(t *testing.T) {
	r := NewEmptyConditionRegistry()
	r.Register("has_themes", func(f Facts) bool { return len(f.Themes) > 0 })
	r.RegisterKeywords("mentions_nda", "nda")
	r.Register("", func(Facts) bool { return true })
	r.Register("nil_predicate", nil)

	assert.Equal(t, []string{"has_themes", "mentions_nda"}, r.Names())
	assert.True(t, r.Matches("has_themes", Facts{Themes: []string{"notice"}}))
	assert.True(t, r.Matches("mentions_nda", Facts{Summary: "Signed an NDA"}))

	_, ok := r.Lookup("nil_predicate")
	assert.False(t, ok)
}

func TestConditionRegistry_Override(t *testing.T) {
	r := NewConditionRegistry()
	r.Register("breach_of_contract", func(f Facts) bool { return strings.HasPrefix(f.Summary, "X") })
	assert.False(t, r.Matches("breach_of_contract", Facts{Summary: "material breach"}))
	assert.True(t, r.Matches("breach_of_contract", Facts{Summary: "X"}))
}

//Personal.AI order the ending
