package assessment

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

// Recommendation categories.
const (
	CategoryRiskManagement     = "Risk Management"
	CategoryLegalPrecedents    = "Legal Precedents"
	CategoryStrategicAction    = "Strategic Action"
	CategoryTimelineManagement = "Timeline Management"
)

const (
	maxNamedRisks       = 3
	maxStrategicActions = 2
)

// timelineLayouts are the date formats accepted in document key dates.
var timelineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseTimelineDate parses a key date in any of the accepted layouts.
func ParseTimelineDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timelineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Synthesize builds the strategic recommendations.  They are emitted in a
// fixed order (risks, precedent, decision-path actions, upcoming deadline)
// and are not re-sorted by priority afterwards.  now decides which timeline
// dates are still ahead; dates are compared by calendar day and unparseable
// dates are skipped.
func Synthesize(summary *legalcase.CaseDocumentSummary, research *legalcase.ResearchAnalysis, path *legalcase.DecisionPathResult, now time.Time) []legalcase.Recommendation {
	recs := []legalcase.Recommendation{}

	if summary != nil && len(summary.PotentialRisks) > 0 {
		named := firstN(summary.PotentialRisks, maxNamedRisks)
		recs = append(recs, legalcase.Recommendation{
			Category:       CategoryRiskManagement,
			Priority:       legalcase.PriorityHigh,
			Recommendation: "Address identified risks: " + strings.Join(named, ", "),
			Basis:          "Document analysis identified potential issues",
		})
	}

	if research != nil {
		for _, item := range research.TopRelevant {
			if bucket, ok := NormalizeCategory(item.Category); ok && bucket == legalcase.CategoryPrecedents {
				recs = append(recs, legalcase.Recommendation{
					Category:       CategoryLegalPrecedents,
					Priority:       legalcase.PriorityMedium,
					Recommendation: fmt.Sprintf("Review precedent: %s", precedentName(item)),
					Basis:          "High relevance to case facts",
				})
				break
			}
		}
	}

	if path != nil {
		for i, action := range path.RecommendedActions {
			if i >= maxStrategicActions {
				break
			}
			recs = append(recs, legalcase.Recommendation{
				Category:       CategoryStrategicAction,
				Priority:       legalcase.PriorityHigh,
				Recommendation: action,
				Basis:          "Playbook decision path analysis",
			})
		}
	}

	if summary != nil {
		today := truncateDay(now)
		for _, entry := range summary.Timeline {
			t, ok := ParseTimelineDate(entry.Date)
			if !ok || !truncateDay(t).After(today) {
				continue
			}
			recs = append(recs, legalcase.Recommendation{
				Category:       CategoryTimelineManagement,
				Priority:       legalcase.PriorityHigh,
				Recommendation: fmt.Sprintf("Prepare for upcoming deadline: %s", entry.Date),
				Basis:          entry.Description,
			})
			break
		}
	}

	return recs
}

func precedentName(item legalcase.CorpusItem) string {
	if item.Title != "" {
		return item.Title
	}
	return item.ID
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

//Personal.AI order the ending
