package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

// analysisView renders a CaseAnalysisResult.  JSON output is the result
// itself.
type analysisView struct {
	result *legalcase.CaseAnalysisResult
}

func (v analysisView) MarshalJSON() ([]byte, error) { return json.Marshal(v.result) }

func (v analysisView) String() string {
	r := v.result
	a := r.CaseAssessment
	var sb strings.Builder

	fmt.Fprintf(&sb, "Case:        %s (%s)\n", r.CaseInfo.Title, r.CaseID)
	fmt.Fprintf(&sb, "Case type:   %s\n", orDash(r.CaseInfo.CaseType))
	fmt.Fprintf(&sb, "Analyzed at: %s\n", r.AnalysisTimestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Assessment:  %s (score %.2f, confidence %s)\n",
		colorizeLevel(a.AssessmentLevel), a.OverallScore, colorizeConfidence(a.Confidence))
	fmt.Fprintf(&sb, "Components:  documents %.2f  research %.2f  playbook %.2f\n",
		a.ComponentScores.DocumentScore, a.ComponentScores.ResearchScore, a.ComponentScores.PlaybookScore)

	doc := r.DocumentAnalysis
	if doc.NoDocuments() {
		fmt.Fprintf(&sb, "Documents:   none (%s)\n", orDash(doc.Message))
	} else {
		fmt.Fprintf(&sb, "Documents:   %d analyzed, %d key dates, %d potential risks\n",
			doc.TotalDocuments, len(doc.KeyDates), len(doc.PotentialRisks))
	}
	fmt.Fprintf(&sb, "Research:    %d relevant items\n", r.ResearchAnalysis.TotalFound)

	pb := r.PlaybookAnalysis
	switch {
	case pb.Error != "":
		fmt.Fprintf(&sb, "Playbook:    %s\n", color.YellowString("%s", pb.Error))
	case pb.RuleEvaluation != nil:
		fmt.Fprintf(&sb, "Playbook:    %s, %d/%d rules matched\n",
			pb.PlaybookID, pb.RuleEvaluation.RulesMatched, pb.RuleEvaluation.RulesEvaluated)
	}
	if pb.DecisionPath != nil {
		fmt.Fprintf(&sb, "Outcome:     %s\n", pb.DecisionPath.Result)
	}
	if m := pb.MonetaryAssessment; m != nil {
		fmt.Fprintf(&sb, "Monetary:    %s %.0f - %.0f\n", m.Tier, m.Range[0], m.Range[1])
	}

	if len(r.StrategicRecommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for i, rec := range r.StrategicRecommendations {
			fmt.Fprintf(&sb, "  %d. [%s] %s: %s\n", i+1, colorizePriority(rec.Priority), rec.Category, rec.Recommendation)
		}
	}
	return sb.String()
}

func (v analysisView) TableHeaders() []string {
	return []string{"#", "Priority", "Category", "Recommendation", "Basis"}
}

func (v analysisView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.result.StrategicRecommendations))
	for i, rec := range v.result.StrategicRecommendations {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			colorizePriority(rec.Priority),
			rec.Category,
			truncateString(rec.Recommendation, 60),
			truncateString(rec.Basis, 40),
		})
	}
	return rows
}

// evaluationView renders a quick-mode PlaybookEvaluation.
type evaluationView struct {
	eval *legalcase.PlaybookEvaluation
}

func (v evaluationView) MarshalJSON() ([]byte, error) { return json.Marshal(v.eval) }

func (v evaluationView) String() string {
	e := v.eval
	var sb strings.Builder
	fmt.Fprintf(&sb, "Case:        %s\n", e.CaseID)
	fmt.Fprintf(&sb, "Playbook:    %s (%s)\n", e.PlaybookID, e.CaseType)
	fmt.Fprintf(&sb, "Assessment:  %s (average weight %.2f, confidence %s)\n",
		colorizeLevel(e.AssessmentLevel), e.AverageWeight, colorizeConfidence(e.Confidence))
	fmt.Fprintf(&sb, "Rules:       %d/%d matched, total weight %.2f\n",
		e.Evaluation.RulesMatched, e.Evaluation.RulesEvaluated, e.Evaluation.TotalWeight)
	for _, rule := range e.Evaluation.AppliedRules {
		fmt.Fprintf(&sb, "  - %s (%.2f): %s\n", orDash(rule.ID), rule.Weight, rule.Action)
	}
	return sb.String()
}

func (v evaluationView) TableHeaders() []string {
	return []string{"Rule", "Weight", "Condition", "Action"}
}

func (v evaluationView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.eval.Evaluation.AppliedRules))
	for _, rule := range v.eval.Evaluation.AppliedRules {
		rows = append(rows, []string{
			orDash(rule.ID),
			fmt.Sprintf("%.2f", rule.Weight),
			truncateString(rule.Condition, 40),
			truncateString(rule.Action, 50),
		})
	}
	return rows
}

// regenerateView renders a batch summary.
type regenerateView struct {
	summary *legalcase.RegenerateSummary
}

func (v regenerateView) MarshalJSON() ([]byte, error) { return json.Marshal(v.summary) }

func (v regenerateView) String() string {
	s := v.summary
	var sb strings.Builder
	fmt.Fprintf(&sb, "Cases:              %d\n", s.TotalCases)
	fmt.Fprintf(&sb, "Analyzed:           %s\n", color.GreenString("%d", s.AnalyzedCases))
	if s.FailedCases > 0 {
		fmt.Fprintf(&sb, "Failed:             %s (%s)\n",
			color.RedString("%d", s.FailedCases), strings.Join(s.FailedCaseIDs, ", "))
	} else {
		fmt.Fprintf(&sb, "Failed:             0\n")
	}
	fmt.Fprintf(&sb, "Average confidence: %.2f\n", s.AverageConfidence)
	return sb.String()
}

func (v regenerateView) TableHeaders() []string {
	return []string{"Total", "Analyzed", "Failed", "Average Confidence"}
}

func (v regenerateView) TableRows() [][]string {
	s := v.summary
	return [][]string{{
		fmt.Sprintf("%d", s.TotalCases),
		fmt.Sprintf("%d", s.AnalyzedCases),
		fmt.Sprintf("%d", s.FailedCases),
		fmt.Sprintf("%.2f", s.AverageConfidence),
	}}
}

// statsView renders cache statistics.
type statsView struct {
	stats *legalcase.Statistics
}

func (v statsView) MarshalJSON() ([]byte, error) { return json.Marshal(v.stats) }

func (v statsView) String() string {
	s := v.stats
	return fmt.Sprintf("Total analyses:     %d\nRecent analyses:    %d\nAverage confidence: %.2f\n",
		s.TotalAnalyses, s.RecentAnalyses, s.AverageConfidence)
}

func (v statsView) TableHeaders() []string {
	return []string{"Total Analyses", "Recent Analyses", "Average Confidence"}
}

func (v statsView) TableRows() [][]string {
	s := v.stats
	return [][]string{{
		fmt.Sprintf("%d", s.TotalAnalyses),
		fmt.Sprintf("%d", s.RecentAnalyses),
		fmt.Sprintf("%.2f", s.AverageConfidence),
	}}
}

func colorizeLevel(level string) string {
	switch level {
	case legalcase.StrengthStrong:
		return color.GreenString("%s", level)
	case legalcase.StrengthModerate:
		return color.YellowString("%s", level)
	case legalcase.StrengthWeak:
		return color.RedString("%s", level)
	default:
		return level
	}
}

func colorizeConfidence(c string) string {
	switch c {
	case legalcase.ConfidenceHigh:
		return color.GreenString("%s", c)
	case legalcase.ConfidenceLow:
		return color.RedString("%s", c)
	default:
		return c
	}
}

func colorizePriority(p string) string {
	switch p {
	case legalcase.PriorityHigh:
		return color.RedString("%s", p)
	case legalcase.PriorityMedium:
		return color.YellowString("%s", p)
	case legalcase.PriorityLow:
		return color.GreenString("%s", p)
	default:
		return p
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

//Personal.AI order the ending
