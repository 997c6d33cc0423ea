package assessment

import (
	"fmt"
	"strings"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// Comprehensive-mode weights.
const (
	documentWeight = 0.4
	researchWeight = 0.3
	playbookWeight = 0.3
)

// Classification thresholds shared by both modes.
const (
	strongThreshold   = 0.8
	moderateThreshold = 0.6
)

// ScoreInput carries everything either scoring mode may need.  Comprehensive
// mode reads Summary, Research and Path; quick mode reads Rules.
type ScoreInput struct {
	Summary  *legalcase.CaseDocumentSummary
	Research *legalcase.ResearchAnalysis
	Path     *legalcase.DecisionPathResult
	Rules    *legalcase.RuleEvaluation
}

// Score dispatches to the named mode.  AnalyzeCase uses
// legalcase.ModeComprehensive; playbook evaluation uses legalcase.ModeQuick.
func Score(mode string, in ScoreInput) (legalcase.CaseAssessment, error) {
	switch mode {
	case legalcase.ModeComprehensive:
		return ScoreComprehensive(in.Summary, in.Research, in.Path), nil
	case legalcase.ModeQuick:
		if in.Rules == nil {
			return legalcase.CaseAssessment{}, errors.InvalidParam("quick scoring requires a rule evaluation")
		}
		return ScoreQuick(*in.Rules), nil
	default:
		return legalcase.CaseAssessment{}, errors.InvalidParam(fmt.Sprintf("unknown scoring mode %q", mode))
	}
}

// Classify maps a score onto the strength and confidence labels.
func Classify(score float64) (strength, confidence string) {
	switch {
	case score >= strongThreshold:
		return legalcase.StrengthStrong, legalcase.ConfidenceHigh
	case score >= moderateThreshold:
		return legalcase.StrengthModerate, legalcase.ConfidenceMedium
	default:
		return legalcase.StrengthWeak, legalcase.ConfidenceLow
	}
}

// DocumentScore rewards the presence of dates, parties and clauses and the
// absence of flagged risks.  The no-documents marker scores only the
// no-risk bonus.
func DocumentScore(s *legalcase.CaseDocumentSummary) float64 {
	if s == nil {
		return 0
	}
	var score float64
	if len(s.KeyDates) > 0 {
		score += 0.2
	}
	if len(s.PartiesInvolved) > 0 {
		score += 0.2
	}
	if len(s.KeyClauses) > 0 {
		score += 0.3
	}
	if len(s.PotentialRisks) == 0 {
		score += 0.3
	}
	return clamp01(score)
}

// ResearchScore is the filled share of the top-10 research slots.
func ResearchScore(r *legalcase.ResearchAnalysis) float64 {
	if r == nil {
		return 0
	}
	return clamp01(float64(len(r.TopRelevant)) / float64(maxTopRelevant))
}

// PlaybookScore grades the qualitative decision-path result.
func PlaybookScore(p *legalcase.DecisionPathResult) float64 {
	if p == nil {
		return 0
	}
	result := strings.ToLower(p.Result)
	switch {
	case strings.Contains(result, "strong"):
		return 0.9
	case strings.Contains(result, "moderate"):
		return 0.6
	default:
		return 0.3
	}
}

// ScoreComprehensive combines the three sub-scores.
func ScoreComprehensive(summary *legalcase.CaseDocumentSummary, research *legalcase.ResearchAnalysis, path *legalcase.DecisionPathResult) legalcase.CaseAssessment {
	doc := DocumentScore(summary)
	res := ResearchScore(research)
	pb := PlaybookScore(path)

	overall := clamp01(round2(documentWeight*doc + researchWeight*res + playbookWeight*pb))
	strength, confidence := Classify(overall)
	return legalcase.CaseAssessment{
		Mode:            legalcase.ModeComprehensive,
		OverallScore:    overall,
		AssessmentLevel: strength,
		Confidence:      confidence,
		ComponentScores: legalcase.ComponentScores{
			DocumentScore: round2(doc),
			ResearchScore: round2(res),
			PlaybookScore: round2(pb),
		},
	}
}

// AverageWeight is total weight over matched rules, 0 when nothing matched.
func AverageWeight(eval legalcase.RuleEvaluation) float64 {
	if eval.RulesMatched == 0 {
		return 0
	}
	return clamp01(eval.TotalWeight / float64(eval.RulesMatched))
}

// ScoreQuick classifies a case from rule weights alone.
func ScoreQuick(eval legalcase.RuleEvaluation) legalcase.CaseAssessment {
	avg := round2(AverageWeight(eval))
	strength, confidence := Classify(avg)
	return legalcase.CaseAssessment{
		Mode:            legalcase.ModeQuick,
		OverallScore:    avg,
		AssessmentLevel: strength,
		Confidence:      confidence,
	}
}

//Personal.AI order the ending
