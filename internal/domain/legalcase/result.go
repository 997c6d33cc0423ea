package legalcase

import "time"

// Scoring modes of the case strength scorer.
const (
	ModeComprehensive = "comprehensive"
	ModeQuick         = "quick"
)

// Strength and confidence labels.
const (
	StrengthStrong   = "Strong"
	StrengthModerate = "Moderate"
	StrengthWeak     = "Weak"

	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Recommendation priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DecisionPathResult is the node reached in a playbook's decision tree.
type DecisionPathResult struct {
	NodeID             string   `json:"node_id"`
	Path               []string `json:"path"`
	Result             string   `json:"result"`
	MonetaryRange      string   `json:"monetary_range"`
	RecommendedActions []string `json:"recommended_actions"`
	// Fallback is set when the tree could not be traversed and the fixed
	// moderate assessment node was used instead.
	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// MonetaryAssessment is the range attached to the navigated tier.
type MonetaryAssessment struct {
	Tier        string     `json:"tier"`
	Range       [2]float64 `json:"range"`
	Description string     `json:"description"`
	Factors     []string   `json:"factors"`
}

// RuleEvaluation is the rule engine's output.  AppliedRules is ordered by
// descending weight.
type RuleEvaluation struct {
	PlaybookID     string         `json:"playbook_id"`
	AppliedRules   []PlaybookRule `json:"applied_rules"`
	TotalWeight    float64        `json:"total_weight"`
	RulesEvaluated int            `json:"rules_evaluated"`
	RulesMatched   int            `json:"rules_matched"`
}

// PlaybookAnalysis is the playbook section of a CaseAnalysisResult.  When no
// playbook could be resolved only Error (and ErrorCode) are set.
type PlaybookAnalysis struct {
	PlaybookID         string              `json:"playbook_id,omitempty"`
	CaseType           string              `json:"case_type,omitempty"`
	Error              string              `json:"error,omitempty"`
	ErrorCode          string              `json:"error_code,omitempty"`
	RuleEvaluation     *RuleEvaluation     `json:"rule_evaluation,omitempty"`
	DecisionPath       *DecisionPathResult `json:"decision_path,omitempty"`
	MonetaryAssessment *MonetaryAssessment `json:"monetary_assessment,omitempty"`
	KeyStatutes        []string            `json:"key_statutes,omitempty"`
	SuccessFactors     []string            `json:"success_factors,omitempty"`
	EscalationPaths    []EscalationPath    `json:"escalation_paths,omitempty"`
}

// Recommendation is one strategic recommendation.
type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
	Basis          string `json:"basis"`
}

// ComponentScores are the comprehensive-mode sub-scores.
type ComponentScores struct {
	DocumentScore float64 `json:"document_score"`
	ResearchScore float64 `json:"research_score"`
	PlaybookScore float64 `json:"playbook_score"`
}

// CaseAssessment is the overall strength classification.
type CaseAssessment struct {
	Mode            string          `json:"mode"`
	OverallScore    float64         `json:"overall_score"`
	AssessmentLevel string          `json:"assessment_level"`
	Confidence      string          `json:"confidence"`
	ComponentScores ComponentScores `json:"component_scores"`
}

// CaseAnalysisResult is the cached artifact of one full analysis.
type CaseAnalysisResult struct {
	CaseID                   string              `json:"case_id"`
	CaseInfo                 CaseInfo            `json:"case_info"`
	AnalysisTimestamp        time.Time           `json:"analysis_timestamp"`
	DocumentAnalysis         CaseDocumentSummary `json:"document_analysis"`
	ResearchAnalysis         ResearchAnalysis    `json:"research_analysis"`
	PlaybookAnalysis         PlaybookAnalysis    `json:"playbook_analysis"`
	StrategicRecommendations []Recommendation    `json:"strategic_recommendations"`
	CaseAssessment           CaseAssessment      `json:"case_assessment"`
}

// IsFresh reports whether the result was produced within window of now.
func (r *CaseAnalysisResult) IsFresh(now time.Time, window time.Duration) bool {
	if r == nil || r.AnalysisTimestamp.IsZero() {
		return false
	}
	return now.Sub(r.AnalysisTimestamp) <= window
}

// PlaybookEvaluation is the quick-mode assessment built from rule weights
// only.
type PlaybookEvaluation struct {
	CaseID          string         `json:"case_id"`
	PlaybookID      string         `json:"playbook_id"`
	CaseType        string         `json:"case_type"`
	Evaluation      RuleEvaluation `json:"evaluation"`
	AverageWeight   float64        `json:"average_weight"`
	AssessmentLevel string         `json:"assessment_level"`
	Confidence      string         `json:"confidence"`
	Mode            string         `json:"mode"`
}

// Statistics summarises the analysis cache.
type Statistics struct {
	TotalAnalyses     int     `json:"total_analyses"`
	RecentAnalyses    int     `json:"recent_analyses"`
	AverageConfidence float64 `json:"average_confidence"`
}

// RegenerateSummary is the outcome of a batch regeneration.
type RegenerateSummary struct {
	TotalCases        int      `json:"total_cases"`
	AnalyzedCases     int      `json:"analyzed_cases"`
	FailedCases       int      `json:"failed_cases"`
	AverageConfidence float64  `json:"average_confidence"`
	FailedCaseIDs     []string `json:"failed_case_ids,omitempty"`
}

//Personal.AI order the ending
