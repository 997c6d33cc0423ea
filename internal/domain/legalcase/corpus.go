package legalcase

// Research corpus categories.
const (
	CategoryPrecedents = "precedents"
	CategoryStatutes   = "statutes"
	CategoryContracts  = "contracts"
	CategoryClauses    = "clauses"
)

// CorpusCategories lists the buckets used by ResearchAnalysis.Categorized, in
// presentation order.
var CorpusCategories = []string{CategoryPrecedents, CategoryStatutes, CategoryContracts, CategoryClauses}

// CorpusItem is a reference document of the research corpus.  RelevanceScore
// is attached transiently by the ranker.
type CorpusItem struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	ResearchAreas  []string `json:"research_areas"`
	RelevanceScore float64  `json:"relevance_score"`
}

// ResearchAnalysis is the ranker's output.
type ResearchAnalysis struct {
	TotalFound  int                     `json:"total_found"`
	TopRelevant []CorpusItem            `json:"top_relevant"`
	Categorized map[string][]CorpusItem `json:"categorized"`
}

//Personal.AI order the ending
