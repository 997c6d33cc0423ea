package legalcase

// DocumentAnalysisRecord is the per-document output of the external clause
// and keyword analyzer.
type DocumentAnalysisRecord struct {
	DocumentID      string   `json:"document_id"`
	DocumentName    string   `json:"document_name,omitempty"`
	DocumentType    string   `json:"document_type"`
	KeyDates        []string `json:"key_dates"`
	PartiesInvolved []string `json:"parties_involved"`
	KeyClauses      []string `json:"key_clauses"`
	PotentialIssues []string `json:"potential_issues"`
}

// Summary status values.
const (
	SummaryStatusOK          = "ok"
	SummaryStatusNoDocuments = "no_documents"
)

// CaseDocumentSummary is the case-level merge of every available document
// analysis.  It is rebuilt on every run and never persisted on its own.
type CaseDocumentSummary struct {
	Status          string          `json:"status"`
	Message         string          `json:"message,omitempty"`
	TotalDocuments  int             `json:"total_documents"`
	DocumentTypes   []string        `json:"document_types"`
	KeyDates        []string        `json:"key_dates"`
	PartiesInvolved []string        `json:"parties_involved"`
	KeyClauses      []string        `json:"key_clauses"`
	PotentialRisks  []string        `json:"potential_risks"`
	Themes          []string        `json:"themes"`
	Timeline        []TimelineEntry `json:"timeline"`
}

// NoDocuments reports whether the summary is the explicit "no documents"
// marker.
func (s *CaseDocumentSummary) NoDocuments() bool {
	return s == nil || s.Status == SummaryStatusNoDocuments
}

// TimelineEntry groups the documents that mention one date.
type TimelineEntry struct {
	Date             string   `json:"date"`
	Description      string   `json:"description"`
	RelatedDocuments []string `json:"related_documents"`
}

//Personal.AI order the ending
