package legalcase

import "context"

// The contracts below are implemented by the flat-file, postgres, redis,
// opensearch and minio backends.  Single-record lookups return (nil, nil)
// when the record does not exist; errors are reserved for backend failures.

// CaseRepository reads case records.
type CaseRepository interface {
	ListCases(ctx context.Context) ([]Case, error)
	GetCase(ctx context.Context, id string) (*Case, error)
}

// DocumentRepository lists the documents attached to a case.
type DocumentRepository interface {
	ListCaseDocuments(ctx context.Context, caseID string) ([]Document, error)
}

// DocumentAnalysisSource reads the analyzer output for one document.
type DocumentAnalysisSource interface {
	GetDocumentAnalysis(ctx context.Context, documentID string) (*DocumentAnalysisRecord, error)
}

// CorpusSearcher runs a case-insensitive substring query over corpus titles,
// descriptions and research areas.  An empty query returns every item.
type CorpusSearcher interface {
	Search(ctx context.Context, query string) ([]CorpusItem, error)
}

// PlaybookRepository reads playbook definitions.
type PlaybookRepository interface {
	GetPlaybook(ctx context.Context, id string) (*Playbook, error)
	ListPlaybooks(ctx context.Context) ([]Playbook, error)
}

// AnalysisStore persists CaseAnalysisResults keyed by case id.  Put replaces
// the whole entry for result.CaseID and leaves other entries untouched.
type AnalysisStore interface {
	Get(ctx context.Context, caseID string) (*CaseAnalysisResult, error)
	Put(ctx context.Context, result *CaseAnalysisResult) error
	List(ctx context.Context) ([]CaseAnalysisResult, error)
}

//Personal.AI order the ending
