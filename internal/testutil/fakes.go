package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

// MemoryRepository is an in-memory implementation of every read contract in
// legalcase: cases, documents, document analyses, playbooks and the research
// corpus.  Set the *Err fields to make the corresponding calls fail.
type MemoryRepository struct {
	mu sync.RWMutex

	Cases     []legalcase.Case
	Documents map[string][]legalcase.Document
	Analyses  map[string]legalcase.DocumentAnalysisRecord
	Playbooks []legalcase.Playbook
	Corpus    []legalcase.CorpusItem

	ListCasesErr error
	GetCaseErr   map[string]error
	DocumentsErr error
	PlaybookErr  error
	SearchErr    error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		Documents:  make(map[string][]legalcase.Document),
		Analyses:   make(map[string]legalcase.DocumentAnalysisRecord),
		GetCaseErr: make(map[string]error),
	}
}

// AddCase appends c.
func (m *MemoryRepository) AddCase(c legalcase.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cases = append(m.Cases, c)
}

// AddDocument attaches doc to its case and, when rec is non-nil, stores its
// analysis record.
func (m *MemoryRepository) AddDocument(doc legalcase.Document, rec *legalcase.DocumentAnalysisRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents[doc.CaseID] = append(m.Documents[doc.CaseID], doc)
	if rec != nil {
		m.Analyses[doc.ID] = *rec
	}
}

func (m *MemoryRepository) ListCases(_ context.Context) ([]legalcase.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListCasesErr != nil {
		return nil, m.ListCasesErr
	}
	out := make([]legalcase.Case, len(m.Cases))
	copy(out, m.Cases)
	return out, nil
}

func (m *MemoryRepository) GetCase(_ context.Context, id string) (*legalcase.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.GetCaseErr[id]; err != nil {
		return nil, err
	}
	for i := range m.Cases {
		if m.Cases[i].ID == id {
			c := m.Cases[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) ListCaseDocuments(_ context.Context, caseID string) ([]legalcase.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.DocumentsErr != nil {
		return nil, m.DocumentsErr
	}
	docs := m.Documents[caseID]
	out := make([]legalcase.Document, len(docs))
	copy(out, docs)
	return out, nil
}

func (m *MemoryRepository) GetDocumentAnalysis(_ context.Context, documentID string) (*legalcase.DocumentAnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.Analyses[documentID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryRepository) GetPlaybook(_ context.Context, id string) (*legalcase.Playbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.PlaybookErr != nil {
		return nil, m.PlaybookErr
	}
	for i := range m.Playbooks {
		if m.Playbooks[i].ID == id {
			pb := m.Playbooks[i]
			return &pb, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) ListPlaybooks(_ context.Context) ([]legalcase.Playbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.PlaybookErr != nil {
		return nil, m.PlaybookErr
	}
	out := make([]legalcase.Playbook, len(m.Playbooks))
	copy(out, m.Playbooks)
	return out, nil
}

// Search matches query case-insensitively against title, description and
// research areas.  An empty query returns the whole corpus.
func (m *MemoryRepository) Search(_ context.Context, query string) ([]legalcase.CorpusItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []legalcase.CorpusItem{}
	for _, it := range m.Corpus {
		if q == "" || corpusItemMatches(it, q) {
			out = append(out, it)
		}
	}
	return out, nil
}

func corpusItemMatches(it legalcase.CorpusItem, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, a := range it.ResearchAreas {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	return false
}

// MemoryAnalysisStore is a concurrency-safe in-memory AnalysisStore.
type MemoryAnalysisStore struct {
	mu      sync.Mutex
	entries map[string]legalcase.CaseAnalysisResult
	puts    int

	PutErr  error
	GetErr  error
	ListErr error
}

// NewMemoryAnalysisStore returns an empty store.
func NewMemoryAnalysisStore() *MemoryAnalysisStore {
	return &MemoryAnalysisStore{entries: make(map[string]legalcase.CaseAnalysisResult)}
}

func (s *MemoryAnalysisStore) Get(_ context.Context, caseID string) (*legalcase.CaseAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	r, ok := s.entries[caseID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryAnalysisStore) Put(_ context.Context, result *legalcase.CaseAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.entries[result.CaseID] = *result
	s.puts++
	return nil
}

func (s *MemoryAnalysisStore) List(_ context.Context) ([]legalcase.CaseAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]legalcase.CaseAnalysisResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id])
	}
	return out, nil
}

// Puts reports how many successful writes the store has seen.
func (s *MemoryAnalysisStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Seed stores r directly, bypassing PutErr and the write counter.
func (s *MemoryAnalysisStore) Seed(r legalcase.CaseAnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[r.CaseID] = r
}

//Personal.AI order the ending
