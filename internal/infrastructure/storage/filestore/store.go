// Package filestore implements the case, document, corpus, playbook and
// analysis stores on top of a data directory of JSON, YAML and TOML files.
//
// Layout under the data directory:
//
//	cases.json                      []Case
//	documents.json                  []Document
//	document_analyses/<doc-id>.json DocumentAnalysisRecord
//	corpus.json                     []CorpusItem
//	playbooks/*.yaml|yml|json|toml  Playbook, one per file
//	case_analyses.json              map case_id -> CaseAnalysisResult
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// File names inside the data directory.
const (
	CasesFile           = "cases.json"
	DocumentsFile       = "documents.json"
	CorpusFile          = "corpus.json"
	AnalysesFile        = "case_analyses.json"
	DocumentAnalysesDir = "document_analyses"
	PlaybooksDir        = "playbooks"
)

// Store reads reference data from a data directory.  Files are read on every
// call so edits are picked up without a restart; a missing file reads as an
// empty collection.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{dir: dir, logger: logger.Named("filestore")}
}

// Dir reports the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(parts ...string) string {
	return filepath.Join(append([]string{s.dir}, parts...)...)
}

// readJSON decodes name into v.  It reports false when the file is absent.
func readJSON(name string, v interface{}) (bool, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read "+filepath.Base(name))
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode "+filepath.Base(name))
	}
	return true, nil
}

func (s *Store) ListCases(ctx context.Context) ([]legalcase.Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var cases []legalcase.Case
	if _, err := readJSON(s.path(CasesFile), &cases); err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []legalcase.Case{}
	}
	return cases, nil
}

func (s *Store) GetCase(ctx context.Context, id string) (*legalcase.Case, error) {
	cases, err := s.ListCases(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		if cases[i].ID == id {
			return &cases[i], nil
		}
	}
	return nil, nil
}

func (s *Store) ListCaseDocuments(ctx context.Context, caseID string) ([]legalcase.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []legalcase.Document
	if _, err := readJSON(s.path(DocumentsFile), &all); err != nil {
		return nil, err
	}
	docs := []legalcase.Document{}
	for _, d := range all {
		if d.CaseID == caseID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// GetDocumentAnalysis reads document_analyses/<documentID>.json.
func (s *Store) GetDocumentAnalysis(ctx context.Context, documentID string) (*legalcase.DocumentAnalysisRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !safeName(documentID) {
		return nil, errors.InvalidParam("invalid document id " + documentID)
	}
	var rec legalcase.DocumentAnalysisRecord
	found, err := readJSON(s.path(DocumentAnalysesDir, documentID+".json"), &rec)
	if err != nil || !found {
		return nil, err
	}
	if rec.DocumentID == "" {
		rec.DocumentID = documentID
	}
	return &rec, nil
}

// Search scans corpus.json.  Matching is case-insensitive substring over
// title, description and research areas; an empty query returns every item.
func (s *Store) Search(ctx context.Context, query string) ([]legalcase.CorpusItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var corpus []legalcase.CorpusItem
	if _, err := readJSON(s.path(CorpusFile), &corpus); err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeCorpusUnavailable, "corpus unavailable")
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []legalcase.CorpusItem{}
	for _, item := range corpus {
		if q == "" || matchesItem(item, q) {
			out = append(out, item)
		}
	}
	return out, nil
}

func matchesItem(item legalcase.CorpusItem, q string) bool {
	if strings.Contains(strings.ToLower(item.Title), q) || strings.Contains(strings.ToLower(item.Description), q) {
		return true
	}
	for _, area := range item.ResearchAreas {
		if strings.Contains(strings.ToLower(area), q) {
			return true
		}
	}
	return false
}

// safeName rejects ids that would escape their directory.
func safeName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

//Personal.AI order the ending
