// Package legalcase holds the records exchanged between the case assessment
// engine and its stores: cases, documents, per-document analyses, research
// corpus items, playbooks, and the cached analysis result.
package legalcase

import (
	"strings"
	"time"
)

// Case is a legal matter under assessment.  It is read-only for the duration
// of one analysis run.
type Case struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	CaseType    string    `json:"case_type" yaml:"case_type"`
	Summary     string    `json:"summary" yaml:"summary"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	KeyParties  []string  `json:"key_parties" yaml:"key_parties"`
	PlaybookID  string    `json:"playbook_id,omitempty" yaml:"playbook_id,omitempty"`
	Status      string    `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// FactText returns the text the rule engine matches conditions against: the
// summary, or the description when no summary was recorded.
func (c *Case) FactText() string {
	if strings.TrimSpace(c.Summary) != "" {
		return c.Summary
	}
	return c.Description
}

// HasPlaybookAssignment reports whether the case carries both a playbook id
// and a case type.
func (c *Case) HasPlaybookAssignment() bool {
	return strings.TrimSpace(c.PlaybookID) != "" && strings.TrimSpace(c.CaseType) != ""
}

// CaseInfo is the snapshot of a Case embedded in a CaseAnalysisResult.
type CaseInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	CaseType   string   `json:"case_type"`
	Summary    string   `json:"summary"`
	KeyParties []string `json:"key_parties"`
	PlaybookID string   `json:"playbook_id,omitempty"`
}

// Snapshot copies the fields of c that are persisted with an analysis.
func (c *Case) Snapshot() CaseInfo {
	parties := make([]string, len(c.KeyParties))
	copy(parties, c.KeyParties)
	return CaseInfo{
		ID:         c.ID,
		Title:      c.Title,
		CaseType:   c.CaseType,
		Summary:    c.FactText(),
		KeyParties: parties,
		PlaybookID: c.PlaybookID,
	}
}

// Document is a file attached to a case.  Its content analysis lives in a
// separate DocumentAnalysisRecord produced by an external analyzer.
type Document struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id"`
	Name         string    `json:"name"`
	DocumentType string    `json:"document_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DisplayName is the name used in timeline descriptions.
func (d *Document) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

//Personal.AI order the ending
