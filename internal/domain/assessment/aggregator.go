package assessment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

const (
	maxThemes     = 10
	maxKeyClauses = 10
)

// LegalVocabulary is the fixed set of legal terms scanned for in clause text
// when deriving themes.
var LegalVocabulary = []string{
	"termination",
	"confidentiality",
	"breach",
	"damages",
	"notice",
	"compensation",
	"benefits",
}

// noDocumentsMessage is carried by the explicit empty-case marker.
const noDocumentsMessage = "No documents found for this case"

// Aggregate merges the per-document analyses of one case into a
// CaseDocumentSummary.  Records are processed in the given order, which
// determines first-seen ordering of parties, clauses, risks and themes.
// An empty input yields the "no documents" marker rather than an empty
// aggregate.
func Aggregate(records []legalcase.DocumentAnalysisRecord) legalcase.CaseDocumentSummary {
	if len(records) == 0 {
		return legalcase.CaseDocumentSummary{
			Status:          legalcase.SummaryStatusNoDocuments,
			Message:         noDocumentsMessage,
			DocumentTypes:   []string{},
			KeyDates:        []string{},
			PartiesInvolved: []string{},
			KeyClauses:      []string{},
			PotentialRisks:  []string{},
			Themes:          []string{},
			Timeline:        []legalcase.TimelineEntry{},
		}
	}

	types := newOrderedSet()
	dates := newOrderedSet()
	parties := newOrderedSet()
	clauses := newOrderedSet()
	risks := newOrderedSet()

	for _, rec := range records {
		types.add(rec.DocumentType)
		dates.addAll(rec.KeyDates)
		parties.addAll(rec.PartiesInvolved)
		clauses.addAll(rec.KeyClauses)
		risks.addAll(rec.PotentialIssues)
	}

	sortedDates := append([]string(nil), dates.items...)
	sort.Strings(sortedDates)

	return legalcase.CaseDocumentSummary{
		Status:          legalcase.SummaryStatusOK,
		TotalDocuments:  len(records),
		DocumentTypes:   types.items,
		KeyDates:        sortedDates,
		PartiesInvolved: parties.items,
		KeyClauses:      firstN(clauses.items, maxKeyClauses),
		PotentialRisks:  risks.items,
		Themes:          deriveThemes(records),
		Timeline:        buildTimeline(records, sortedDates),
	}
}

// deriveThemes walks the records in order, taking each record's lower-cased
// document type and then the vocabulary terms found in its clauses, capped at
// maxThemes.
func deriveThemes(records []legalcase.DocumentAnalysisRecord) []string {
	themes := newOrderedSet()
	for _, rec := range records {
		if themes.len() >= maxThemes {
			return themes.items
		}
		themes.add(strings.ToLower(rec.DocumentType))
		for _, clause := range rec.KeyClauses {
			lower := strings.ToLower(clause)
			for _, term := range LegalVocabulary {
				if themes.len() >= maxThemes {
					return themes.items
				}
				if strings.Contains(lower, term) {
					themes.add(term)
				}
			}
		}
	}
	return themes.items
}

// buildTimeline emits one entry per sorted date listing the documents whose
// key dates contain it.
func buildTimeline(records []legalcase.DocumentAnalysisRecord, sortedDates []string) []legalcase.TimelineEntry {
	timeline := make([]legalcase.TimelineEntry, 0, len(sortedDates))
	for _, date := range sortedDates {
		related := newOrderedSet()
		for _, rec := range records {
			for _, d := range rec.KeyDates {
				if strings.TrimSpace(d) == date {
					related.add(documentLabel(rec))
					break
				}
			}
		}
		timeline = append(timeline, legalcase.TimelineEntry{
			Date:             date,
			Description:      fmt.Sprintf("Key date referenced in %s", strings.Join(related.items, ", ")),
			RelatedDocuments: related.items,
		})
	}
	return timeline
}

func documentLabel(rec legalcase.DocumentAnalysisRecord) string {
	if rec.DocumentName != "" {
		return rec.DocumentName
	}
	return rec.DocumentID
}

//Personal.AI order the ending
