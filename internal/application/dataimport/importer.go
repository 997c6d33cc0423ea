// Package dataimport copies reference data (cases, documents, per-document
// analyses and playbooks) from one backend into another, typically from a
// file data directory into PostgreSQL and object storage.
package dataimport

import (
	"context"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// Source is the set of read contracts an import copies from.
type Source interface {
	legalcase.CaseRepository
	legalcase.DocumentRepository
	legalcase.DocumentAnalysisSource
	legalcase.PlaybookRepository
}

// CaseSink stores cases, their documents and document analyses.
type CaseSink interface {
	SaveCase(ctx context.Context, c *legalcase.Case) error
	SaveDocument(ctx context.Context, d *legalcase.Document) error
	SaveDocumentAnalysis(ctx context.Context, rec *legalcase.DocumentAnalysisRecord) error
}

// PlaybookSink stores playbook definitions.
type PlaybookSink interface {
	UpsertPlaybook(ctx context.Context, pb *legalcase.Playbook) error
}

// AnalysisSink stores document analyses outside the case sink.
type AnalysisSink interface {
	PutDocumentAnalysis(ctx context.Context, rec *legalcase.DocumentAnalysisRecord) error
}

// Summary counts the records written.
type Summary struct {
	Cases            int `json:"cases"`
	Documents        int `json:"documents"`
	DocumentAnalyses int `json:"document_analyses"`
	Playbooks        int `json:"playbooks"`
}

// Options selects the sinks.  A nil sink skips its records; document
// analyses go to Analyses when set and to Cases otherwise.
type Options struct {
	Cases     CaseSink
	Playbooks PlaybookSink
	Analyses  AnalysisSink
}

// Importer copies records from a Source.
type Importer struct {
	src    Source
	opts   Options
	logger logging.Logger
}

// NewImporter validates that at least one sink is set.
func NewImporter(src Source, opts Options, logger logging.Logger) (*Importer, error) {
	if src == nil {
		return nil, errors.InvalidParam("import source is required")
	}
	if opts.Cases == nil && opts.Playbooks == nil && opts.Analyses == nil {
		return nil, errors.InvalidParam("at least one import target is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Importer{src: src, opts: opts, logger: logger.Named("import")}, nil
}

// Run copies every record.  It stops at the first write error and returns
// the counts reached so far with it.
func (im *Importer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	if im.opts.Playbooks != nil {
		playbooks, err := im.src.ListPlaybooks(ctx)
		if err != nil {
			return sum, err
		}
		for i := range playbooks {
			if err := im.opts.Playbooks.UpsertPlaybook(ctx, &playbooks[i]); err != nil {
				return sum, err
			}
			sum.Playbooks++
		}
	}

	if im.opts.Cases == nil && im.opts.Analyses == nil {
		return sum, nil
	}

	cases, err := im.src.ListCases(ctx)
	if err != nil {
		return sum, err
	}
	for i := range cases {
		if err := ctx.Err(); err != nil {
			return sum, errors.Wrap(err, errors.ErrCodeTimeout, "import interrupted")
		}
		if err := im.importCase(ctx, &cases[i], sum); err != nil {
			return sum, err
		}
	}

	im.logger.Info("import completed",
		logging.Int("cases", sum.Cases),
		logging.Int("documents", sum.Documents),
		logging.Int("document_analyses", sum.DocumentAnalyses),
		logging.Int("playbooks", sum.Playbooks))
	return sum, nil
}

func (im *Importer) importCase(ctx context.Context, c *legalcase.Case, sum *Summary) error {
	if im.opts.Cases != nil {
		if err := im.opts.Cases.SaveCase(ctx, c); err != nil {
			return err
		}
		sum.Cases++
	}

	docs, err := im.src.ListCaseDocuments(ctx, c.ID)
	if err != nil {
		return err
	}
	for i := range docs {
		d := &docs[i]
		if im.opts.Cases != nil {
			if err := im.opts.Cases.SaveDocument(ctx, d); err != nil {
				return err
			}
			sum.Documents++
		}

		rec, err := im.src.GetDocumentAnalysis(ctx, d.ID)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		if rec.DocumentID == "" {
			rec.DocumentID = d.ID
		}
		if err := im.saveAnalysis(ctx, rec); err != nil {
			return err
		}
		sum.DocumentAnalyses++
	}
	return nil
}

func (im *Importer) saveAnalysis(ctx context.Context, rec *legalcase.DocumentAnalysisRecord) error {
	if im.opts.Analyses != nil {
		return im.opts.Analyses.PutDocumentAnalysis(ctx, rec)
	}
	return im.opts.Cases.SaveDocumentAnalysis(ctx, rec)
}

//Personal.AI order the ending
