package repositories

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// Analysis status recorded by the external analyzer.  Anything other than
// completed is treated as unavailable.
const analysisStatusCompleted = "completed"

const caseColumns = `id, title, case_type, summary, description, key_parties, playbook_id, status, created_at`

// CaseRepo reads cases, their documents and the per-document analyses from
// PostgreSQL.  It satisfies legalcase.CaseRepository,
// legalcase.DocumentRepository and legalcase.DocumentAnalysisSource.
type CaseRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewCaseRepo builds a CaseRepo over conn.
func NewCaseRepo(conn *postgres.Connection, log logging.Logger) *CaseRepo {
	return &CaseRepo{conn: conn, log: log, executor: conn.DB()}
}

// WithTx runs fn against a repository bound to one transaction.  The
// transaction is committed when fn returns nil.
func (r *CaseRepo) WithTx(ctx context.Context, fn func(*CaseRepo) error) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	if err := fn(&CaseRepo{conn: r.conn, log: r.log, executor: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

// ListCases returns every case ordered by id.
func (r *CaseRepo) ListCases(ctx context.Context) ([]legalcase.Case, error) {
	rows, err := r.executor.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list cases")
	}
	defer rows.Close()

	cases := make([]legalcase.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan case")
		}
		cases = append(cases, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate cases")
	}
	return cases, nil
}

// GetCase returns (nil, nil) when no case has the given id.
func (r *CaseRepo) GetCase(ctx context.Context, id string) (*legalcase.Case, error) {
	row := r.executor.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get case")
	}
	return c, nil
}

// SaveCase inserts c or replaces the stored row with the same id.
func (r *CaseRepo) SaveCase(ctx context.Context, c *legalcase.Case) error {
	if c == nil || c.ID == "" {
		return errors.InvalidParam("case id is required")
	}
	query := `
		INSERT INTO cases (id, title, case_type, summary, description, key_parties, playbook_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, case_type = EXCLUDED.case_type, summary = EXCLUDED.summary,
			description = EXCLUDED.description, key_parties = EXCLUDED.key_parties,
			playbook_id = EXCLUDED.playbook_id, status = EXCLUDED.status
	`
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.executor.ExecContext(ctx, query,
		c.ID, c.Title, c.CaseType, c.Summary, c.Description, pq.Array(c.KeyParties), c.PlaybookID, statusOrOpen(c.Status), createdAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save case")
	}
	return nil
}

// ListCaseDocuments returns the documents attached to caseID in upload order.
func (r *CaseRepo) ListCaseDocuments(ctx context.Context, caseID string) ([]legalcase.Document, error) {
	rows, err := r.executor.QueryContext(ctx, `
		SELECT id, case_id, name, document_type, uploaded_at
		FROM case_documents WHERE case_id = $1 ORDER BY uploaded_at, id`, caseID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list case documents")
	}
	defer rows.Close()

	docs := make([]legalcase.Document, 0)
	for rows.Next() {
		var d legalcase.Document
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Name, &d.DocumentType, &d.UploadedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan case document")
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate case documents")
	}
	return docs, nil
}

// SaveDocument inserts d or replaces the stored row with the same id.
func (r *CaseRepo) SaveDocument(ctx context.Context, d *legalcase.Document) error {
	if d == nil || d.ID == "" || d.CaseID == "" {
		return errors.InvalidParam("document id and case id are required")
	}
	uploadedAt := d.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}
	_, err := r.executor.ExecContext(ctx, `
		INSERT INTO case_documents (id, case_id, name, document_type, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			case_id = EXCLUDED.case_id, name = EXCLUDED.name, document_type = EXCLUDED.document_type`,
		d.ID, d.CaseID, d.Name, d.DocumentType, uploadedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save case document")
	}
	return nil
}

// SaveDocumentAnalysis stores rec as the completed analysis of its document.
func (r *CaseRepo) SaveDocumentAnalysis(ctx context.Context, rec *legalcase.DocumentAnalysisRecord) error {
	if rec == nil || rec.DocumentID == "" {
		return errors.InvalidParam("document id is required")
	}
	raw, err := encodeJSONB(rec, "document analysis")
	if err != nil {
		return err
	}
	_, err = r.executor.ExecContext(ctx, `
		INSERT INTO document_analyses (document_id, status, analysis, analyzed_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (document_id) DO UPDATE SET
			status = EXCLUDED.status, analysis = EXCLUDED.analysis, analyzed_at = EXCLUDED.analyzed_at`,
		rec.DocumentID, analysisStatusCompleted, raw,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save document analysis")
	}
	return nil
}

// GetDocumentAnalysis returns (nil, nil) when the document has no completed
// analysis.
func (r *CaseRepo) GetDocumentAnalysis(ctx context.Context, documentID string) (*legalcase.DocumentAnalysisRecord, error) {
	var status string
	var raw []byte
	err := r.executor.QueryRowContext(ctx,
		`SELECT status, analysis FROM document_analyses WHERE document_id = $1`, documentID,
	).Scan(&status, &raw)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get document analysis")
	}
	if status != analysisStatusCompleted {
		r.log.Debug("document analysis not completed", logging.String("document_id", documentID), logging.String("status", status))
		return nil, nil
	}

	var rec legalcase.DocumentAnalysisRecord
	if err := decodeJSONB(raw, &rec, "document analysis"); err != nil {
		return nil, err
	}
	if rec.DocumentID == "" {
		rec.DocumentID = documentID
	}
	return &rec, nil
}

func scanCase(row scanner) (*legalcase.Case, error) {
	var c legalcase.Case
	var parties pq.StringArray
	if err := row.Scan(&c.ID, &c.Title, &c.CaseType, &c.Summary, &c.Description, &parties, &c.PlaybookID, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.KeyParties = []string(parties)
	if c.KeyParties == nil {
		c.KeyParties = []string{}
	}
	return &c, nil
}

func statusOrOpen(s string) string {
	if s == "" {
		return "open"
	}
	return s
}

//Personal.AI order the ending
