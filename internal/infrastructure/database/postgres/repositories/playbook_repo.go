package repositories

import (
	"context"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// PlaybookRepo stores playbook definitions as JSONB documents.  The id and
// case_type columns are authoritative over the copies inside the document.
type PlaybookRepo struct {
	log      logging.Logger
	executor queryExecutor
}

// NewPlaybookRepo builds a PlaybookRepo over conn.
func NewPlaybookRepo(conn *postgres.Connection, log logging.Logger) *PlaybookRepo {
	return &PlaybookRepo{log: log, executor: conn.DB()}
}

// GetPlaybook returns (nil, nil) when no playbook has the given id.
func (r *PlaybookRepo) GetPlaybook(ctx context.Context, id string) (*legalcase.Playbook, error) {
	row := r.executor.QueryRowContext(ctx, `SELECT id, case_type, name, definition FROM playbooks WHERE id = $1`, id)
	pb, err := scanPlaybook(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return pb, nil
}

// ListPlaybooks returns every playbook ordered by id.  A row whose definition
// cannot be decoded is skipped with a warning.
func (r *PlaybookRepo) ListPlaybooks(ctx context.Context) ([]legalcase.Playbook, error) {
	rows, err := r.executor.QueryContext(ctx, `SELECT id, case_type, name, definition FROM playbooks ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list playbooks")
	}
	defer rows.Close()

	out := make([]legalcase.Playbook, 0)
	for rows.Next() {
		pb, err := scanPlaybook(rows)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeSerialization) {
				r.log.Warn("skipping undecodable playbook", logging.Err(err))
				continue
			}
			return nil, err
		}
		out = append(out, *pb)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate playbooks")
	}
	return out, nil
}

// UpsertPlaybook inserts pb or replaces the stored definition with the same
// id.
func (r *PlaybookRepo) UpsertPlaybook(ctx context.Context, pb *legalcase.Playbook) error {
	if pb == nil || pb.ID == "" || pb.CaseType == "" {
		return errors.InvalidParam("playbook id and case_type are required")
	}
	raw, err := encodeJSONB(pb, "playbook")
	if err != nil {
		return err
	}
	_, err = r.executor.ExecContext(ctx, `
		INSERT INTO playbooks (id, case_type, name, definition, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			case_type = EXCLUDED.case_type, name = EXCLUDED.name,
			definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at`,
		pb.ID, pb.CaseType, pb.Name, raw,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save playbook")
	}
	return nil
}

func scanPlaybook(row scanner) (*legalcase.Playbook, error) {
	var id, caseType, name string
	var raw []byte
	if err := row.Scan(&id, &caseType, &name, &raw); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan playbook")
	}
	var pb legalcase.Playbook
	if err := decodeJSONB(raw, &pb, "playbook "+id); err != nil {
		return nil, err
	}
	pb.ID = id
	pb.CaseType = caseType
	if name != "" {
		pb.Name = name
	}
	pb.DecisionTree.FillNodeIDs()
	return &pb, nil
}

//Personal.AI order the ending
