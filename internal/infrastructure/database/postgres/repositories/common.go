package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// queryExecutor is satisfied by both *sql.DB and *sql.Tx, so a repository
// can be rebound to a transaction.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner is *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func isNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

// encodeJSONB marshals v for a JSONB column.
func encodeJSONB(v interface{}, what string) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode "+what)
	}
	return raw, nil
}

func decodeJSONB(raw []byte, dest interface{}, what string) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode "+what)
	}
	return nil
}

//Personal.AI order the ending
