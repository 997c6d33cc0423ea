package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// AnalysesHash is the key (under the client prefix) of the hash holding every
// cached analysis, one field per case id.
const AnalysesHash = "case_analyses"

// AnalysisStore keeps CaseAnalysisResults in a single Redis hash.  HSET
// replaces one field atomically, so concurrent writers for different cases
// never clobber each other.
type AnalysisStore struct {
	client *Client
	key    string
	logger logging.Logger
}

// NewAnalysisStore builds an AnalysisStore over client.
func NewAnalysisStore(client *Client, log logging.Logger) *AnalysisStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnalysisStore{client: client, key: client.Key(AnalysesHash), logger: log}
}

// Get returns (nil, nil) when caseID has no entry.
func (s *AnalysisStore) Get(ctx context.Context, caseID string) (*legalcase.CaseAnalysisResult, error) {
	rdb, err := s.client.cmdable()
	if err != nil {
		return nil, err
	}
	raw, err := rdb.HGet(ctx, s.key, caseID).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read cached analysis")
	}
	var result legalcase.CaseAnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached analysis")
	}
	return &result, nil
}

// Put replaces the entry for result.CaseID.
func (s *AnalysisStore) Put(ctx context.Context, result *legalcase.CaseAnalysisResult) error {
	if result == nil || result.CaseID == "" {
		return errors.InvalidParam("analysis result must carry a case id")
	}
	rdb, err := s.client.cmdable()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analysis")
	}
	if err := rdb.HSet(ctx, s.key, result.CaseID, raw).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write cached analysis")
	}
	return nil
}

// List returns every entry ordered by case id.  Entries that fail to decode
// are skipped with a warning.
func (s *AnalysisStore) List(ctx context.Context) ([]legalcase.CaseAnalysisResult, error) {
	rdb, err := s.client.cmdable()
	if err != nil {
		return nil, err
	}
	fields, err := rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to list cached analyses")
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]legalcase.CaseAnalysisResult, 0, len(ids))
	for _, id := range ids {
		var result legalcase.CaseAnalysisResult
		if err := json.Unmarshal([]byte(fields[id]), &result); err != nil {
			s.logger.Warn("skipping undecodable cached analysis", logging.CaseID(id), logging.Err(err))
			continue
		}
		out = append(out, result)
	}
	return out, nil
}

//Personal.AI order the ending
