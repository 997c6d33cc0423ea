package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const lockRetryDelay = 25 * time.Millisecond

// AnalysisStore keeps every cached analysis in one JSON object keyed by case
// id.  Put is a read-modify-write of that object; it holds an in-process
// mutex and an flock on a sidecar lock file for the whole cycle and replaces
// the file by atomic rename, so concurrent writers never drop each other's
// entries.
type AnalysisStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger logging.Logger
}

// NewAnalysisStore returns a store writing to path.
func NewAnalysisStore(path string, logger logging.Logger) *AnalysisStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalysisStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger.Named("analysis_store"),
	}
}

// NewAnalysisStoreInDir returns a store writing to dir/case_analyses.json.
func NewAnalysisStoreInDir(dir string, logger logging.Logger) *AnalysisStore {
	return NewAnalysisStore(filepath.Join(dir, AnalysesFile), logger)
}

func (s *AnalysisStore) Get(ctx context.Context, caseID string) (*legalcase.CaseAnalysisResult, error) {
	all, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := all[caseID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *AnalysisStore) List(ctx context.Context) ([]legalcase.CaseAnalysisResult, error) {
	all, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]legalcase.CaseAnalysisResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, all[id])
	}
	return out, nil
}

func (s *AnalysisStore) Put(ctx context.Context, result *legalcase.CaseAnalysisResult) error {
	if result == nil || result.CaseID == "" {
		return errors.InvalidParam("analysis result without case id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release analysis file lock", logging.Err(err))
		}
	}()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[result.CaseID] = *result
	return s.writeAtomic(all)
}

func (s *AnalysisStore) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to create analysis cache directory")
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to lock analysis cache")
	}
	if !ok {
		return errors.New(errors.ErrCodeAnalysisLocked, "analysis cache is locked")
	}
	return nil
}

// read loads the mapping under the in-process mutex.  Readers never see a
// partially written file because writes go through rename.
func (s *AnalysisStore) read(ctx context.Context) (map[string]legalcase.CaseAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *AnalysisStore) load() (map[string]legalcase.CaseAnalysisResult, error) {
	all := make(map[string]legalcase.CaseAnalysisResult)
	if _, err := readJSON(s.path, &all); err != nil {
		return nil, errors.Propagate(err, errors.ErrCodeCacheError, "failed to load analysis cache")
	}
	return all, nil
}

func (s *AnalysisStore) writeAtomic(all map[string]legalcase.CaseAnalysisResult) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode analysis cache")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write analysis cache")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to sync analysis cache")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to close analysis cache")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to replace analysis cache")
	}
	return nil
}

//Personal.AI order the ending
