package redis

import (
	"context"
	"time"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const (
	playbookKeyPrefix = "playbook:"
	playbookListKey   = "playbooks:all"
)

// CachedPlaybookRepository serves playbook reads through a Cache.  Playbooks
// change rarely and are read on every analysis, so one entry per id plus one
// for the full list is enough.
type CachedPlaybookRepository struct {
	next   legalcase.PlaybookRepository
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewCachedPlaybookRepository wraps next.
func NewCachedPlaybookRepository(next legalcase.PlaybookRepository, cache Cache, ttl time.Duration, log logging.Logger) *CachedPlaybookRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedPlaybookRepository{next: next, cache: cache, ttl: ttl, logger: log}
}

// GetPlaybook returns (nil, nil) for an unknown id, remembering the miss for
// the cache's negative TTL.
func (r *CachedPlaybookRepository) GetPlaybook(ctx context.Context, id string) (*legalcase.Playbook, error) {
	var pb legalcase.Playbook
	err := r.cache.GetOrSet(ctx, playbookKeyPrefix+id, &pb, r.ttl, func(ctx context.Context) (interface{}, error) {
		found, err := r.next.GetPlaybook(ctx, id)
		if err != nil || found == nil {
			return nil, err
		}
		return found, nil
	})
	if err != nil {
		if err == ErrCacheMiss {
			return nil, nil
		}
		return nil, err
	}
	return &pb, nil
}

// ListPlaybooks returns the cached list or loads and caches it.
func (r *CachedPlaybookRepository) ListPlaybooks(ctx context.Context) ([]legalcase.Playbook, error) {
	var pbs []legalcase.Playbook
	err := r.cache.GetOrSet(ctx, playbookListKey, &pbs, r.ttl, func(ctx context.Context) (interface{}, error) {
		return r.next.ListPlaybooks(ctx)
	})
	if err != nil {
		if err == ErrCacheMiss {
			return []legalcase.Playbook{}, nil
		}
		return nil, err
	}
	if pbs == nil {
		pbs = []legalcase.Playbook{}
	}
	return pbs, nil
}

// Invalidate drops every cached playbook entry.
func (r *CachedPlaybookRepository) Invalidate(ctx context.Context) error {
	if err := r.cache.Delete(ctx, playbookListKey); err != nil {
		return err
	}
	n, err := r.cache.DeleteByPrefix(ctx, playbookKeyPrefix)
	if err != nil {
		return errors.Propagate(err, errors.ErrCodeCacheError, "failed to invalidate playbook cache")
	}
	r.logger.Info("playbook cache invalidated", logging.Int64("entries", n))
	return nil
}

//Personal.AI order the ending
