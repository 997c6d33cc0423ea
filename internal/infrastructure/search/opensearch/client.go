// Package opensearch serves the research corpus from an OpenSearch index.
// Client owns the connection and its health state, CorpusSearcher answers
// the substring queries issued by the research ranker, and CorpusIndexer
// loads corpus items into the index.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/LexCase-Intelligence/internal/config"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const (
	defaultCorpusIndex         = "legal_corpus"
	defaultMaxResults          = 200
	defaultRequestTimeout      = 10 * time.Second
	defaultHealthCheckInterval = 30 * time.Second
)

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "invalid opensearch configuration")
	ErrConnectionFailed = errors.New(errors.ErrCodeCorpusUnavailable, "opensearch connection failed")
)

// Client manages the OpenSearch connection.
type Client struct {
	client    *opensearch.Client
	cfg       config.OpenSearchConfig
	logger    logging.Logger
	healthy   atomic.Bool
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient connects to the cluster and verifies it with a ping.  A
// background loop re-pings every healthInterval (30s when zero) and logs
// transitions between healthy and unhealthy.
func NewClient(cfg config.OpenSearchConfig, healthInterval time.Duration, log logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)
	if healthInterval <= 0 {
		healthInterval = defaultHealthCheckInterval
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: cfg.Timeout,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    2,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "failed to create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{client: client, cfg: cfg, logger: log, cancel: cancel}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer pingCancel()
	if err := c.Ping(pingCtx); err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	go c.runHealthCheck(ctx, healthInterval)

	log.Info("connected to opensearch",
		logging.Strings("addresses", cfg.Addresses),
		logging.String("index", cfg.CorpusIndex))
	return c, nil
}

// Ping checks the connection and records the outcome for IsHealthy.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := opensearchapi.PingRequest{}.Do(ctx, c.client)
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("opensearch ping failed", logging.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("opensearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.Newf(errors.ErrCodeCorpusUnavailable, "ping returned status %d", resp.StatusCode)
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the result of the latest ping.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// Index returns the configured corpus index name.
func (c *Client) Index() string {
	return c.cfg.CorpusIndex
}

// GetClient returns the underlying client.
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// Close stops the health loop.  Subsequent calls are no-ops.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.logger.Info("opensearch client closed")
	})
	return nil
}

func (c *Client) runHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				c.logger.Error("opensearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("opensearch cluster recovered")
			}
		}
	}
}

// ValidateConfig rejects configurations that cannot reach a cluster.
func ValidateConfig(cfg config.OpenSearchConfig) error {
	if len(cfg.Addresses) == 0 {
		return ErrInvalidConfig
	}
	if cfg.MaxResults < 0 {
		return errors.New(errors.ErrCodeValidation, "max_results must be >= 0")
	}
	if cfg.Timeout < 0 {
		return errors.New(errors.ErrCodeValidation, "timeout must be >= 0")
	}
	return nil
}

func withDefaults(cfg config.OpenSearchConfig) config.OpenSearchConfig {
	if cfg.CorpusIndex == "" {
		cfg.CorpusIndex = defaultCorpusIndex
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	return cfg
}

//Personal.AI order the ending
