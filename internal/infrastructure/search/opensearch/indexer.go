package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const defaultBulkBatchSize = 500

// BulkItemError describes one document the cluster rejected.
type BulkItemError struct {
	DocID     string `json:"doc_id"`
	ErrorType string `json:"error_type"`
	Reason    string `json:"reason"`
}

// BulkResult counts the outcome of BulkIndex.
type BulkResult struct {
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors,omitempty"`
}

// CorpusIndexMapping is the mapping of the corpus index.  The searched
// fields are keyword-typed so wildcard queries see the whole value.
func CorpusIndexMapping() map[string]interface{} {
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":             map[string]interface{}{"type": "keyword"},
				"category":       map[string]interface{}{"type": "keyword"},
				"title":          map[string]interface{}{"type": "keyword"},
				"description":    map[string]interface{}{"type": "keyword", "ignore_above": 32766},
				"research_areas": map[string]interface{}{"type": "keyword"},
			},
		},
	}
}

// CorpusIndexer creates the corpus index and loads items into it.
type CorpusIndexer struct {
	client    *Client
	index     string
	batchSize int
	refresh   string
	logger    logging.Logger
}

// IndexerOption configures NewCorpusIndexer.
type IndexerOption func(*CorpusIndexer)

// WithBatchSize bounds the number of items per bulk request.
func WithBatchSize(n int) IndexerOption {
	return func(i *CorpusIndexer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithRefresh sets the refresh policy of write requests ("true", "false" or
// "wait_for").
func WithRefresh(policy string) IndexerOption {
	return func(i *CorpusIndexer) { i.refresh = policy }
}

// NewCorpusIndexer builds an indexer over client's corpus index.
func NewCorpusIndexer(client *Client, log logging.Logger, opts ...IndexerOption) *CorpusIndexer {
	i := &CorpusIndexer{
		client:    client,
		index:     client.cfg.CorpusIndex,
		batchSize: defaultBulkBatchSize,
		refresh:   "false",
		logger:    log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IndexExists reports whether the corpus index exists.
func (i *CorpusIndexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "failed to check corpus index")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, handleErrorResponse(resp, errors.ErrCodeCorpusUnavailable, "check corpus index failed")
}

// EnsureIndex creates the corpus index with CorpusIndexMapping when it is
// missing.  It reports whether the index was created.
func (i *CorpusIndexer) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := i.IndexExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	body, err := json.Marshal(CorpusIndexMapping())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal corpus mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{
		Index: i.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "failed to create corpus index")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return false, handleErrorResponse(resp, errors.ErrCodeCorpusUnavailable, "create corpus index failed")
	}
	i.logger.Info("corpus index created", logging.String("index", i.index))
	return true, nil
}

// BulkIndex writes items in batches, using item.ID as the document id.
// Items the cluster rejects are reported in the result; a transport failure
// aborts the run and returns the partial result with the error.
func (i *CorpusIndexer) BulkIndex(ctx context.Context, items []legalcase.CorpusItem) (*BulkResult, error) {
	result := &BulkResult{}
	for start := 0; start < len(items); start += i.batchSize {
		end := start + i.batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := i.bulkBatch(ctx, items[start:end], result); err != nil {
			return result, err
		}
	}

	i.logger.Info("corpus bulk index completed",
		logging.Int("total", len(items)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

func (i *CorpusIndexer) bulkBatch(ctx context.Context, batch []legalcase.CorpusItem, result *BulkResult) error {
	var buf bytes.Buffer
	sent := 0
	for _, item := range batch {
		if item.ID == "" {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{ErrorType: "validation_error", Reason: "corpus item has no id"})
			continue
		}
		meta, _ := json.Marshal(map[string]interface{}{
			"index": map[string]string{"_index": i.index, "_id": item.ID},
		})
		item.RelevanceScore = 0
		doc, err := json.Marshal(item)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{DocID: item.ID, ErrorType: "serialization_error", Reason: err.Error()})
			continue
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
		sent++
	}
	if sent == 0 {
		return nil
	}

	resp, err := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: i.refresh,
	}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		err := handleErrorResponse(resp, errors.ErrCodeCorpusUnavailable, "bulk batch failed")
		result.Failed += sent
		result.Errors = append(result.Errors, BulkItemError{DocID: "batch_error", ErrorType: "http_error", Reason: err.Error()})
		return nil
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	if !bulkResp.Errors {
		result.Succeeded += len(bulkResp.Items)
		return nil
	}
	for _, entry := range bulkResp.Items {
		// One key per entry: the action name.
		for _, info := range entry {
			if info.Status >= 200 && info.Status < 300 {
				result.Succeeded++
			} else {
				result.Failed++
				result.Errors = append(result.Errors, BulkItemError{
					DocID:     info.ID,
					ErrorType: info.Error.Type,
					Reason:    info.Error.Reason,
				})
			}
		}
	}
	return nil
}

// DeleteIndex drops the corpus index.  A missing index is not an error.
func (i *CorpusIndexer) DeleteIndex(ctx context.Context) error {
	resp, err := opensearchapi.IndicesDeleteRequest{Index: []string{i.index}}.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "failed to delete corpus index")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return handleErrorResponse(resp, errors.ErrCodeCorpusUnavailable, "delete corpus index failed")
	}
	i.logger.Warn("corpus index deleted", logging.String("index", i.index))
	return nil
}

//Personal.AI order the ending
