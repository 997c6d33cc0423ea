package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// corpusSearchFields are matched by every non-empty query.
var corpusSearchFields = []string{"title", "description", "research_areas"}

// CorpusSearcher implements legalcase.CorpusSearcher over the corpus index.
type CorpusSearcher struct {
	client   *Client
	index    string
	pageSize int
	logger   logging.Logger
}

// NewCorpusSearcher builds a searcher over client's corpus index.  The
// configured max_results is the page size of each search request.
func NewCorpusSearcher(client *Client, log logging.Logger) *CorpusSearcher {
	return &CorpusSearcher{
		client:   client,
		index:    client.cfg.CorpusIndex,
		pageSize: client.cfg.MaxResults,
		logger:   log,
	}
}

// Search returns every item whose title, description or research areas
// contain query, ignoring case.  An empty query matches every item.  Results
// are read page by page with search_after on id, so they come back in id
// order however many match.
func (s *CorpusSearcher) Search(ctx context.Context, query string) ([]legalcase.CorpusItem, error) {
	start := time.Now()
	var (
		items []legalcase.CorpusItem
		after []interface{}
		total int64
		pages int
	)
	for {
		page, last, pageTotal, err := s.searchPage(ctx, query, after)
		if err != nil {
			return nil, err
		}
		pages++
		if pages == 1 {
			total = pageTotal
			items = make([]legalcase.CorpusItem, 0, len(page))
		}
		items = append(items, page...)
		if len(page) < s.pageSize || last == nil {
			break
		}
		after = last
	}

	s.logger.Debug("corpus search executed",
		logging.String("query", query),
		logging.Int64("took_ms", time.Since(start).Milliseconds()),
		logging.Int64("total", total),
		logging.Int("pages", pages),
		logging.Int("returned", len(items)))
	return items, nil
}

// searchPage runs one request and returns its items with the sort values of
// the last hit, which seed the next page.
func (s *CorpusSearcher) searchPage(ctx context.Context, query string, after []interface{}) ([]legalcase.CorpusItem, []interface{}, int64, error) {
	body, err := json.Marshal(buildCorpusQuery(query, s.pageSize, after))
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal corpus query")
	}

	req := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}

	resp, err := req.Do(ctx, s.client.GetClient())
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil, 0, errors.Wrap(err, errors.ErrCodeTimeout, "corpus search timed out")
		}
		return nil, nil, 0, errors.Wrap(err, errors.ErrCodeCorpusUnavailable, "corpus search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, nil, 0, handleErrorResponse(resp, errors.ErrCodeCorpusSearchFailed, "corpus search failed")
	}
	return parseCorpusHits(resp.Body)
}

// buildCorpusQuery matches `*query*` case-insensitively on each search field.
// Wildcard metacharacters in the query are escaped so they match literally.
// Hits are sorted on id, with _id breaking ties for documents missing one;
// a non-nil after resumes behind that sort position.
func buildCorpusQuery(query string, size int, after []interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"size": size,
		"sort": []interface{}{
			map[string]interface{}{"id": map[string]interface{}{"order": "asc", "missing": "_last"}},
			map[string]interface{}{"_id": "asc"},
		},
	}
	if after != nil {
		body["search_after"] = after
	}

	q := strings.TrimSpace(query)
	if q == "" {
		body["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		return body
	}

	pattern := "*" + escapeWildcard(strings.ToLower(q)) + "*"
	should := make([]interface{}, 0, len(corpusSearchFields))
	for _, field := range corpusSearchFields {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				field: map[string]interface{}{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		})
	}
	body["query"] = map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
	return body
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func parseCorpusHits(body io.Reader) ([]legalcase.CorpusItem, []interface{}, int64, error) {
	var resp struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
				Sort   []interface{}   `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	items := make([]legalcase.CorpusItem, 0, len(resp.Hits.Hits))
	var last []interface{}
	for _, h := range resp.Hits.Hits {
		var item legalcase.CorpusItem
		if err := json.Unmarshal(h.Source, &item); err != nil {
			return nil, nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode corpus item")
		}
		if item.ID == "" {
			item.ID = h.ID
		}
		if item.ResearchAreas == nil {
			item.ResearchAreas = []string{}
		}
		item.RelevanceScore = 0
		items = append(items, item)
		last = h.Sort
	}
	return items, last, resp.Hits.Total.Value, nil
}

// handleErrorResponse turns an error status into an AppError carrying the
// server's error type and reason when it sent one.
func handleErrorResponse(resp *opensearchapi.Response, code errors.ErrorCode, msg string) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.Newf(code, "%s: %s - %s", msg, errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.Newf(code, "%s: status %d", msg, resp.StatusCode)
}

//Personal.AI order the ending
