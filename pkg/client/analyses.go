package client

import (
	"context"
	"net/url"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
)

// Response types of the API.
type (
	CaseAnalysis       = legalcase.CaseAnalysisResult
	PlaybookEvaluation = legalcase.PlaybookEvaluation
	RegenerateSummary  = legalcase.RegenerateSummary
	Statistics         = legalcase.Statistics
)

// CasesClient calls the per-case endpoints.
type CasesClient struct {
	client *Client
}

// Analysis fetches the analysis of caseID, recomputing it when force is set
// or the cached one is stale.
func (c *CasesClient) Analysis(ctx context.Context, caseID string, force bool) (*CaseAnalysis, error) {
	path := "/api/v1/cases/" + url.PathEscape(caseID) + "/analysis"
	if force {
		path += "?force=true"
	}
	var out CaseAnalysis
	if err := c.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaybookEvaluation scores caseID from its playbook rules alone.
func (c *CasesClient) PlaybookEvaluation(ctx context.Context, caseID string) (*PlaybookEvaluation, error) {
	var out PlaybookEvaluation
	if err := c.client.get(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/playbook-evaluation", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalysesClient calls the batch and statistics endpoints.
type AnalysesClient struct {
	client *Client
}

// Regenerate force-analyses every case on the server.  It is not retried.
func (c *AnalysesClient) Regenerate(ctx context.Context) (*RegenerateSummary, error) {
	var out RegenerateSummary
	if err := c.client.post(ctx, "/api/v1/analyses/regenerate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics summarises the server's analysis cache.
func (c *AnalysesClient) Statistics(ctx context.Context) (*Statistics, error) {
	var out Statistics
	if err := c.client.get(ctx, "/api/v1/analyses/statistics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
