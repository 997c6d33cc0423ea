package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LexCase-Intelligence/internal/application/caseanalysis"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// CaseHandler exposes the case analysis service.
type CaseHandler struct {
	svc    caseanalysis.Service
	logger logging.Logger
}

// NewCaseHandler creates a CaseHandler.
func NewCaseHandler(svc caseanalysis.Service, logger logging.Logger) *CaseHandler {
	return &CaseHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the case and analysis routes on rg.
func (h *CaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cases := rg.Group("/cases/:id")
	cases.GET("/analysis", h.GetAnalysis)
	cases.GET("/playbook-evaluation", h.GetPlaybookEvaluation)

	analyses := rg.Group("/analyses")
	analyses.POST("/regenerate", h.Regenerate)
	analyses.GET("/statistics", h.Statistics)
}

// GetAnalysis handles GET /cases/:id/analysis[?force=true].
func (h *CaseHandler) GetAnalysis(c *gin.Context) {
	force := false
	if v := c.Query("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(c, errors.InvalidParam("force must be a boolean").WithDetail(v))
			return
		}
		force = b
	}

	outcome := h.svc.AnalyzeCase(c.Request.Context(), c.Param("id"), force)
	if outcome.Failed() {
		writeOutcomeError(c, outcome.Code, outcome.Error)
		return
	}
	c.JSON(http.StatusOK, outcome.Result)
}

// GetPlaybookEvaluation handles GET /cases/:id/playbook-evaluation.
func (h *CaseHandler) GetPlaybookEvaluation(c *gin.Context) {
	eval, err := h.svc.EvaluatePlaybook(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, eval)
}

// Regenerate handles POST /analyses/regenerate.  A run interrupted by the
// client still reports the partial summary.
func (h *CaseHandler) Regenerate(c *gin.Context) {
	summary, err := h.svc.RegenerateAll(c.Request.Context())
	if err != nil {
		if summary != nil {
			h.logger.Warn("regeneration returned partial summary", logging.Err(err))
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Statistics handles GET /analyses/statistics.
func (h *CaseHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

//Personal.AI order the ending
