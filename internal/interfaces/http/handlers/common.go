// Package handlers implements the gin handlers of the HTTP API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps err to its HTTP status.  Internal failures are masked.
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	msg := err.Error()
	if code == errors.ErrCodeInternal {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: msg, Code: code.String()})
}

// writeOutcomeError renders a failed AnalysisOutcome.
func writeOutcomeError(c *gin.Context, code errors.ErrorCode, msg string) {
	c.JSON(errors.HTTPStatusForCode(code), ErrorResponse{Error: msg, Code: code.String()})
}

//Personal.AI order the ending
