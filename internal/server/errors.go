package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sdmxhttp "github.com/nucleus/sdmx-core/internal/connector/http"
	"github.com/nucleus/sdmx-core/internal/core"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Upstream  int    `json:"upstream_status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// statusOf maps an error to an HTTP status and code. Malformed input is a
// 400, structurally valid input the data cannot satisfy is a 422 and
// upstream failures are a 502.
func statusOf(err error) (int, string, int) {
	var httpErr *sdmxhttp.HTTPError
	if errors.As(err, &httpErr) {
		return http.StatusBadGateway, httpErr.CodeValue(), httpErr.StatusCode
	}

	code := core.CodeOf(err)
	switch code {
	case core.CodeDegenerateSelection, core.CodeUnknownComponent, core.CodeColumnNotFound:
		return http.StatusBadRequest, string(code), 0
	case core.CodeLookupFailure, core.CodeTypeCoercion, core.CodeUndefinedRatio,
		core.CodeNoStructure, core.CodeSchemaAmbiguity:
		return http.StatusUnprocessableEntity, string(code), 0
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "", 0
	case errors.Is(err, context.Canceled):
		return 499, "", 0
	}
	return http.StatusInternalServerError, "", 0
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code, upstream := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "path", c.FullPath(), "status", status, "error", err,
			requestIDKey, c.GetString(requestIDKey))
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     err.Error(),
		Code:      code,
		Upstream:  upstream,
		RequestID: c.GetString(requestIDKey),
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error:     "invalid request body: " + err.Error(),
		RequestID: c.GetString(requestIDKey),
	})
}
