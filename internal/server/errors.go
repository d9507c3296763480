package server

import (
	"errors"
	"net/http"

	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"github.com/gin-gonic/gin"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var backfillErr *ledgerdomain.BackfillError

	switch {
	case errors.Is(err, ledgerdomain.ErrInvalidUser),
		errors.Is(err, filefeeddomain.ErrInvalidFile),
		errors.Is(err, filefeeddomain.ErrInvalidStatus),
		errors.Is(err, filefeeddomain.ErrInvalidSize),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	// Retryable: the total is unknown, not zero. Quota callers must block
	// potentially-over-quota writes until a retry succeeds.
	case errors.Is(err, ledgerdomain.ErrAggregationUnavailable),
		errors.As(err, &backfillErr):
		return http.StatusServiceUnavailable, errorPayload{Type: "retry_later", Message: err.Error()}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: ErrInternal.Error()}
	}
}
