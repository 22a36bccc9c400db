package handlers

import (
	"net/http"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// OutcomeResponse is the body of every workflow answer: the notice to show and
// where the presentation layer should go next.
type OutcomeResponse struct {
	Notice   *account.Notice `json:"notice,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// RespondOutcomeError is RespondError plus the notice/redirect pair of a workflow result.
func RespondOutcomeError(ctx *gin.Context, status int, code string, res account.Result) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   res.Notice.Message,
			RequestID: requestIDFrom(ctx),
		},
		"notice":   res.Notice,
		"redirect": res.Redirect,
	})
}

func RespondOutcome(ctx *gin.Context, status int, res account.Result) {
	out := OutcomeResponse{Redirect: res.Redirect}

	if res.Notice.Message != "" {
		n := res.Notice
		out.Notice = &n
	}

	ctx.JSON(status, out)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
