package handlers

import (
	"log/slog"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the only error shape the API writes.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// RespondError writes err as an ErrorBody and aborts the chain. Server-side
// failures are logged with their cause; the client only sees the message.
func RespondError(ctx *gin.Context, err error) {
	appErr := apperr.From(err, apperr.MsgInternal)
	status := appErr.Kind.HTTPStatus()

	if appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindUnavailable {
		slog.ErrorContext(ctx.Request.Context(), "request_failed",
			"kind", appErr.Kind.String(),
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
			"err", appErr.Err,
		)
	}

	ctx.AbortWithStatusJSON(status, ErrorBody{Error: appErr.Message, Details: appErr.Details})
}
