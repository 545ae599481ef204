package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskapi/api/transport"
	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/httpcontext"
	"github.com/fastygo/taskapi/pkg/logger"
)

// internalErrorMessage is the only thing a client learns about an
// unexpected failure.
const internalErrorMessage = "An unexpected error occurred. Please try again later."

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		body, _ = json.Marshal(transport.NewMessage(internalErrorMessage))
	}
	ctx.SetBody(body)
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	h.respondJSON(ctx, status, transport.NewMessage(message))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	if vErr, ok := domain.AsValidationError(err); ok {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ValidationErrorResponse{Errors: vErr.Fields})
		return
	}

	status := mapError(err)
	if status == http.StatusInternalServerError {
		logger.WithContext(stdCtx, h.logger).Error("request failed",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
		h.respondMessage(ctx, status, internalErrorMessage)
		return
	}

	var dErr *domain.Error
	errors.As(err, &dErr)
	h.respondMessage(ctx, status, dErr.Message)
}

// decode reads the JSON body into dst, answering 400 on malformed input.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondMessage(ctx, http.StatusBadRequest, domain.ErrInvalidPayload.Message)
		return false
	}
	return true
}

// principal returns the authenticated user id, answering 401 when the
// route was reached without one.
func (h baseHandler) principal(ctx *fasthttp.RequestCtx) (string, bool) {
	userID := httpcontext.UserID(ctx)
	if userID == "" {
		h.respondMessage(ctx, http.StatusUnauthorized, domain.ErrUnauthorized.Message)
		return "", false
	}
	return userID, true
}

func mapError(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeInvalid),
		domain.IsDomainError(err, domain.ErrCodeInvalidCredential):
		return http.StatusBadRequest
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
