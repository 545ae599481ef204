package middleware

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/httpcontext"
	"github.com/fastygo/taskapi/pkg/logger"
	"github.com/fastygo/taskapi/pkg/token"
)

// Authenticator resolves a raw bearer token to its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*token.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and records the
// principal on the request for the handlers.
func JWTAuth(auth Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := extractToken(ctx)
			if raw == "" {
				writeMessage(ctx, fasthttp.StatusUnauthorized, "Not authorized, no token")
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			claims, err := auth.Authenticate(stdCtx, raw)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.WithContext(stdCtx, log).Debug("rejected token", zap.Error(err))
					writeMessage(ctx, fasthttp.StatusUnauthorized, "Not authorized, token failed")
					return
				}
				logger.WithContext(stdCtx, log).Error("token check failed", zap.Error(err))
				writeMessage(ctx, fasthttp.StatusInternalServerError, "An unexpected error occurred. Please try again later.")
				return
			}

			httpcontext.SetUserID(ctx, claims.UserID)
			httpcontext.SetSessionID(ctx, claims.SessionID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
