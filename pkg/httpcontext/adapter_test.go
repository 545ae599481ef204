package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskapi/pkg/logger"
)

func TestAttachCarriesRequestMetadata(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "req-42")
	rc.Request.Header.SetUserAgent("tests")
	SetUserID(&rc, "user-7")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
	require.Equal(t, "req-42", appLogger.RequestID(ctx))
	require.Equal(t, "tests", UserAgent(ctx))
	require.Equal(t, "req-42", string(rc.Response.Header.Peek("X-Request-ID")))
	require.Equal(t, "user-7", UserID(&rc))
}

func TestRequestIDIsStablePerRequest(t *testing.T) {
	var rc fasthttp.RequestCtx
	first := RequestID(&rc)
	require.NotEmpty(t, first)
	require.Equal(t, first, RequestID(&rc))
}

func TestUserIDAnonymous(t *testing.T) {
	var rc fasthttp.RequestCtx
	require.Empty(t, UserID(&rc))
	require.Empty(t, UserID(nil))
}

func TestSessionID(t *testing.T) {
	var rc fasthttp.RequestCtx
	require.Empty(t, SessionID(&rc))
	SetSessionID(&rc, "sess-1")
	require.Equal(t, "sess-1", SessionID(&rc))
	require.Empty(t, SessionID(nil))
}
