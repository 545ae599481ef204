package router

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/taskapi/api/handler"
	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/internal/config"
	"github.com/fastygo/taskapi/internal/infrastructure/monitor"
	"github.com/fastygo/taskapi/internal/middleware"
	"github.com/fastygo/taskapi/pkg/httpcontext"
	"github.com/fastygo/taskapi/pkg/passwd"
	"github.com/fastygo/taskapi/pkg/token"
	boltRepo "github.com/fastygo/taskapi/repository/bolt"
	authUC "github.com/fastygo/taskapi/usecase/auth"
	profileUC "github.com/fastygo/taskapi/usecase/profile"
	taskUC "github.com/fastygo/taskapi/usecase/task"
)

type memorySessions struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func (m *memorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memorySessions) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

type apiClient struct {
	t      *testing.T
	client *fasthttp.Client
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r response) message(t *testing.T) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	r.decode(t, &out)
	return out.Message
}

func (r response) fieldErrors(t *testing.T) []domain.FieldError {
	t.Helper()
	var out struct {
		Errors []domain.FieldError `json:"errors"`
	}
	r.decode(t, &out)
	return out.Errors
}

func newServer(t *testing.T) *apiClient {
	t.Helper()

	db, err := boltRepo.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := boltRepo.NewStore(db)

	hasher := passwd.NewBcrypt(bcrypt.MinCost)
	tokens := token.NewManager("router-secret", "taskapi", time.Hour)
	adapter := httpcontext.NewAdapter(5 * time.Second)

	authUseCase := authUC.New(store.Users, &memorySessions{items: map[string]domain.Session{}}, hasher, tokens, nil)

	mon := monitor.New(time.Minute, nil)
	mon.Register("bolt", store.Ping)
	mon.Refresh(context.Background())

	handler := New(Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(store.Users, hasher, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(store.Tasks, nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, adapter, nil),
	}, Middlewares{
		Auth:      middleware.JWTAuth(authUseCase, adapter, nil),
		RateLimit: middleware.RateLimitByIP(config.RateLimitConfig{Enabled: false}, nil),
		Global:    []middleware.Middleware{middleware.CORS([]string{"http://localhost:5173"})},
	})

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	return &apiClient{
		t: t,
		client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (c *apiClient) do(method, path, token, body string) response {
	c.t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://api.test" + path)
	req.Header.SetMethod(method)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	require.NoError(c.t, c.client.Do(req, resp))
	return response{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}
}

func (c *apiClient) register(email string) (string, domain.User) {
	c.t.Helper()
	res := c.do(fasthttp.MethodPost, "/api/auth/register", "",
		`{"name":"Ada","email":"`+email+`","password":"Secret#123"}`)
	require.Equal(c.t, fasthttp.StatusCreated, res.status, string(res.body))
	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	res.decode(c.t, &out)
	require.NotEmpty(c.t, out.Token)
	return out.Token, out.User
}

func (c *apiClient) createTask(token, body string) domain.Task {
	c.t.Helper()
	res := c.do(fasthttp.MethodPost, "/api/tasks", token, body)
	require.Equal(c.t, fasthttp.StatusCreated, res.status, string(res.body))
	var task domain.Task
	res.decode(c.t, &task)
	return task
}

func TestHealth(t *testing.T) {
	c := newServer(t)
	res := c.do(fasthttp.MethodGet, "/api/health", "", "")
	require.Equal(t, fasthttp.StatusOK, res.status)
	var out struct {
		Status   string          `json:"status"`
		Services map[string]bool `json:"services"`
	}
	res.decode(t, &out)
	require.Equal(t, "ok", out.Status)
	require.True(t, out.Services["bolt"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newServer(t)
	for _, route := range [][2]string{
		{fasthttp.MethodGet, "/api/tasks"},
		{fasthttp.MethodPost, "/api/tasks"},
		{fasthttp.MethodGet, "/api/profile/me"},
		{fasthttp.MethodPut, "/api/profile/password"},
		{fasthttp.MethodDelete, "/api/tasks/abc"},
	} {
		res := c.do(route[0], route[1], "", "")
		require.Equal(t, fasthttp.StatusUnauthorized, res.status, route[1])
		require.NotEmpty(t, res.message(t))
	}

	res := c.do(fasthttp.MethodGet, "/api/tasks", "garbage", "")
	require.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestRegisterLoginLogout(t *testing.T) {
	c := newServer(t)
	token, user := c.register("ada@example.com")
	require.Equal(t, "ada@example.com", user.Email)
	require.NotContains(t, c.do(fasthttp.MethodGet, "/api/profile/me", token, "").body, []byte("password"))

	res := c.do(fasthttp.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"nope"}`)
	require.Equal(t, fasthttp.StatusUnauthorized, res.status)
	require.Equal(t, "Invalid email or password", res.message(t))

	res = c.do(fasthttp.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"Secret#123"}`)
	require.Equal(t, fasthttp.StatusOK, res.status)

	res = c.do(fasthttp.MethodPost, "/api/auth/logout", token, "")
	require.Equal(t, fasthttp.StatusOK, res.status)
	res = c.do(fasthttp.MethodGet, "/api/profile/me", token, "")
	require.Equal(t, fasthttp.StatusUnauthorized, res.status)
}

func TestTaskLifecycle(t *testing.T) {
	c := newServer(t)
	token, user := c.register("tasks@example.com")

	task := c.createTask(token, `{"title":"X"}`)
	require.Equal(t, user.ID, task.UserID)
	require.Equal(t, domain.TaskStatusPending, task.Status)
	require.Equal(t, "", task.Description)

	res := c.do(fasthttp.MethodGet, "/api/tasks", token, "")
	require.Equal(t, fasthttp.StatusOK, res.status)
	var list []domain.Task
	res.decode(t, &list)
	require.Len(t, list, 1)
	require.Equal(t, task.ID, list[0].ID)

	res = c.do(fasthttp.MethodPut, "/api/tasks/"+task.ID, token, `{"status":"completed"}`)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var updated domain.Task
	res.decode(t, &updated)
	require.Equal(t, "X", updated.Title)
	require.Equal(t, domain.TaskStatusCompleted, updated.Status)

	res = c.do(fasthttp.MethodGet, "/api/tasks/"+task.ID, token, "")
	require.Equal(t, fasthttp.StatusOK, res.status)

	res = c.do(fasthttp.MethodDelete, "/api/tasks/"+task.ID, token, "")
	require.Equal(t, fasthttp.StatusOK, res.status)
	require.Equal(t, "Task deleted", res.message(t))

	for i := 0; i < 2; i++ {
		res = c.do(fasthttp.MethodDelete, "/api/tasks/"+task.ID, token, "")
		require.Equal(t, fasthttp.StatusNotFound, res.status)
		require.Equal(t, "Task not found", res.message(t))
	}
}

func TestTaskValidationAndMalformedBody(t *testing.T) {
	c := newServer(t)
	token, _ := c.register("valid@example.com")

	res := c.do(fasthttp.MethodPost, "/api/tasks", token, `{"title":"  ","status":"done"}`)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	require.Equal(t, []domain.FieldError{
		{Field: "title", Message: "Title is required"},
		{Field: "status", Message: "Invalid status"},
	}, res.fieldErrors(t))

	res = c.do(fasthttp.MethodPost, "/api/tasks", token, `{"title":`)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	require.Equal(t, "Invalid request body", res.message(t))
}

func TestOwnershipIsIndistinguishableFromMissing(t *testing.T) {
	c := newServer(t)
	alice, _ := c.register("alice@example.com")
	bob, _ := c.register("bob@example.com")
	task := c.createTask(alice, `{"title":"private"}`)

	for _, tc := range []struct{ method, body string }{
		{fasthttp.MethodGet, ""},
		{fasthttp.MethodPut, `{"status":"completed"}`},
		{fasthttp.MethodDelete, ""},
	} {
		res := c.do(tc.method, "/api/tasks/"+task.ID, bob, tc.body)
		require.Equal(t, fasthttp.StatusNotFound, res.status, tc.method)
		require.Equal(t, "Task not found", res.message(t))
	}

	res := c.do(fasthttp.MethodGet, "/api/tasks/"+task.ID, alice, "")
	require.Equal(t, fasthttp.StatusOK, res.status)
	var got domain.Task
	res.decode(t, &got)
	require.Equal(t, domain.TaskStatusPending, got.Status)

	res = c.do(fasthttp.MethodGet, "/api/tasks", bob, "")
	var list []domain.Task
	res.decode(t, &list)
	require.Empty(t, list)
}

func TestProfileAndPassword(t *testing.T) {
	c := newServer(t)
	token, _ := c.register("me@example.com")
	c.register("taken@example.com")

	res := c.do(fasthttp.MethodPut, "/api/profile", token, `{"name":"Grace"}`)
	require.Equal(t, fasthttp.StatusOK, res.status)
	var user domain.User
	res.decode(t, &user)
	require.Equal(t, "Grace", user.Name)
	require.Equal(t, "me@example.com", user.Email)

	res = c.do(fasthttp.MethodPut, "/api/profile", token, `{"email":"taken@example.com"}`)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	require.Equal(t, []domain.FieldError{{Field: "email", Message: "Email is already in use"}}, res.fieldErrors(t))

	res = c.do(fasthttp.MethodPut, "/api/profile/password", token, `{"currentPassword":"Wrong#123","newPassword":"Next#Pass9"}`)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	require.Equal(t, "Current password is incorrect", res.message(t))

	res = c.do(fasthttp.MethodPut, "/api/profile/password", token, `{"currentPassword":"Secret#123","newPassword":"abcdefgh"}`)
	require.Equal(t, fasthttp.StatusBadRequest, res.status)
	require.Len(t, res.fieldErrors(t), 3)

	res = c.do(fasthttp.MethodPut, "/api/profile/password", token, `{"currentPassword":"Secret#123","newPassword":"Next#Pass9"}`)
	require.Equal(t, fasthttp.StatusOK, res.status)
	require.Equal(t, "Password updated successfully", res.message(t))

	res = c.do(fasthttp.MethodGet, "/api/profile/me", token, "")
	require.Equal(t, fasthttp.StatusOK, res.status)

	res = c.do(fasthttp.MethodPost, "/api/auth/login", "", `{"email":"me@example.com","password":"Next#Pass9"}`)
	require.Equal(t, fasthttp.StatusOK, res.status)
}

func TestUnknownRoute(t *testing.T) {
	c := newServer(t)
	res := c.do(fasthttp.MethodGet, "/api/nope", "", "")
	require.Equal(t, fasthttp.StatusNotFound, res.status)
	require.Equal(t, "Not Found - /api/nope", res.message(t))
}
