package router

import (
	"encoding/json"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskapi/api/handler"
	"github.com/fastygo/taskapi/internal/middleware"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

// Middlewares are applied per route group. Global wraps the whole router,
// outermost first.
type Middlewares struct {
	Auth      middleware.Middleware
	RateLimit middleware.Middleware
	Global    []middleware.Middleware
}

func New(handlers Handlers, mw Middlewares) fasthttp.RequestHandler {
	r := router.New()
	r.NotFound = notFound
	r.MethodNotAllowed = methodNotAllowed

	auth := orPass(mw.Auth)
	limit := orPass(mw.RateLimit)

	api := r.Group("/api")
	api.GET("/health", handlers.Health.Check)

	api.POST("/auth/register", limit(handlers.Auth.Register))
	api.POST("/auth/login", limit(handlers.Auth.Login))
	api.POST("/auth/logout", auth(handlers.Auth.Logout))

	api.GET("/profile/me", auth(handlers.Profile.GetProfile))
	api.PUT("/profile", auth(handlers.Profile.UpdateProfile))
	api.PUT("/profile/password", auth(handlers.Profile.ChangePassword))

	api.GET("/tasks", auth(handlers.Task.GetTasks))
	api.POST("/tasks", auth(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", auth(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", auth(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", auth(handlers.Task.DeleteTask))

	return middleware.Chain(r.Handler, mw.Global...)
}

func orPass(mw middleware.Middleware) middleware.Middleware {
	if mw == nil {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	return mw
}

func notFound(ctx *fasthttp.RequestCtx) {
	writeMessage(ctx, http.StatusNotFound, "Not Found - "+string(ctx.Path()))
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeMessage(ctx, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(map[string]string{"message": message})
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
