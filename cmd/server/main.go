package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskapi/api/handler"
	"github.com/fastygo/taskapi/internal/config"
	"github.com/fastygo/taskapi/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/taskapi/internal/infrastructure/redis"
	"github.com/fastygo/taskapi/internal/middleware"
	"github.com/fastygo/taskapi/internal/router"
	"github.com/fastygo/taskapi/internal/services"
	"github.com/fastygo/taskapi/internal/services/lifecycle"
	"github.com/fastygo/taskapi/pkg/httpcontext"
	"github.com/fastygo/taskapi/pkg/logger"
	"github.com/fastygo/taskapi/pkg/passwd"
	"github.com/fastygo/taskapi/pkg/token"
	"github.com/fastygo/taskapi/repository"
	redisRepo "github.com/fastygo/taskapi/repository/redis"
	authUC "github.com/fastygo/taskapi/usecase/auth"
	profileUC "github.com/fastygo/taskapi/usecase/profile"
	taskUC "github.com/fastygo/taskapi/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := services.OpenStore(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("store", store.Close)

	mon := monitor.New(cfg.Monitor.Interval, zapLogger)
	mon.Register(cfg.Storage.Driver, store.Ping)

	var sessionRepo repository.SessionRepository
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		mon.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.JWT.TTL)
	} else {
		zapLogger.Warn("redis disabled, tokens cannot be revoked")
	}

	if err := mon.Start(); err != nil {
		zapLogger.Fatal("monitor start failed", zap.Error(err))
	}
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	hasher := passwd.NewBcrypt(cfg.Password.BcryptCost)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	authUseCase := authUC.New(store.Users, sessionRepo, hasher, tokens, zapLogger)
	profileUseCase := profileUC.New(store.Users, hasher, zapLogger)
	taskUseCase := taskUC.New(store.Tasks, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	handler := router.New(handlers, router.Middlewares{
		Auth:      middleware.JWTAuth(authUseCase, ctxAdapter, zapLogger),
		RateLimit: middleware.RateLimitByIP(cfg.RateLimit, zapLogger),
		Global: []middleware.Middleware{
			middleware.AccessLog(zapLogger),
			middleware.CORS(cfg.CORS.AllowedOrigins),
		},
	})

	server := &fasthttp.Server{
		Handler:            handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
