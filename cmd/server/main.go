// @title         todo-service API
// @version       1.0
// @description   Todo list backend: accounts, bearer-token auth and per-user task management.
// @BasePath      /
// @schemes       http
// @host          localhost:8000
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token. Both "Bearer <JWT>" and a bare "<JWT>" are accepted.
package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	_ "github.com/artem13815/todo/docs"

	// internal imports
	"github.com/artem13815/todo/api/http"
	"github.com/artem13815/todo/api/http/handlers"
	"github.com/artem13815/todo/api/http/middleware"
	"github.com/artem13815/todo/pkg/auth"
	"github.com/artem13815/todo/pkg/config"
	"github.com/artem13815/todo/pkg/health"
	"github.com/artem13815/todo/pkg/health/checkers"
	pgrepo "github.com/artem13815/todo/pkg/repository/postgres"
	"github.com/artem13815/todo/pkg/security/jwt"
	"github.com/artem13815/todo/pkg/storage/postgres"
	"github.com/artem13815/todo/pkg/storage/redis"
	"github.com/artem13815/todo/pkg/task"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from env/.env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := postgres.DefaultOptions(cfg.DatabaseURL)
	opts.PoolSize = cfg.DBPoolSize
	opts.MaxOverflow = cfg.DBMaxOverflow
	opts.PrePing = cfg.DBPrePing
	opts.AcquireTimeout = cfg.DBAcquireTimeout
	opts.QueryLogging = cfg.Debug

	db, err := postgres.Connect(ctx, opts)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatalf("init schema: %v", err)
	}
	log.Infow("database ready", "pool_size", opts.PoolSize, "max_overflow", opts.MaxOverflow)

	// Wire dependencies (Clean Architecture)
	store := pgrepo.NewStore(db)
	readinessChecks := []health.Checker{checkers.NewPostgresChecker(db)}

	var (
		revoker    auth.TokenRevoker
		revocation jwt.RevocationChecker
	)
	if cfg.RedisURL != "" {
		revocations, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer revocations.Close()
		revoker, revocation = revocations, revocations
		readinessChecks = append(readinessChecks, checkers.NewRedisChecker(revocations))
	} else {
		log.Info("REDIS_URL not set: logout will not revoke tokens")
	}

	// Token generator
	jwtGen := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)

	authHandler := handlers.NewAuthHandler(auth.NewAuthService(store, jwtGen, revoker))
	taskHandler := handlers.NewTaskHandler(task.NewService(store))
	healthHandler := handlers.NewHealthHandler(health.NewService(readinessChecks...))

	app := fiber.New(fiber.Config{AppName: "todo-service"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
	}))

	// Register routes
	http.Register(app, http.Routes{
		Auth:        authHandler,
		Tasks:       taskHandler,
		Health:      healthHandler,
		RequireAuth: jwt.NewAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer, revocation),
		AuthLimit:   middleware.NewRateLimiter(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst).Handler(),
	})

	// Swagger UI
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Errorw("graceful shutdown failed", "error", err)
		}
	}()

	// Start server
	log.Infof("HTTP server listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Errorw("server stopped", "error", err)
	}
}
