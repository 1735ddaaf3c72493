package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/panelkit/panelkit/internal/app"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/modules"
	"github.com/panelkit/panelkit/internal/platform/cache"
	"github.com/panelkit/panelkit/internal/platform/db"
	"github.com/panelkit/panelkit/internal/rbac"
	"github.com/panelkit/panelkit/internal/roles"
	roleshttp "github.com/panelkit/panelkit/internal/roles/http"
	"github.com/panelkit/panelkit/internal/users"
	"github.com/panelkit/panelkit/jobs"
)

// moduleResolver adapts the module registry service to the role store's
// resolver port.
type moduleResolver struct {
	svc *modules.Service
}

func (a moduleResolver) ResolveNames(ctx context.Context, names []string) (map[string]roles.ModuleRef, error) {
	mods, err := a.svc.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]roles.ModuleRef, len(mods))
	for _, m := range mods {
		refs[m.Name] = roles.ModuleRef{ID: m.ID, Name: m.Name, Label: m.Label}
	}
	return refs, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditClient := jobs.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() {
		if err := auditClient.Close(); err != nil {
			logger.Warn("audit client close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	revoked := auth.NewRevocationList(redisClient)
	gate := auth.Gate{Tokens: tokens, Revoked: revoked, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, revoked)
	authHandler := auth.NewHandler(logger, authService, gate)

	modulesRepo := modules.NewRepository(pool)
	modulesService := modules.NewService(modulesRepo)

	rolesRepo := roles.NewRepository(pool)
	rolesService := roles.NewService(logger, rolesRepo, moduleResolver{svc: modulesService}, auditClient)

	guard := rbac.NewMiddleware(rolesService, logger, auditClient)

	rolesHandler := roleshttp.NewHandler(logger, rolesService, guard)
	modulesHandler := modules.NewHandler(logger, modulesService, guard)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, auditClient)
	usersHandler := users.NewHandler(logger, usersService, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Gate:           gate,
		AuthHandler:    authHandler,
		RolesHandler:   rolesHandler,
		ModulesHandler: modulesHandler,
		UsersHandler:   usersHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
