package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babel/internal/config"
	"babel/internal/db"
	"babel/internal/logger"
	"babel/internal/middleware"
	"babel/internal/repository"
	"babel/internal/router"
	"babel/internal/services"
	"babel/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "babel",
		Short: "Babel discussion board: feeds, engagement counters and moderation",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE:  func(cmd *cobra.Command, args []string) error { return migrate() },
		},
		&cobra.Command{
			Use:   "recount",
			Short: "Recompute vote, comment and report counters from their rows",
			RunE:  func(cmd *cobra.Command, args []string) error { return recount(cmd.Context()) },
		},
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and the global logger shared by every command.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Server.Env); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func serve() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := db.Init(cfg.Database); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	store := repository.NewStore(db.DB, cfg.Moderation.ReportThreshold)
	svc := services.New(store, cache, cfg, nil)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	r.Use(sessions.Sessions("babel_session", sessionStore))
	r.Use(middleware.LoadUser(store.Users))

	router.RegisterRoutes(r, svc, store)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Babel server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server shut down unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildCache picks the ranked-feed cache backend.
func buildCache(ctx context.Context, cfg *config.Config) (utils.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client, err := utils.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("using redis feed cache")
		return utils.NewRedisCache(client, "babel:"), func() { _ = client.Close() }, nil
	default:
		c, err := utils.NewMemoryCache(cfg.Cache.Size)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
}

func migrate() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}
	logger.Info("schema migrated")
	return nil
}

func recount(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return err
	}
	store := repository.NewStore(conn, cfg.Moderation.ReportThreshold)
	return services.NewEngagementService(store, cfg.Karma.PerVote, nil).RecountCounters(ctx)
}
