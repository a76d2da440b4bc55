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

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/yourusername/quiz-forge/internal/auth"
	"github.com/yourusername/quiz-forge/internal/config"
	"github.com/yourusername/quiz-forge/internal/jobs"
	"github.com/yourusername/quiz-forge/internal/logging"
	"github.com/yourusername/quiz-forge/internal/session"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd は serve サブコマンドを作成します。
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  `HTTP サーバーと、有効な場合はメンテナンスジョブのワーカーを起動します。`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup(cfg.LogFormat, cfg.LogLevel, nil)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// セッションキャッシュ
	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "parse REDIS_URL").Wrap(err)
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.close(context.Background())

	a := &app{
		cfg:         cfg,
		logger:      logger,
		sessions:    session.NewStore(session.NewRedisCache(rdb), logger),
		cookieStore: newCookieStore(cfg),
		repos:       repos,
	}

	if cfg.JobsEnabled {
		manager, err := setupJobs(cfg, rdb, repos, logger)
		if err != nil {
			return oops.Code("JOBS_SETUP_FAILED").Wrap(err)
		}
		manager.StartWorkers()
		defer func() {
			if err := manager.Shutdown(context.Background()); err != nil {
				logger.Warn("failed to stop job workers", "error", err)
			}
		}()
		a.jobs = manager
	}

	router, err := newRouter(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCookieStore は署名・暗号化付きの Cookie ストアを作成します。
func newCookieStore(cfg *config.Config) cookie.Store {
	store := cookie.NewStore(cfg.SessionKeyPairs()...)
	store.Options(session.CookieOptions(cfg.SessionCookieSecure))
	return store
}

// app はルーターの組み立てに必要な依存関係です。
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	sessions    *session.Store
	cookieStore cookie.Store
	repos       *repositories
	// jobs は JOBS_ENABLED=false の場合 nil です。
	jobs *jobs.Manager
	// limiter が nil の場合は既定値を使います。
	limiter *auth.LoginLimiter
}
