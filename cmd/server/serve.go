package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"uctenky/backend/internal/api/handler"
	"uctenky/backend/internal/api/router"
	"uctenky/backend/internal/repository"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/database"
	"uctenky/backend/pkg/jwt"
	"uctenky/backend/pkg/mailer"
	"uctenky/backend/pkg/ratelimit"
	"uctenky/backend/pkg/redis"
	"uctenky/backend/pkg/storage"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "启动 HTTP 服务（支持优雅关闭）",
	PreRunE: loadRuntime,
	PostRun: syncLogger,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Calendar.Timezone),
	)

	// 1. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	defer closeDB(db)
	logger.Info("数据库连接成功")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if !skipMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	// 2. 对象存储（小票文件）
	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return err
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = store.EnsureBucket(bucketCtx)
	cancel()
	if err != nil {
		return err
	}

	// 3. Redis（可选：连接失败时黑名单失效、限流退回进程内存）
	deps := router.Deps{Logger: logger, Ping: sqlDB.PingContext}
	svcDeps := service.Deps{Store: store}

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单不可用，限流使用进程内存", zap.Error(err))
		login := ratelimit.NewMemory(ratelimit.Rule{Limit: cfg.RateLimit.LoginLimit, Window: cfg.RateLimit.LoginWindow}, 0)
		up := ratelimit.NewMemory(ratelimit.Rule{Limit: cfg.RateLimit.UploadLimit, Window: cfg.RateLimit.UploadWindow}, 0)
		defer login.Close()
		defer up.Close()
		deps.LoginLimiter, deps.UploadLimiter = login, up
	} else {
		defer rdb.Close()
		deps.Blacklist = rdb
		svcDeps.Blacklist = rdb
		deps.LoginLimiter = ratelimit.NewRedis(rdb, "login",
			ratelimit.Rule{Limit: cfg.RateLimit.LoginLimit, Window: cfg.RateLimit.LoginWindow})
		deps.UploadLimiter = ratelimit.NewRedis(rdb, "upload",
			ratelimit.Rule{Limit: cfg.RateLimit.UploadLimit, Window: cfg.RateLimit.UploadWindow})
	}

	// 4. 邮件
	sender, err := mailer.New(&cfg.Mail, logger)
	if err != nil {
		return err
	}
	svcDeps.Mailer = sender

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	deps.JWT = jwtMgr

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, svcDeps, logger)
	defer svc.Notification.Close()
	h := handler.NewHandler(svc, cfg)

	// 6. HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.Setup(cfg, h, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second, // 上传小票
		WriteTimeout:      60 * time.Second, // 导出
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 服务器异常: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("收到关闭信号，开始优雅关闭...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("服务器关闭异常", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	logger.Info("服务器已关闭")
	return err
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
