package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"uctenky/backend/config"
	"uctenky/backend/internal/repository"
	"uctenky/backend/pkg/jwt"
	"uctenky/backend/pkg/mailer"
	"uctenky/backend/pkg/upload"
)

// ObjectStore 小票文件存储（pkg/storage 实现）
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key, filename string) (string, error)
	Remove(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (int64, error)
}

// TokenBlacklist token 黑名单（pkg/redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Deps 外部依赖
type Deps struct {
	Store     ObjectStore
	Blacklist TokenBlacklist
	Mailer    mailer.Sender
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Section      SectionService
	Ticket       TicketService
	Receipt      ReceiptService
	CashRegister CashRegisterService
	Semester     SemesterService
	Export       ExportService
	Notification NotificationService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	loc := cfg.Calendar.Location()
	notifier := NewNotificationService(deps.Mailer, cfg.Server.BaseURL, logger)
	validator := upload.NewValidator(cfg.Upload.MaxBytes(), cfg.Upload.AllowedExtensions)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, deps.Blacklist, logger),
		User:         NewUserService(repo, loc, logger),
		Section:      NewSectionService(repo, loc, logger),
		Ticket:       NewTicketService(repo, notifier, &cfg.Payment, loc, logger),
		Receipt:      NewReceiptService(repo, deps.Store, validator, notifier, loc, logger),
		CashRegister: NewCashRegisterService(repo, loc, logger),
		Semester:     NewSemesterService(repo, loc, logger),
		Export:       NewExportService(repo, loc, logger),
		Notification: notifier,
	}
}
