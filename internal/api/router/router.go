package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uctenky/backend/config"
	"uctenky/backend/internal/api/handler"
	"uctenky/backend/internal/api/middleware"
	"uctenky/backend/internal/model"
	"uctenky/backend/pkg/jwt"
	"uctenky/backend/pkg/ratelimit"
)

// Deps 路由依赖的基础设施；Blacklist 与限流器为 nil 时对应功能降级放行
type Deps struct {
	JWT           *jwt.Manager
	Blacklist     middleware.Blacklist
	LoginLimiter  ratelimit.Limiter
	UploadLimiter ratelimit.Limiter
	// Ping 健康检查时探测数据库，nil 时跳过
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

// multipart 表单在文件之外的额外开销
const multipartOverhead = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	bodyLimit := int64(cfg.Server.BodyLimitMB) << 20
	if uploadLimit := cfg.Upload.MaxBytes() + multipartOverhead; uploadLimit > bodyLimit {
		bodyLimit = uploadLimit
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(bodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.RoleAdmin)
	reviewer := middleware.RoleAuth(model.RoleAdmin, model.RoleHead)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(deps.LoginLimiter), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(deps.JWT, deps.Blacklist, deps.Logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.PUT("/me", h.User.UpdateProfile)
				users.GET("", admin, h.User.ListUsers)
				users.POST("", admin, h.User.CreateUser)
				users.POST("/import", admin, h.User.ImportUsers)
				users.GET("/:id", admin, h.User.GetUser)
				users.PUT("/:id", admin, h.User.UpdateUser)
				users.DELETE("/:id", admin, h.User.DeleteUser)
				users.PUT("/:id/role", admin, h.User.AssignRole)
				users.POST("/:id/reset-password", admin, h.User.ResetPassword)
			}

			// 小组模块
			sections := authorized.Group("/sections")
			{
				sections.GET("", h.Section.ListSections)
				sections.GET("/:id", h.Section.GetSection)
				sections.POST("", admin, h.Section.CreateSection)
				sections.PUT("/:id", admin, h.Section.UpdateSection)
				sections.DELETE("/:id", admin, h.Section.DeleteSection)
				sections.PUT("/:id/head", admin, h.Section.SetHead)
			}

			// 报销单模块（可见范围与编辑权限由 Service 层按调用者判断）
			tickets := authorized.Group("/tickets")
			{
				tickets.GET("", h.Ticket.ListTickets)
				tickets.POST("", h.Ticket.CreateTicket)
				tickets.GET("/:id", h.Ticket.GetTicket)
				tickets.PUT("/:id", h.Ticket.UpdateTicket)
				tickets.DELETE("/:id", h.Ticket.DeleteTicket)
				tickets.POST("/:id/approve", reviewer, h.Ticket.ApproveTicket)
				tickets.POST("/:id/reject", reviewer, h.Ticket.RejectTicket)
				tickets.POST("/:id/complete", admin, h.Ticket.CompleteTicket)
				tickets.GET("/:id/payment-qr", admin, h.Ticket.PaymentQR)
				tickets.GET("/:id/receipts", h.Receipt.ListReceipts)
				tickets.POST("/:id/receipts", middleware.RateLimit(deps.UploadLimiter), h.Receipt.UploadReceipt)
			}

			// 小票模块
			receipts := authorized.Group("/receipts")
			{
				receipts.GET("/:id/file", h.Receipt.DownloadReceipt)
				receipts.DELETE("/:id", h.Receipt.DeleteReceipt)
				receipts.POST("/:id/pay", admin, h.Receipt.PayReceipt)
			}

			// 收银台模块（仅管理员）
			cash := authorized.Group("/cash-register", admin)
			{
				cash.GET("/overview", h.CashRegister.Overview)
				cash.GET("/deposits", h.CashRegister.ListDeposits)
				cash.POST("/deposits", h.CashRegister.CreateDeposit)
				cash.DELETE("/deposits/:id", h.CashRegister.DeleteDeposit)
				cash.GET("/corrections", h.CashRegister.ListCorrections)
				cash.POST("/corrections", h.CashRegister.CreateCorrection)
				cash.DELETE("/corrections/:id", h.CashRegister.DeleteCorrection)
				cash.GET("/counts", h.CashRegister.ListCounts)
				cash.POST("/counts", h.CashRegister.CreateCount)
			}

			// 学期模块
			semesters := authorized.Group("/semesters")
			{
				semesters.GET("", h.Semester.ListSemesters)
				semesters.GET("/current", h.Semester.GetCurrent)
				semesters.GET("/:key", h.Semester.GetSemester)
			}

			// 导出模块
			export := authorized.Group("/export", admin)
			{
				export.GET("/tickets", h.Export.ExportTickets)
				export.GET("/transactions", h.Export.ExportTransactions)
			}
		}
	}

	return r
}
