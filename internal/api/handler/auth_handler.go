package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"uctenky/backend/config"
	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	authCfg *config.AuthConfig
}

// NewAuthHandler 创建 AuthHandler，authCfg 为 nil 时使用默认 Cookie 设置
func NewAuthHandler(authSvc service.AuthService, authCfg *config.AuthConfig) *AuthHandler {
	if authCfg == nil {
		authCfg = &config.AuthConfig{}
	}
	return &AuthHandler{authSvc: authSvc, authCfg: authCfg}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	maxAge := 0 // 会话 Cookie
	if req.RememberMe {
		maxAge = int(h.authCfg.RefreshTokenTTLRemember.Seconds())
	}
	h.setRefreshCookie(c, result.RefreshToken, maxAge)
	response.OK(c, result)
}

// RefreshToken 刷新 Token，优先读取 Cookie，其次读取请求体
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		response.BadRequest(c, 10001, "缺少 refresh token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, 0)
	response.OK(c, result)
}

// Logout 用户登出：access token 与 refresh token 均加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authSvc.Logout(c.Request.Context(), GetClaims(c), h.refreshTokenFrom(c)); err != nil {
		response.InternalError(c)
		return
	}
	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// GetCurrentUser 获取当前用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 内部辅助方法 ──

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie != "" {
		return cookie
	}
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(sameSite(h.authCfg.Cookie.SameSite))
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath,
		h.authCfg.Cookie.Domain, h.authCfg.Cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(sameSite(h.authCfg.Cookie.SameSite))
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath,
		h.authCfg.Cookie.Domain, h.authCfg.Cookie.Secure, true)
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrUserInactive):
		response.Forbidden(c, 11002, "账号已停用")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, 11003, "登录已失效，请重新登录")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11004, "原密码错误")
	case errors.Is(err, service.ErrSamePassword):
		response.BadRequest(c, 11005, "新密码不能与原密码相同")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
