package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/service"
	pkgerrors "uctenky/backend/pkg/errors"
	"uctenky/backend/pkg/jwt"
	"uctenky/backend/pkg/response"
)

// 与 middleware.JWTAuth 注入的键保持一致
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxSectionID = "section_id"
	ctxClaims    = "claims"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(ctxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 提取完整的调用者身份（用户、角色、小组）
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(ctxRole)
	if role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:    userID,
		Role:      role,
		SectionID: c.GetString(ctxSectionID),
	}, true
}

// GetClaims 当前 access token 的声明，未认证时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// handleCommonError 处理各模块共有的业务错误，已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidSemester):
		response.BadRequest(c, 10007, "学期编号无效")
	case errors.Is(err, service.ErrInvalidTime):
		response.BadRequest(c, 10008, "时间格式无效")
	case errors.Is(err, service.ErrInvalidAmount):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10009, "金额无效", err.Error())
	default:
		return false
	}
	return true
}
