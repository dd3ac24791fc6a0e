package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

// SectionHandler 小组模块 HTTP 处理器
type SectionHandler struct {
	sectionSvc service.SectionService
}

// NewSectionHandler 创建 SectionHandler
func NewSectionHandler(sectionSvc service.SectionService) *SectionHandler {
	return &SectionHandler{sectionSvc: sectionSvc}
}

// ListSections 小组列表
// GET /api/v1/sections
func (h *SectionHandler) ListSections(c *gin.Context) {
	var req dto.SectionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	sections, err := h.sectionSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sections})
}

// GetSection 小组详情
// GET /api/v1/sections/:id
func (h *SectionHandler) GetSection(c *gin.Context) {
	section, err := h.sectionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, section)
}

// CreateSection 创建小组（管理员）
// POST /api/v1/sections
func (h *SectionHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	section, err := h.sectionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.Created(c, section)
}

// UpdateSection 更新小组（管理员）
// PUT /api/v1/sections/:id
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	var req dto.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	section, err := h.sectionSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, section)
}

// DeleteSection 删除小组（管理员）
// DELETE /api/v1/sections/:id
func (h *SectionHandler) DeleteSection(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sectionSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetHead 指定组长（管理员）
// PUT /api/v1/sections/:id/head
func (h *SectionHandler) SetHead(c *gin.Context) {
	var req dto.SetSectionHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	section, err := h.sectionSvc.SetHead(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSectionError(c, err)
		return
	}

	response.OK(c, section)
}

func (h *SectionHandler) handleSectionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 13001, "小组不存在")
	case errors.Is(err, service.ErrSectionNameExists):
		response.Conflict(c, 13002, "小组名称已存在")
	case errors.Is(err, service.ErrSectionHasOpenTickets):
		response.Conflict(c, 13003, "小组下存在未完成的报销单，无法删除")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
