package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

// CashRegisterHandler 收银台模块 HTTP 处理器（仅管理员）
type CashRegisterHandler struct {
	cashSvc service.CashRegisterService
}

// NewCashRegisterHandler 创建 CashRegisterHandler
func NewCashRegisterHandler(cashSvc service.CashRegisterService) *CashRegisterHandler {
	return &CashRegisterHandler{cashSvc: cashSvc}
}

// Overview 收银台概览
// GET /api/v1/cash-register/overview?semester=ZS25
func (h *CashRegisterHandler) Overview(c *gin.Context) {
	var req dto.OverviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	overview, err := h.cashSvc.Overview(c.Request.Context(), &req)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OK(c, overview)
}

// ── 存入 ──

// CreateDeposit 记录一笔存入
// POST /api/v1/cash-register/deposits
func (h *CashRegisterHandler) CreateDeposit(c *gin.Context) {
	var req dto.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	deposit, err := h.cashSvc.CreateDeposit(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.Created(c, deposit)
}

// ListDeposits GET /api/v1/cash-register/deposits
func (h *CashRegisterHandler) ListDeposits(c *gin.Context) {
	var req dto.CashRegisterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	deposits, total, err := h.cashSvc.ListDeposits(c.Request.Context(), &req)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OKPage(c, deposits, total, req.GetPage(), req.GetPageSize())
}

// DeleteDeposit DELETE /api/v1/cash-register/deposits/:id
func (h *CashRegisterHandler) DeleteDeposit(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.cashSvc.DeleteDeposit(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 欠款修正 ──

// CreateCorrection 记录欠款修正，金额可为负
// POST /api/v1/cash-register/corrections
func (h *CashRegisterHandler) CreateCorrection(c *gin.Context) {
	var req dto.CreateDebtCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	correction, err := h.cashSvc.CreateCorrection(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.Created(c, correction)
}

// ListCorrections GET /api/v1/cash-register/corrections
func (h *CashRegisterHandler) ListCorrections(c *gin.Context) {
	var req dto.CashRegisterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	corrections, total, err := h.cashSvc.ListCorrections(c.Request.Context(), &req)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OKPage(c, corrections, total, req.GetPage(), req.GetPageSize())
}

// DeleteCorrection DELETE /api/v1/cash-register/corrections/:id
func (h *CashRegisterHandler) DeleteCorrection(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.cashSvc.DeleteCorrection(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 现金盘点 ──

// CreateCount 记录一次现金盘点
// POST /api/v1/cash-register/counts
func (h *CashRegisterHandler) CreateCount(c *gin.Context) {
	var req dto.CreateCashCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.cashSvc.CreateCount(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.Created(c, count)
}

// ListCounts GET /api/v1/cash-register/counts
func (h *CashRegisterHandler) ListCounts(c *gin.Context) {
	var req dto.CashRegisterListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	counts, total, err := h.cashSvc.ListCounts(c.Request.Context(), &req)
	if err != nil {
		h.handleCashRegisterError(c, err)
		return
	}

	response.OKPage(c, counts, total, req.GetPage(), req.GetPageSize())
}

func (h *CashRegisterHandler) handleCashRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepositNotFound):
		response.NotFound(c, 16001, "存入记录不存在")
	case errors.Is(err, service.ErrCorrectionNotFound):
		response.NotFound(c, 16002, "欠款修正记录不存在")
	case errors.Is(err, service.ErrZeroCorrection):
		response.BadRequest(c, 16003, "修正金额不能为 0")
	case errors.Is(err, service.ErrNegativeCount):
		response.BadRequest(c, 16004, "盘点金额不能为负")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
