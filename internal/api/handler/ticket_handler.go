package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

// TicketHandler 报销单模块 HTTP 处理器
type TicketHandler struct {
	ticketSvc service.TicketService
}

// NewTicketHandler 创建 TicketHandler
func NewTicketHandler(ticketSvc service.TicketService) *TicketHandler {
	return &TicketHandler{ticketSvc: ticketSvc}
}

// CreateTicket 创建报销单
// POST /api/v1/tickets
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.Created(c, ticket)
}

// ListTickets 报销单列表（按调用者可见范围过滤）
// GET /api/v1/tickets?semester=ZS25&status=&section_id=&mine=
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var req dto.TicketListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	tickets, total, err := h.ticketSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OKPage(c, tickets, total, req.GetPage(), req.GetPageSize())
}

// GetTicket 报销单详情（含小票）
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// UpdateTicket 修改报销单
// PUT /api/v1/tickets/:id
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	var req dto.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// DeleteTicket 删除报销单
// DELETE /api/v1/tickets/:id
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.ticketSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, nil)
}

// ApproveTicket 批准报销单（管理员或组长）
// POST /api/v1/tickets/:id/approve
func (h *TicketHandler) ApproveTicket(c *gin.Context) {
	var req dto.ReviewTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Approve(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// RejectTicket 驳回报销单（管理员或组长，需填写原因）
// POST /api/v1/tickets/:id/reject
func (h *TicketHandler) RejectTicket(c *gin.Context) {
	var req dto.RejectTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Reject(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// CompleteTicket 结单（管理员）
// POST /api/v1/tickets/:id/complete
func (h *TicketHandler) CompleteTicket(c *gin.Context) {
	var req dto.ReviewTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	ticket, err := h.ticketSvc.Complete(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	response.OK(c, ticket)
}

// PaymentQR 转账二维码（管理员）；format=png 时直接返回图片
// GET /api/v1/tickets/:id/payment-qr
func (h *TicketHandler) PaymentQR(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	qr, err := h.ticketSvc.PaymentQR(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleTicketError(c, err)
		return
	}

	if c.Query("format") == "png" {
		png, err := base64.StdEncoding.DecodeString(qr.QRBase64)
		if err != nil {
			response.InternalError(c)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", png)
		return
	}

	response.OK(c, qr)
}

func (h *TicketHandler) handleTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		response.NotFound(c, 14001, "报销单不存在")
	case errors.Is(err, service.ErrTicketTitleEmpty):
		response.BadRequest(c, 14011, "标题不能为空")
	case errors.Is(err, service.ErrTicketNotEditable):
		response.Conflict(c, 14002, "报销单已审批，不能修改")
	case errors.Is(err, service.ErrTicketNotPending):
		response.Conflict(c, 14003, "报销单不在待审批状态")
	case errors.Is(err, service.ErrTicketNotVerification):
		response.Conflict(c, 14004, "报销单尚未进入核销阶段")
	case errors.Is(err, service.ErrTicketNoReceipts):
		response.Conflict(c, 14005, "报销单没有小票")
	case errors.Is(err, service.ErrTicketUnpaidReceipts):
		response.Conflict(c, 14006, "报销单仍有未报销的小票")
	case errors.Is(err, service.ErrTicketHasPaidReceipts):
		response.Conflict(c, 14007, "报销单存在已报销的小票，不能删除")
	case errors.Is(err, service.ErrTicketSelfReview):
		response.Forbidden(c, 14008, "不能审批自己的报销单")
	case errors.Is(err, service.ErrTicketNothingToPay):
		response.Conflict(c, 14009, "报销单没有待支付金额")
	case errors.Is(err, service.ErrRequesterNoBankAccount):
		response.Conflict(c, 14010, "申请人未填写银行账号")
	case errors.Is(err, service.ErrInvalidBankAccount):
		response.ErrorWithDetails(c, http.StatusConflict, 12006, "申请人银行账号无效", err.Error())
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 13001, "小组不存在")
	case errors.Is(err, service.ErrSectionInactive):
		response.BadRequest(c, 13004, "小组已停用")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
