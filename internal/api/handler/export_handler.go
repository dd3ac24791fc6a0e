package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器（仅管理员）
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTickets 导出报销单
// GET /api/v1/export/tickets?semester=ZS25&format=csv|xlsx
func (h *ExportHandler) ExportTickets(c *gin.Context) {
	h.export(c, h.exportSvc.ExportTickets)
}

// ExportTransactions 导出收银台流水
// GET /api/v1/export/transactions?semester=ZS25&format=csv|xlsx
func (h *ExportHandler) ExportTransactions(c *gin.Context) {
	h.export(c, h.exportSvc.ExportTransactions)
}

func (h *ExportHandler) export(c *gin.Context, fn func(ctx context.Context, req *dto.ExportRequest) (*service.ExportFile, error)) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 18001, "导出格式无效")
		return
	}

	file, err := fn(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Cache-Control", "no-store")
	response.Attachment(c, file.ContentType, file.Filename, file.Body.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 18001, "导出格式无效")
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
