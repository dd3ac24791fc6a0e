package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
	"uctenky/backend/pkg/upload"
)

// ReceiptHandler 小票模块 HTTP 处理器
type ReceiptHandler struct {
	receiptSvc service.ReceiptService
}

// NewReceiptHandler 创建 ReceiptHandler
func NewReceiptHandler(receiptSvc service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptSvc: receiptSvc}
}

// UploadReceipt 上传小票
// POST /api/v1/tickets/:id/receipts   multipart: file, amount, vendor, purchased_at
func (h *ReceiptHandler) UploadReceipt(c *gin.Context) {
	var form dto.UploadReceiptForm
	if err := c.ShouldBind(&form); err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 15007, "文件过大")
			return
		}
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 15007, "文件过大")
			return
		}
		response.BadRequest(c, 10001, "请选择要上传的文件")
		return
	}
	file, err := fh.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer file.Close()

	receipt, err := h.receiptSvc.Upload(c.Request.Context(), caller, c.Param("id"), &form, service.UploadedFile{
		Name:    fh.Filename,
		Size:    fh.Size,
		Content: file,
	})
	if err != nil {
		h.handleReceiptError(c, err)
		return
	}

	response.Created(c, receipt)
}

// ListReceipts 报销单下的小票
// GET /api/v1/tickets/:id/receipts
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	receipts, err := h.receiptSvc.List(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleReceiptError(c, err)
		return
	}

	response.OK(c, gin.H{"list": receipts})
}

// DownloadReceipt 跳转到限时下载链接
// GET /api/v1/receipts/:id/file
func (h *ReceiptHandler) DownloadReceipt(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	url, err := h.receiptSvc.DownloadURL(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleReceiptError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, url)
}

// DeleteReceipt 删除未报销的小票（上传人或管理员）
// DELETE /api/v1/receipts/:id
func (h *ReceiptHandler) DeleteReceipt(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.receiptSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleReceiptError(c, err)
		return
	}

	response.OK(c, nil)
}

// PayReceipt 标记小票已报销（管理员）
// POST /api/v1/receipts/:id/pay
func (h *ReceiptHandler) PayReceipt(c *gin.Context) {
	var req dto.PayReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	receipt, err := h.receiptSvc.Pay(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleReceiptError(c, err)
		return
	}

	response.OK(c, receipt)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *ReceiptHandler) handleReceiptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReceiptNotFound):
		response.NotFound(c, 15001, "小票不存在")
	case errors.Is(err, service.ErrTicketNotFound):
		response.NotFound(c, 14001, "报销单不存在")
	case errors.Is(err, service.ErrReceiptAlreadyPaid):
		response.Conflict(c, 15002, "小票已报销")
	case errors.Is(err, service.ErrReceiptFileMissing):
		response.NotFound(c, 15003, "小票文件不存在")
	case errors.Is(err, service.ErrTicketClosedForUpload):
		response.Conflict(c, 15004, "报销单当前状态不能上传小票")
	case errors.Is(err, service.ErrInvalidPayMethod):
		response.BadRequest(c, 15005, "报销方式无效")
	case errors.Is(err, upload.ErrFileTooLarge):
		response.ErrorWithDetails(c, http.StatusRequestEntityTooLarge, 15007, "文件过大", err.Error())
	case errors.Is(err, upload.ErrUnsupportedExtension),
		errors.Is(err, upload.ErrUnsupportedContent),
		errors.Is(err, upload.ErrContentMismatch),
		errors.Is(err, upload.ErrEmptyFile):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15006, "文件类型不受支持", err.Error())
	case handleCommonError(c, err):
	default:
		response.InternalError(c)
	}
}
