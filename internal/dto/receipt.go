package dto

// ── 小票模块 DTO ──

// UploadReceiptForm 上传小票表单字段（文件字段名为 file）
type UploadReceiptForm struct {
	Amount      string `form:"amount"       binding:"required"`
	Vendor      string `form:"vendor"       binding:"omitempty,max=200"`
	PurchasedAt string `form:"purchased_at" binding:"omitempty"` // "2026-03-14"
}

// PayReceiptRequest 报销小票请求
type PayReceiptRequest struct {
	Method string `json:"method" binding:"required,oneof=cash transfer"`
}

// ReceiptResponse 小票响应
type ReceiptResponse struct {
	ID          string `json:"id"`
	TicketID    string `json:"ticket_id"`
	Amount      string `json:"amount"`
	Vendor      string `json:"vendor,omitempty"`
	PurchasedAt string `json:"purchased_at,omitempty"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	UploadedBy  string `json:"uploaded_by"`
	IsPaid      bool   `json:"is_paid"`
	PaidAt      string `json:"paid_at,omitempty"`
	PayMethod   string `json:"pay_method,omitempty"`
	CreatedAt   string `json:"created_at"`
}
