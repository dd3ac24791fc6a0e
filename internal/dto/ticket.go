package dto

// ── 报销单模块 DTO ──

// CreateTicketRequest 创建报销单请求，金额为字符串（"1 234,50" 亦可）
type CreateTicketRequest struct {
	Title       string `json:"title"       binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	SectionID   string `json:"section_id"  binding:"required,uuid"`
	Budget      string `json:"budget"      binding:"required"`
}

// UpdateTicketRequest 更新报销单请求
type UpdateTicketRequest struct {
	Title       *string `json:"title"       binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	SectionID   *string `json:"section_id"  binding:"omitempty,uuid"`
	Budget      *string `json:"budget"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// ReviewTicketRequest 审批请求
type ReviewTicketRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// RejectTicketRequest 驳回请求
type RejectTicketRequest struct {
	Reason  string `json:"reason"  binding:"required,min=2,max=1000"`
	Version int    `json:"version" binding:"required,min=1"`
}

// TicketListRequest 报销单列表查询参数
type TicketListRequest struct {
	PaginationRequest
	Semester  string `form:"semester"   binding:"omitempty,max=4"`
	Status    string `form:"status"     binding:"omitempty,oneof=pending approved rejected verification done"`
	SectionID string `form:"section_id" binding:"omitempty,uuid"`
	Mine      bool   `form:"mine"`
}

// TicketResponse 报销单响应
type TicketResponse struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Section      *SectionBrief `json:"section,omitempty"`
	Requester    *UserBrief    `json:"requester,omitempty"`
	Budget       string        `json:"budget"`
	Spent        string        `json:"spent"`
	Unpaid       string        `json:"unpaid"`
	Status       string        `json:"status"`
	Semester     string        `json:"semester"`
	ReviewedBy   string        `json:"reviewed_by,omitempty"`
	ReviewedAt   string        `json:"reviewed_at,omitempty"`
	RejectReason string        `json:"reject_reason,omitempty"`
	CompletedAt  string        `json:"completed_at,omitempty"`
	Version      int           `json:"version"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

// TicketDetailResponse 报销单详情（含小票）
type TicketDetailResponse struct {
	TicketResponse
	Receipts []ReceiptResponse `json:"receipts"`
}

// PaymentQRResponse 转账二维码信息
type PaymentQRResponse struct {
	TicketID string `json:"ticket_id"`
	IBAN     string `json:"iban"`
	Amount   string `json:"amount"`
	SPD      string `json:"spd"`
	QRBase64 string `json:"qr_png_base64"`
}
