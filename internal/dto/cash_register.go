package dto

// ── 收银台模块 DTO ──

// CreateDepositRequest 存入请求
type CreateDepositRequest struct {
	Amount      string `json:"amount"       binding:"required"`
	Note        string `json:"note"         binding:"omitempty,max=500"`
	DepositedAt string `json:"deposited_at"` // RFC3339，缺省为当前时间
}

// CreateDebtCorrectionRequest 欠款修正请求（金额可为负）
type CreateDebtCorrectionRequest struct {
	Amount string `json:"amount"  binding:"required"`
	Reason string `json:"reason"  binding:"required,min=2,max=500"`
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// CreateCashCountRequest 现金盘点请求
type CreateCashCountRequest struct {
	Amount    string `json:"amount"     binding:"required"`
	Note      string `json:"note"       binding:"omitempty,max=500"`
	CountedAt string `json:"counted_at"` // RFC3339，缺省为当前时间
}

// CashRegisterListRequest 收银台流水查询参数
type CashRegisterListRequest struct {
	PaginationRequest
	Semester string `form:"semester" binding:"omitempty,max=4"`
}

// OverviewRequest 概览查询参数
type OverviewRequest struct {
	Semester string `form:"semester" binding:"omitempty,max=4"`
}

// DepositResponse 存入响应
type DepositResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
	DepositedAt string `json:"deposited_at"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// DebtCorrectionResponse 欠款修正响应
type DebtCorrectionResponse struct {
	ID        string     `json:"id"`
	Amount    string     `json:"amount"`
	Reason    string     `json:"reason"`
	User      *UserBrief `json:"user,omitempty"`
	CreatedAt string     `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
}

// CashCountResponse 现金盘点响应
type CashCountResponse struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Note      string `json:"note,omitempty"`
	CountedAt string `json:"counted_at"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CashRegisterOverview 收银台概览
type CashRegisterOverview struct {
	Semester        string             `json:"semester,omitempty"`
	Start           string             `json:"start,omitempty"`
	End             string             `json:"end,omitempty"`
	Deposits        string             `json:"deposits"`
	CashPaid        string             `json:"cash_paid"`
	TransferPaid    string             `json:"transfer_paid"`
	Corrections     string             `json:"corrections"`
	Net             string             `json:"net"`
	ExpectedBalance string             `json:"expected_balance"`
	LatestCount     *CashCountResponse `json:"latest_count,omitempty"`
	Discrepancy     string             `json:"discrepancy,omitempty"`
	Outstanding     string             `json:"outstanding"`
}
