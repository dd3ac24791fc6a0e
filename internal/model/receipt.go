package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 报销方式
const (
	PayCash     = "cash"
	PayTransfer = "transfer"
)

// Receipt 小票表 — 对应 receipts
type Receipt struct {
	ReceiptID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"receipt_id"`
	TicketID    string          `gorm:"type:uuid;not null"                             json:"ticket_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Vendor      string          `gorm:"type:varchar(200)"                              json:"vendor,omitempty"`
	PurchasedAt *time.Time      `gorm:"type:date"                                      json:"purchased_at,omitempty"`
	ObjectKey   string          `gorm:"type:varchar(255);not null"                     json:"-"`
	FileName    string          `gorm:"type:varchar(255);not null"                     json:"file_name"`
	ContentType string          `gorm:"type:varchar(100);not null"                     json:"content_type"`
	Size        int64           `gorm:"not null"                                       json:"size"`
	UploadedBy  string          `gorm:"type:uuid;not null"                             json:"uploaded_by"`
	IsPaid      bool            `gorm:"not null;default:false"                         json:"is_paid"`
	PaidAt      *time.Time      `gorm:"type:timestamptz"                               json:"paid_at,omitempty"`
	PaidBy      *string         `gorm:"type:uuid"                                      json:"paid_by,omitempty"`
	PayMethod   *string         `gorm:"type:varchar(20)"                               json:"pay_method,omitempty"`
	BaseModel

	// 关联
	Ticket *Ticket `gorm:"foreignKey:TicketID;references:TicketID" json:"ticket,omitempty"`
}

// TableName 指定表名
func (Receipt) TableName() string { return "receipts" }
