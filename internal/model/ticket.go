package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 报销单状态
const (
	TicketPending      = "pending"
	TicketApproved     = "approved"
	TicketRejected     = "rejected"
	TicketVerification = "verification"
	TicketDone         = "done"
)

// Ticket 报销单表 — 对应 tickets
type Ticket struct {
	TicketID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ticket_id"`
	Title        string          `gorm:"type:varchar(200);not null"                     json:"title"`
	Description  string          `gorm:"type:text"                                      json:"description,omitempty"`
	SectionID    string          `gorm:"type:uuid;not null"                             json:"section_id"`
	RequesterID  string          `gorm:"type:uuid;not null"                             json:"requester_id"`
	Budget       decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"budget"`
	Status       string          `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy   *string         `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time      `gorm:"type:timestamptz"                               json:"reviewed_at,omitempty"`
	RejectReason string          `gorm:"type:text"                                      json:"reject_reason,omitempty"`
	CompletedAt  *time.Time      `gorm:"type:timestamptz"                               json:"completed_at,omitempty"`
	VersionedModel

	// 关联
	Section   *Section  `gorm:"foreignKey:SectionID;references:SectionID"     json:"section,omitempty"`
	Requester *User     `gorm:"foreignKey:RequesterID;references:UserID"      json:"requester,omitempty"`
	Receipts  []Receipt `gorm:"foreignKey:TicketID;references:TicketID"       json:"receipts,omitempty"`
}

// TableName 指定表名
func (Ticket) TableName() string { return "tickets" }

// AcceptsReceipts 是否可以上传小票
func (t *Ticket) AcceptsReceipts() bool {
	return t.Status == TicketApproved || t.Status == TicketVerification
}

// Editable 申请人是否仍可修改
func (t *Ticket) Editable() bool {
	return t.Status == TicketPending
}
