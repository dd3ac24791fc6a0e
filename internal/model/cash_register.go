package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit 收银台存入 — 对应 deposits
type Deposit struct {
	DepositID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"deposit_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Note        string          `gorm:"type:text"                                      json:"note,omitempty"`
	DepositedAt time.Time       `gorm:"not null"                                       json:"deposited_at"`
	SoftDeleteModel
}

// TableName 指定表名
func (Deposit) TableName() string { return "deposits" }

// DebtCorrection 欠款修正（金额带符号） — 对应 debt_corrections
type DebtCorrection struct {
	CorrectionID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"correction_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Reason       string          `gorm:"type:text;not null"                             json:"reason"`
	UserID       *string         `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	SoftDeleteModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (DebtCorrection) TableName() string { return "debt_corrections" }

// CashCount 现金盘点（只追加） — 对应 cash_counts
type CashCount struct {
	CountID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"count_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	Note      string          `gorm:"type:text"                                      json:"note,omitempty"`
	CountedAt time.Time       `gorm:"not null"                                       json:"counted_at"`
	BaseModel
}

// TableName 指定表名
func (CashCount) TableName() string { return "cash_counts" }
