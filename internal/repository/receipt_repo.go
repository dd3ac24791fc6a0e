package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uctenky/backend/internal/model"
	pkgerrors "uctenky/backend/pkg/errors"
)

// ReceiptTotals 单张报销单的小票汇总
type ReceiptTotals struct {
	TicketID    string
	Total       decimal.Decimal
	Unpaid      decimal.Decimal
	Count       int64
	UnpaidCount int64
}

// ReceiptRepository 小票数据访问接口
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *model.Receipt) error
	GetByID(ctx context.Context, id string) (*model.Receipt, error)
	ListByTicket(ctx context.Context, ticketID string) ([]model.Receipt, error)
	Delete(ctx context.Context, id string) error
	MarkPaid(ctx context.Context, id, paidBy, method string, paidAt time.Time) error
	TotalsByTickets(ctx context.Context, ticketIDs []string) (map[string]ReceiptTotals, error)
	SumPaid(ctx context.Context, method string, paid *TimeRange) (decimal.Decimal, error)
	SumOutstanding(ctx context.Context) (decimal.Decimal, error)
	ListPaid(ctx context.Context, paid *TimeRange) ([]model.Receipt, error)
}

// receiptRepo ReceiptRepository 的 GORM 实现
type receiptRepo struct {
	db *gorm.DB
}

// NewReceiptRepo 创建 ReceiptRepository 实例
func NewReceiptRepo(db *gorm.DB) ReceiptRepository {
	return &receiptRepo{db: db}
}

func (r *receiptRepo) Create(ctx context.Context, receipt *model.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepo) GetByID(ctx context.Context, id string) (*model.Receipt, error) {
	var receipt model.Receipt
	err := r.db.WithContext(ctx).
		Where("receipt_id = ?", id).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepo) ListByTicket(ctx context.Context, ticketID string) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

// Delete 物理删除未报销的小票，已报销或不存在时返回 ErrOptimisticLock
func (r *receiptRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("receipt_id = ? AND is_paid = ?", id, false).
		Delete(&model.Receipt{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// MarkPaid 标记已报销，已报销的小票返回 ErrOptimisticLock
func (r *receiptRepo) MarkPaid(ctx context.Context, id, paidBy, method string, paidAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Receipt{}).
		Where("receipt_id = ? AND is_paid = ?", id, false).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"paid_at":    paidAt,
			"paid_by":    paidBy,
			"pay_method": method,
			"updated_by": paidBy,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *receiptRepo) TotalsByTickets(ctx context.Context, ticketIDs []string) (map[string]ReceiptTotals, error) {
	result := make(map[string]ReceiptTotals, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}

	var rows []ReceiptTotals
	err := r.db.WithContext(ctx).
		Model(&model.Receipt{}).
		Select(`ticket_id,
			COALESCE(SUM(amount), 0) AS total,
			COALESCE(SUM(CASE WHEN is_paid THEN 0 ELSE amount END), 0) AS unpaid,
			COUNT(*) AS count,
			COUNT(*) FILTER (WHERE NOT is_paid) AS unpaid_count`).
		Where("ticket_id IN ?", ticketIDs).
		Group("ticket_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.TicketID] = row
	}
	return result, nil
}

// SumPaid 指定方式已报销金额，paid 为 nil 时统计全部
func (r *receiptRepo) SumPaid(ctx context.Context, method string, paid *TimeRange) (decimal.Decimal, error) {
	db := r.db.WithContext(ctx).
		Model(&model.Receipt{}).
		Joins("JOIN tickets ON tickets.ticket_id = receipts.ticket_id AND tickets.deleted_at IS NULL").
		Where("receipts.is_paid = ? AND receipts.pay_method = ?", true, method)
	db = paid.apply(db, "receipts.paid_at")

	var sum decimal.Decimal
	err := db.Select("COALESCE(SUM(receipts.amount), 0)").Row().Scan(&sum)
	return sum, err
}

// SumOutstanding 尚未报销的小票总额
func (r *receiptRepo) SumOutstanding(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Receipt{}).
		Joins("JOIN tickets ON tickets.ticket_id = receipts.ticket_id AND tickets.deleted_at IS NULL").
		Where("receipts.is_paid = ?", false).
		Select("COALESCE(SUM(receipts.amount), 0)").
		Row().Scan(&sum)
	return sum, err
}

func (r *receiptRepo) ListPaid(ctx context.Context, paid *TimeRange) ([]model.Receipt, error) {
	var receipts []model.Receipt
	db := r.db.WithContext(ctx).
		Select("receipts.*").
		Preload("Ticket").
		Joins("JOIN tickets ON tickets.ticket_id = receipts.ticket_id AND tickets.deleted_at IS NULL").
		Where("receipts.is_paid = ?", true)
	db = paid.apply(db, "receipts.paid_at")
	err := db.Order("receipts.paid_at ASC").Find(&receipts).Error
	return receipts, err
}
