package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"uctenky/backend/internal/model"
)

// DepositRepository 存入数据访问接口
type DepositRepository interface {
	Create(ctx context.Context, deposit *model.Deposit) error
	GetByID(ctx context.Context, id string) (*model.Deposit, error)
	List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.Deposit, int64, error)
	ListAll(ctx context.Context, period *TimeRange) ([]model.Deposit, error)
	Delete(ctx context.Context, id, deletedBy string) error
	Sum(ctx context.Context, period *TimeRange) (decimal.Decimal, error)
	Earliest(ctx context.Context) (*time.Time, error)
}

// DebtCorrectionRepository 欠款修正数据访问接口
type DebtCorrectionRepository interface {
	Create(ctx context.Context, correction *model.DebtCorrection) error
	GetByID(ctx context.Context, id string) (*model.DebtCorrection, error)
	List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.DebtCorrection, int64, error)
	ListAll(ctx context.Context, period *TimeRange) ([]model.DebtCorrection, error)
	Delete(ctx context.Context, id, deletedBy string) error
	Sum(ctx context.Context, period *TimeRange) (decimal.Decimal, error)
}

// CashCountRepository 现金盘点数据访问接口（只追加）
type CashCountRepository interface {
	Create(ctx context.Context, count *model.CashCount) error
	List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.CashCount, int64, error)
	Latest(ctx context.Context) (*model.CashCount, error)
}

// sumAmount 汇总 amount 列
func sumAmount(db *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := db.Select("COALESCE(SUM(amount), 0)").Row().Scan(&sum)
	return sum, err
}

// ── Deposit Repository 实现 ──

type depositRepo struct {
	db *gorm.DB
}

func NewDepositRepo(db *gorm.DB) DepositRepository {
	return &depositRepo{db: db}
}

func (r *depositRepo) Create(ctx context.Context, deposit *model.Deposit) error {
	return r.db.WithContext(ctx).Create(deposit).Error
}

func (r *depositRepo) GetByID(ctx context.Context, id string) (*model.Deposit, error) {
	var deposit model.Deposit
	err := r.db.WithContext(ctx).Where("deposit_id = ?", id).First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepo) List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.Deposit, int64, error) {
	var deposits []model.Deposit
	var total int64

	db := period.apply(r.db.WithContext(ctx).Model(&model.Deposit{}), "deposited_at")
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("deposited_at DESC").Find(&deposits).Error; err != nil {
		return nil, 0, err
	}
	return deposits, total, nil
}

func (r *depositRepo) ListAll(ctx context.Context, period *TimeRange) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := period.apply(r.db.WithContext(ctx), "deposited_at").
		Order("deposited_at ASC").
		Find(&deposits).Error
	return deposits, err
}

func (r *depositRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Deposit{}).
		Where("deposit_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *depositRepo) Sum(ctx context.Context, period *TimeRange) (decimal.Decimal, error) {
	return sumAmount(period.apply(r.db.WithContext(ctx).Model(&model.Deposit{}), "deposited_at"))
}

func (r *depositRepo) Earliest(ctx context.Context) (*time.Time, error) {
	var earliest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&model.Deposit{}).
		Select("MIN(deposited_at)").
		Row().Scan(&earliest)
	if err != nil {
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &earliest.Time, nil
}

// ── DebtCorrection Repository 实现 ──

type debtCorrectionRepo struct {
	db *gorm.DB
}

func NewDebtCorrectionRepo(db *gorm.DB) DebtCorrectionRepository {
	return &debtCorrectionRepo{db: db}
}

func (r *debtCorrectionRepo) Create(ctx context.Context, correction *model.DebtCorrection) error {
	return r.db.WithContext(ctx).Create(correction).Error
}

func (r *debtCorrectionRepo) GetByID(ctx context.Context, id string) (*model.DebtCorrection, error) {
	var correction model.DebtCorrection
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("correction_id = ?", id).
		First(&correction).Error
	if err != nil {
		return nil, err
	}
	return &correction, nil
}

func (r *debtCorrectionRepo) List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.DebtCorrection, int64, error) {
	var corrections []model.DebtCorrection
	var total int64

	db := period.apply(r.db.WithContext(ctx).Model(&model.DebtCorrection{}), "created_at")
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("User").Offset(offset).Limit(limit).Order("created_at DESC").Find(&corrections).Error; err != nil {
		return nil, 0, err
	}
	return corrections, total, nil
}

func (r *debtCorrectionRepo) ListAll(ctx context.Context, period *TimeRange) ([]model.DebtCorrection, error) {
	var corrections []model.DebtCorrection
	err := period.apply(r.db.WithContext(ctx), "created_at").
		Preload("User").
		Order("created_at ASC").
		Find(&corrections).Error
	return corrections, err
}

func (r *debtCorrectionRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.DebtCorrection{}).
		Where("correction_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *debtCorrectionRepo) Sum(ctx context.Context, period *TimeRange) (decimal.Decimal, error) {
	return sumAmount(period.apply(r.db.WithContext(ctx).Model(&model.DebtCorrection{}), "created_at"))
}

// ── CashCount Repository 实现 ──

type cashCountRepo struct {
	db *gorm.DB
}

func NewCashCountRepo(db *gorm.DB) CashCountRepository {
	return &cashCountRepo{db: db}
}

func (r *cashCountRepo) Create(ctx context.Context, count *model.CashCount) error {
	return r.db.WithContext(ctx).Create(count).Error
}

func (r *cashCountRepo) List(ctx context.Context, period *TimeRange, offset, limit int) ([]model.CashCount, int64, error) {
	var counts []model.CashCount
	var total int64

	db := period.apply(r.db.WithContext(ctx).Model(&model.CashCount{}), "counted_at")
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).Order("counted_at DESC").Find(&counts).Error; err != nil {
		return nil, 0, err
	}
	return counts, total, nil
}

// Latest 最近一次盘点，没有数据时返回 gorm.ErrRecordNotFound
func (r *cashCountRepo) Latest(ctx context.Context) (*model.CashCount, error) {
	var count model.CashCount
	err := r.db.WithContext(ctx).
		Order("counted_at DESC").
		First(&count).Error
	if err != nil {
		return nil, err
	}
	return &count, nil
}
