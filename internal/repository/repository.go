package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Section        SectionRepository
	Ticket         TicketRepository
	Receipt        ReceiptRepository
	Deposit        DepositRepository
	DebtCorrection DebtCorrectionRepository
	CashCount      CashCountRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Section:        NewSectionRepo(db),
		Ticket:         NewTicketRepo(db),
		Receipt:        NewReceiptRepo(db),
		Deposit:        NewDepositRepo(db),
		DebtCorrection: NewDebtCorrectionRepo(db),
		CashCount:      NewCashCountRepo(db),
	}
}

// BeginTx 开启事务；测试中未注入 db 时返回 nil
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}

// TimeRange 闭区间时间过滤条件，nil 表示不限
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (tr *TimeRange) apply(db *gorm.DB, column string) *gorm.DB {
	if tr == nil {
		return db
	}
	return db.Where(column+" >= ? AND "+column+" <= ?", tr.Start, tr.End)
}
