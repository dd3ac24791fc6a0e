package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"uctenky/backend/internal/model"
	pkgerrors "uctenky/backend/pkg/errors"
)

// 仍在流程中的报销单状态
var inProgressStatuses = []string{model.TicketPending, model.TicketApproved, model.TicketVerification}

// TicketScope 可见范围：成员只看自己的，组长额外看本组的，管理员为 nil
type TicketScope struct {
	UserID    string
	SectionID string
}

// TicketFilter 报销单列表过滤条件
type TicketFilter struct {
	Created     *TimeRange
	Status      string
	SectionID   string
	RequesterID string
	Scope       *TicketScope
}

// TicketRepository 报销单数据访问接口
type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	Update(ctx context.Context, ticket *model.Ticket) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter TicketFilter, offset, limit int) ([]model.Ticket, int64, error)
	ListAll(ctx context.Context, filter TicketFilter) ([]model.Ticket, error)
	CountInProgressBySection(ctx context.Context, sectionID string) (int64, error)
	EarliestCreatedAt(ctx context.Context) (*time.Time, error)
}

// ticketRepo TicketRepository 的 GORM 实现
type ticketRepo struct {
	db *gorm.DB
}

// NewTicketRepo 创建 TicketRepository 实例
func NewTicketRepo(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Requester").
		Where("ticket_id = ?", id).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Update 带乐观锁的更新，版本不匹配返回 ErrOptimisticLock
func (r *ticketRepo) Update(ctx context.Context, ticket *model.Ticket) error {
	oldVersion := ticket.Version
	result := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("ticket_id = ? AND version = ?", ticket.TicketID, oldVersion).
		Updates(map[string]interface{}{
			"title":         ticket.Title,
			"description":   ticket.Description,
			"section_id":    ticket.SectionID,
			"budget":        ticket.Budget,
			"status":        ticket.Status,
			"reviewed_by":   ticket.ReviewedBy,
			"reviewed_at":   ticket.ReviewedAt,
			"reject_reason": ticket.RejectReason,
			"completed_at":  ticket.CompletedAt,
			"updated_by":    ticket.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version = oldVersion + 1
	return nil
}

func (r *ticketRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("ticket_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *ticketRepo) filtered(ctx context.Context, filter TicketFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Ticket{})
	db = filter.Created.apply(db, "tickets.created_at")
	if filter.Status != "" {
		db = db.Where("tickets.status = ?", filter.Status)
	}
	if filter.SectionID != "" {
		db = db.Where("tickets.section_id = ?", filter.SectionID)
	}
	if filter.RequesterID != "" {
		db = db.Where("tickets.requester_id = ?", filter.RequesterID)
	}
	if s := filter.Scope; s != nil {
		if s.SectionID != "" {
			db = db.Where("tickets.requester_id = ? OR tickets.section_id = ?", s.UserID, s.SectionID)
		} else {
			db = db.Where("tickets.requester_id = ?", s.UserID)
		}
	}
	return db
}

func (r *ticketRepo) List(ctx context.Context, filter TicketFilter, offset, limit int) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64

	db := r.filtered(ctx, filter)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Section").Preload("Requester").
		Offset(offset).Limit(limit).
		Order("tickets.created_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// ListAll 不分页，按创建时间升序（导出用）
func (r *ticketRepo) ListAll(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.filtered(ctx, filter).
		Preload("Section").Preload("Requester").
		Order("tickets.created_at ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) CountInProgressBySection(ctx context.Context, sectionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("section_id = ? AND status IN ?", sectionID, inProgressStatuses).
		Count(&count).Error
	return count, err
}

// EarliestCreatedAt 最早一张报销单的创建时间，没有数据时返回 nil
func (r *ticketRepo) EarliestCreatedAt(ctx context.Context) (*time.Time, error) {
	var earliest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Select("MIN(created_at)").
		Row().Scan(&earliest)
	if err != nil {
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}
	return &earliest.Time, nil
}
