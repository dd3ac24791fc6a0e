package repository

import (
	"context"

	"gorm.io/gorm"

	"uctenky/backend/internal/model"
)

// SectionRepository 小组数据访问接口
type SectionRepository interface {
	Create(ctx context.Context, section *model.Section) error
	GetByID(ctx context.Context, id string) (*model.Section, error)
	GetByName(ctx context.Context, name string) (*model.Section, error)
	List(ctx context.Context, includeInactive bool) ([]model.Section, error)
	Update(ctx context.Context, section *model.Section) error
	Delete(ctx context.Context, id, deletedBy string) error
}

// sectionRepo SectionRepository 的 GORM 实现
type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) Create(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).
		Preload("Head").
		Where("section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) GetByName(ctx context.Context, name string) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) List(ctx context.Context, includeInactive bool) ([]model.Section, error) {
	var sections []model.Section
	db := r.db.WithContext(ctx).Preload("Head")
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&sections).Error
	return sections, err
}

func (r *sectionRepo) Update(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("section_id = ?", section.SectionID).
		Updates(map[string]interface{}{
			"name":        section.Name,
			"description": section.Description,
			"head_id":     section.HeadID,
			"is_active":   section.IsActive,
			"updated_by":  section.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
			"version":     gorm.Expr("version + 1"),
		}).Error
}

func (r *sectionRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("section_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
