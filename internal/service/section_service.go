package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
)

// ── 小组模块业务错误 ──

var (
	ErrSectionNameExists     = errors.New("小组名称已存在")
	ErrSectionHasOpenTickets = errors.New("小组下存在未完成的报销单，无法删除")
	ErrSectionInactive       = errors.New("小组已停用")
)

// SectionService 小组业务接口
type SectionService interface {
	Create(ctx context.Context, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SectionResponse, error)
	List(ctx context.Context, req *dto.SectionListRequest) ([]dto.SectionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSectionRequest, callerID string) (*dto.SectionResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// SetHead 指定组长：目标用户加入该小组并成为 head，原组长降为 member
	SetHead(ctx context.Context, id string, req *dto.SetSectionHeadRequest, callerID string) (*dto.SectionResponse, error)
}

type sectionService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewSectionService 创建 SectionService 实例
func NewSectionService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) SectionService {
	return &sectionService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *sectionService) Create(ctx context.Context, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error) {
	name := strings.TrimSpace(req.Name)

	// 检查名称唯一性
	existing, err := s.repo.Section.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询小组失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrSectionNameExists
	}

	section := &model.Section{
		Name:        name,
		Description: req.Description,
		IsActive:    true,
	}
	section.CreatedBy = &callerID
	section.UpdatedBy = &callerID

	if err := s.repo.Section.Create(ctx, section); err != nil {
		s.logger.Error("创建小组失败", zap.Error(err))
		return nil, err
	}

	return s.toSectionResponse(ctx, section), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *sectionService) GetByID(ctx context.Context, id string) (*dto.SectionResponse, error) {
	section, err := s.getSection(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toSectionResponse(ctx, section), nil
}

// ────────────────────── List ──────────────────────

func (s *sectionService) List(ctx context.Context, req *dto.SectionListRequest) ([]dto.SectionResponse, error) {
	sections, err := s.repo.Section.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出小组失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		result = append(result, *s.toSectionResponse(ctx, &sections[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *sectionService) Update(ctx context.Context, id string, req *dto.UpdateSectionRequest, callerID string) (*dto.SectionResponse, error) {
	section, err := s.getSection(ctx, id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，检查唯一性
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != section.Name {
			existing, err := s.repo.Section.GetByName(ctx, name)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			if existing != nil {
				return nil, ErrSectionNameExists
			}
			section.Name = name
		}
	}
	if req.Description != nil {
		section.Description = *req.Description
	}
	if req.IsActive != nil {
		section.IsActive = *req.IsActive
	}

	section.UpdatedBy = &callerID

	if err := s.repo.Section.Update(ctx, section); err != nil {
		s.logger.Error("更新小组失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toSectionResponse(ctx, section), nil
}

// ────────────────────── Delete ──────────────────────

func (s *sectionService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getSection(ctx, id); err != nil {
		return err
	}

	// 仍有进行中的报销单时不允许删除
	open, err := s.repo.Ticket.CountInProgressBySection(ctx, id)
	if err != nil {
		s.logger.Error("查询小组报销单数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if open > 0 {
		return ErrSectionHasOpenTickets
	}

	if err := s.repo.Section.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除小组失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除小组", zap.String("section_id", id), zap.String("caller", callerID))
	return nil
}

// ────────────────────── SetHead ──────────────────────

func (s *sectionService) SetHead(ctx context.Context, id string, req *dto.SetSectionHeadRequest, callerID string) (*dto.SectionResponse, error) {
	section, err := s.getSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !section.IsActive {
		return nil, ErrSectionInactive
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		user, err := txRepo.User.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !user.IsActive {
			return ErrUserInactive
		}

		// 原组长降级（管理员保留角色）
		if section.HeadID != nil && *section.HeadID != user.UserID {
			prev, err := txRepo.User.GetByID(ctx, *section.HeadID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if prev != nil && prev.Role == model.RoleHead {
				prev.Role = model.RoleMember
				prev.UpdatedBy = &callerID
				if err := txRepo.User.Update(ctx, prev); err != nil {
					return err
				}
			}
		}

		if user.Role != model.RoleAdmin {
			user.Role = model.RoleHead
		}
		user.SectionID = &section.SectionID
		user.UpdatedBy = &callerID
		if err := txRepo.User.Update(ctx, user); err != nil {
			return err
		}

		section.HeadID = &user.UserID
		section.UpdatedBy = &callerID
		return txRepo.Section.Update(ctx, section)
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrUserInactive) {
			s.logger.Error("设置组长失败", zap.String("section_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("设置组长",
		zap.String("section_id", id), zap.String("user_id", req.UserID), zap.String("caller", callerID))
	return s.GetByID(ctx, id)
}

// ── 内部辅助方法 ──

func (s *sectionService) getSection(ctx context.Context, id string) (*model.Section, error) {
	section, err := s.repo.Section.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询小组失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return section, nil
}

func (s *sectionService) toSectionResponse(ctx context.Context, section *model.Section) *dto.SectionResponse {
	count, err := s.repo.User.CountBySection(ctx, section.SectionID)
	if err != nil {
		s.logger.Warn("查询小组成员数失败，回退为0", zap.String("section_id", section.SectionID), zap.Error(err))
	}
	return &dto.SectionResponse{
		ID:          section.SectionID,
		Name:        section.Name,
		Description: section.Description,
		Head:        toUserBrief(section.Head),
		IsActive:    section.IsActive,
		MemberCount: count,
		CreatedAt:   formatTime(section.CreatedAt, s.loc),
		UpdatedAt:   formatTime(section.UpdatedAt, s.loc),
	}
}
