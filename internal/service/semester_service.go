package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/repository"
	"uctenky/backend/pkg/semester"
)

// SemesterService 学期查询接口（学期由日期推导，不落库）
type SemesterService interface {
	Current(ctx context.Context) *dto.SemesterResponse
	// List 从最早的报销单/存入所在学期到当前学期，最新在前
	List(ctx context.Context) (*dto.SemesterListResponse, error)
	Get(ctx context.Context, key string) (*dto.SemesterResponse, error)
}

type semesterService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

// ────────────────────── Current ──────────────────────

func (s *semesterService) Current(_ context.Context) *dto.SemesterResponse {
	key := semester.Of(s.now().In(s.loc))
	resp, err := s.describe(key, key)
	if err != nil {
		// Of 只产生合法键，正常不会走到这里
		s.logger.Error("计算当前学期失败", zap.String("key", key), zap.Error(err))
		return &dto.SemesterResponse{Key: key, Label: semester.Label(key), Current: true}
	}
	return resp
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context) (*dto.SemesterListResponse, error) {
	now := s.now().In(s.loc)
	current := semester.Of(now)

	earliest := now
	ticketAt, err := s.repo.Ticket.EarliestCreatedAt(ctx)
	if err != nil {
		s.logger.Error("查询最早报销单失败", zap.Error(err))
		return nil, err
	}
	depositAt, err := s.repo.Deposit.Earliest(ctx)
	if err != nil {
		s.logger.Error("查询最早存入记录失败", zap.Error(err))
		return nil, err
	}
	for _, t := range []*time.Time{ticketAt, depositAt} {
		if t != nil && t.Before(earliest) {
			earliest = *t
		}
	}

	keys := semester.Between(earliest.In(s.loc), now)
	list := make([]dto.SemesterResponse, 0, len(keys))
	for _, key := range keys {
		resp, err := s.describe(key, current)
		if err != nil {
			// Between 只产生合法键
			continue
		}
		list = append(list, *resp)
	}

	return &dto.SemesterListResponse{Current: current, List: list}, nil
}

// ────────────────────── Get ──────────────────────

func (s *semesterService) Get(_ context.Context, key string) (*dto.SemesterResponse, error) {
	current := semester.Of(s.now().In(s.loc))
	return s.describe(key, current)
}

// describe 以规范形式（ZS05 → ZS5）返回学期信息
func (s *semesterService) describe(raw, current string) (*dto.SemesterResponse, error) {
	k, err := semester.Parse(raw)
	if err != nil {
		return nil, ErrInvalidSemester
	}
	key := k.String()
	period, err := semester.RangeIn(key, s.loc)
	if err != nil {
		if errors.Is(err, semester.ErrInvalidKey) {
			return nil, ErrInvalidSemester
		}
		return nil, err
	}
	return &dto.SemesterResponse{
		Key:     key,
		Label:   semester.Label(key),
		Start:   formatTime(period.Start, s.loc),
		End:     formatTime(period.End, s.loc),
		Current: key == current,
	}, nil
}
