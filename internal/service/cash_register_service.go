package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	"uctenky/backend/pkg/money"
)

// ── 收银台模块业务错误 ──

var (
	ErrDepositNotFound    = errors.New("存入记录不存在")
	ErrCorrectionNotFound = errors.New("欠款修正记录不存在")
	ErrZeroCorrection     = errors.New("修正金额不能为 0")
	ErrNegativeCount      = errors.New("盘点金额不能为负")
)

// CashRegisterService 收银台业务接口（仅管理员）
type CashRegisterService interface {
	CreateDeposit(ctx context.Context, req *dto.CreateDepositRequest, callerID string) (*dto.DepositResponse, error)
	ListDeposits(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.DepositResponse, int64, error)
	DeleteDeposit(ctx context.Context, id string, callerID string) error

	CreateCorrection(ctx context.Context, req *dto.CreateDebtCorrectionRequest, callerID string) (*dto.DebtCorrectionResponse, error)
	ListCorrections(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.DebtCorrectionResponse, int64, error)
	DeleteCorrection(ctx context.Context, id string, callerID string) error

	CreateCount(ctx context.Context, req *dto.CreateCashCountRequest, callerID string) (*dto.CashCountResponse, error)
	ListCounts(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.CashCountResponse, int64, error)

	// Overview 学期（可选）汇总 + 全部历史的应有余额
	Overview(ctx context.Context, req *dto.OverviewRequest) (*dto.CashRegisterOverview, error)
}

type cashRegisterService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewCashRegisterService 创建 CashRegisterService 实例
func NewCashRegisterService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CashRegisterService {
	return &cashRegisterService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── Deposits ──────────────────────

func (s *cashRegisterService) CreateDeposit(ctx context.Context, req *dto.CreateDepositRequest, callerID string) (*dto.DepositResponse, error) {
	amount, err := money.ParsePositive(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	at, err := parseTimeOrNow(req.DepositedAt)
	if err != nil {
		return nil, err
	}

	deposit := &model.Deposit{
		Amount:      amount,
		Note:        strings.TrimSpace(req.Note),
		DepositedAt: at,
	}
	deposit.CreatedBy = &callerID
	deposit.UpdatedBy = &callerID

	if err := s.repo.Deposit.Create(ctx, deposit); err != nil {
		s.logger.Error("创建存入记录失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("收银台存入", zap.String("deposit_id", deposit.DepositID),
		zap.String("amount", amount.StringFixed(2)), zap.String("caller", callerID))
	return s.toDepositResponse(deposit), nil
}

func (s *cashRegisterService) ListDeposits(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.DepositResponse, int64, error) {
	period, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, 0, err
	}

	deposits, total, err := s.repo.Deposit.List(ctx, period, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出存入记录失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DepositResponse, 0, len(deposits))
	for i := range deposits {
		result = append(result, *s.toDepositResponse(&deposits[i]))
	}
	return result, total, nil
}

func (s *cashRegisterService) DeleteDeposit(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Deposit.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepositNotFound
		}
		return err
	}
	if err := s.repo.Deposit.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除存入记录失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Debt corrections ──────────────────────

func (s *cashRegisterService) CreateCorrection(ctx context.Context, req *dto.CreateDebtCorrectionRequest, callerID string) (*dto.DebtCorrectionResponse, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if amount.IsZero() {
		return nil, ErrZeroCorrection
	}

	correction := &model.DebtCorrection{
		Amount: amount,
		Reason: strings.TrimSpace(req.Reason),
	}
	if req.UserID != "" {
		user, err := s.repo.User.GetByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		correction.UserID = &user.UserID
		correction.User = user
	}
	correction.CreatedBy = &callerID
	correction.UpdatedBy = &callerID

	if err := s.repo.DebtCorrection.Create(ctx, correction); err != nil {
		s.logger.Error("创建欠款修正失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("欠款修正", zap.String("correction_id", correction.CorrectionID),
		zap.String("amount", amount.StringFixed(2)), zap.String("caller", callerID))
	return s.toCorrectionResponse(correction), nil
}

func (s *cashRegisterService) ListCorrections(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.DebtCorrectionResponse, int64, error) {
	period, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, 0, err
	}

	corrections, total, err := s.repo.DebtCorrection.List(ctx, period, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出欠款修正失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DebtCorrectionResponse, 0, len(corrections))
	for i := range corrections {
		result = append(result, *s.toCorrectionResponse(&corrections[i]))
	}
	return result, total, nil
}

func (s *cashRegisterService) DeleteCorrection(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.DebtCorrection.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCorrectionNotFound
		}
		return err
	}
	if err := s.repo.DebtCorrection.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除欠款修正失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Cash counts ──────────────────────

func (s *cashRegisterService) CreateCount(ctx context.Context, req *dto.CreateCashCountRequest, callerID string) (*dto.CashCountResponse, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if amount.IsNegative() {
		return nil, ErrNegativeCount
	}
	at, err := parseTimeOrNow(req.CountedAt)
	if err != nil {
		return nil, err
	}

	count := &model.CashCount{
		Amount:    amount,
		Note:      strings.TrimSpace(req.Note),
		CountedAt: at,
	}
	count.CreatedBy = &callerID
	count.UpdatedBy = &callerID

	if err := s.repo.CashCount.Create(ctx, count); err != nil {
		s.logger.Error("创建现金盘点失败", zap.Error(err))
		return nil, err
	}
	return s.toCountResponse(count), nil
}

func (s *cashRegisterService) ListCounts(ctx context.Context, req *dto.CashRegisterListRequest) ([]dto.CashCountResponse, int64, error) {
	period, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, 0, err
	}

	counts, total, err := s.repo.CashCount.List(ctx, period, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出现金盘点失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CashCountResponse, 0, len(counts))
	for i := range counts {
		result = append(result, *s.toCountResponse(&counts[i]))
	}
	return result, total, nil
}

// ────────────────────── Overview ──────────────────────

func (s *cashRegisterService) Overview(ctx context.Context, req *dto.OverviewRequest) (*dto.CashRegisterOverview, error) {
	period, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, err
	}

	var (
		deposits, cashPaid, transferPaid, corrections decimal.Decimal
		allDeposits, allCashPaid, allCorrections      decimal.Decimal
		outstanding                                   decimal.Decimal
		latest                                        *model.CashCount
	)

	// 各项汇总互不依赖，并发查询
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { deposits, err = s.repo.Deposit.Sum(gctx, period); return })
	g.Go(func() (err error) { cashPaid, err = s.repo.Receipt.SumPaid(gctx, model.PayCash, period); return })
	g.Go(func() (err error) { transferPaid, err = s.repo.Receipt.SumPaid(gctx, model.PayTransfer, period); return })
	g.Go(func() (err error) { corrections, err = s.repo.DebtCorrection.Sum(gctx, period); return })
	g.Go(func() (err error) { allDeposits, err = s.repo.Deposit.Sum(gctx, nil); return })
	g.Go(func() (err error) { allCashPaid, err = s.repo.Receipt.SumPaid(gctx, model.PayCash, nil); return })
	g.Go(func() (err error) { allCorrections, err = s.repo.DebtCorrection.Sum(gctx, nil); return })
	g.Go(func() (err error) { outstanding, err = s.repo.Receipt.SumOutstanding(gctx); return })
	g.Go(func() error {
		count, err := s.repo.CashCount.Latest(gctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		latest = count
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("汇总收银台失败", zap.String("semester", req.Semester), zap.Error(err))
		return nil, err
	}

	expected := allDeposits.Add(allCorrections).Sub(allCashPaid)

	resp := &dto.CashRegisterOverview{
		Semester:        req.Semester,
		Deposits:        formatAmount(deposits),
		CashPaid:        formatAmount(cashPaid),
		TransferPaid:    formatAmount(transferPaid),
		Corrections:     formatAmount(corrections),
		Net:             formatAmount(deposits.Add(corrections).Sub(cashPaid)),
		ExpectedBalance: formatAmount(expected),
		Outstanding:     formatAmount(outstanding),
	}
	if period != nil {
		resp.Start = formatTime(period.Start, s.loc)
		resp.End = formatTime(period.End, s.loc)
	}
	if latest != nil {
		resp.LatestCount = s.toCountResponse(latest)
		resp.Discrepancy = formatAmount(latest.Amount.Sub(expected))
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *cashRegisterService) toDepositResponse(d *model.Deposit) *dto.DepositResponse {
	return &dto.DepositResponse{
		ID:          d.DepositID,
		Amount:      formatAmount(d.Amount),
		Note:        d.Note,
		DepositedAt: formatTime(d.DepositedAt, s.loc),
		CreatedBy:   derefString(d.CreatedBy),
	}
}

func (s *cashRegisterService) toCorrectionResponse(c *model.DebtCorrection) *dto.DebtCorrectionResponse {
	return &dto.DebtCorrectionResponse{
		ID:        c.CorrectionID,
		Amount:    formatAmount(c.Amount),
		Reason:    c.Reason,
		User:      toUserBrief(c.User),
		CreatedAt: formatTime(c.CreatedAt, s.loc),
		CreatedBy: derefString(c.CreatedBy),
	}
}

func (s *cashRegisterService) toCountResponse(c *model.CashCount) *dto.CashCountResponse {
	return &dto.CashCountResponse{
		ID:        c.CountID,
		Amount:    formatAmount(c.Amount),
		Note:      c.Note,
		CountedAt: formatTime(c.CountedAt, s.loc),
		CreatedBy: derefString(c.CreatedBy),
	}
}
