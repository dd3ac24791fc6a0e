package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uctenky/backend/config"
	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	pkgerrors "uctenky/backend/pkg/errors"
	"uctenky/backend/pkg/money"
	"uctenky/backend/pkg/payment"
	"uctenky/backend/pkg/semester"
)

// ── 报销单模块业务错误 ──

var (
	ErrTicketNotFound         = errors.New("报销单不存在")
	ErrTicketNotEditable      = errors.New("报销单已审批，不能修改")
	ErrTicketNotPending       = errors.New("报销单不在待审批状态")
	ErrTicketNotVerification  = errors.New("报销单尚未进入核销阶段")
	ErrTicketNoReceipts       = errors.New("报销单没有小票")
	ErrTicketUnpaidReceipts   = errors.New("报销单仍有未报销的小票")
	ErrTicketHasPaidReceipts  = errors.New("报销单存在已报销的小票，不能删除")
	ErrTicketSelfReview       = errors.New("不能审批自己的报销单")
	ErrTicketNothingToPay     = errors.New("报销单没有待支付金额")
	ErrRequesterNoBankAccount = errors.New("申请人未填写银行账号")
	ErrInvalidAmount          = errors.New("金额无效")
	ErrTicketTitleEmpty       = errors.New("标题不能为空")
)

// TicketService 报销单业务接口
type TicketService interface {
	Create(ctx context.Context, caller Caller, req *dto.CreateTicketRequest) (*dto.TicketResponse, error)
	Get(ctx context.Context, caller Caller, id string) (*dto.TicketDetailResponse, error)
	List(ctx context.Context, caller Caller, req *dto.TicketListRequest) ([]dto.TicketResponse, int64, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateTicketRequest) (*dto.TicketResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
	Approve(ctx context.Context, caller Caller, id string, req *dto.ReviewTicketRequest) (*dto.TicketResponse, error)
	Reject(ctx context.Context, caller Caller, id string, req *dto.RejectTicketRequest) (*dto.TicketResponse, error)
	// Complete 全部小票已报销后由管理员结单
	Complete(ctx context.Context, caller Caller, id string, req *dto.ReviewTicketRequest) (*dto.TicketResponse, error)
	// PaymentQR 未报销金额的转账二维码（收款方为申请人账户）
	PaymentQR(ctx context.Context, caller Caller, id string) (*dto.PaymentQRResponse, error)
}

type ticketService struct {
	repo     *repository.Repository
	notifier NotificationService
	payCfg   *config.PaymentConfig
	loc      *time.Location
	logger   *zap.Logger
}

// NewTicketService 创建 TicketService 实例
func NewTicketService(
	repo *repository.Repository,
	notifier NotificationService,
	payCfg *config.PaymentConfig,
	loc *time.Location,
	logger *zap.Logger,
) TicketService {
	return &ticketService{
		repo:     repo,
		notifier: notifier,
		payCfg:   payCfg,
		loc:      loc,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *ticketService) Create(ctx context.Context, caller Caller, req *dto.CreateTicketRequest) (*dto.TicketResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTicketTitleEmpty
	}
	budget, err := money.ParsePositive(req.Budget)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	section, err := s.activeSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		Title:       title,
		Description: req.Description,
		SectionID:   section.SectionID,
		RequesterID: caller.UserID,
		Budget:      budget,
		Status:      model.TicketPending,
	}
	ticket.CreatedBy = &caller.UserID
	ticket.UpdatedBy = &caller.UserID

	if err := s.repo.Ticket.Create(ctx, ticket); err != nil {
		s.logger.Error("创建报销单失败", zap.Error(err))
		return nil, err
	}

	created, err := s.getTicket(ctx, ticket.TicketID)
	if err != nil {
		return nil, err
	}

	if section.HeadID != nil {
		if head, err := s.repo.User.GetByID(ctx, *section.HeadID); err == nil {
			s.notifier.TicketCreated(created, head)
		}
	}

	s.logger.Info("创建报销单",
		zap.String("ticket_id", ticket.TicketID), zap.String("requester", caller.UserID))
	return s.toTicketResponse(created, repository.ReceiptTotals{}), nil
}

// ────────────────────── Get ──────────────────────

func (s *ticketService) Get(ctx context.Context, caller Caller, id string) (*dto.TicketDetailResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, ticket) {
		return nil, ErrNoPermission
	}

	receipts, err := s.repo.Receipt.ListByTicket(ctx, id)
	if err != nil {
		s.logger.Error("查询小票失败", zap.String("ticket_id", id), zap.Error(err))
		return nil, err
	}

	totals := repository.ReceiptTotals{TicketID: id}
	items := make([]dto.ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		r := &receipts[i]
		totals.Total = totals.Total.Add(r.Amount)
		totals.Count++
		if !r.IsPaid {
			totals.Unpaid = totals.Unpaid.Add(r.Amount)
			totals.UnpaidCount++
		}
		items = append(items, *toReceiptResponse(r, s.loc))
	}

	return &dto.TicketDetailResponse{
		TicketResponse: *s.toTicketResponse(ticket, totals),
		Receipts:       items,
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *ticketService) List(ctx context.Context, caller Caller, req *dto.TicketListRequest) ([]dto.TicketResponse, int64, error) {
	created, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TicketFilter{
		Created:   created,
		Status:    req.Status,
		SectionID: req.SectionID,
		Scope:     ticketScope(caller),
	}
	if req.Mine {
		filter.RequesterID = caller.UserID
	}

	tickets, total, err := s.repo.Ticket.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出报销单失败", zap.Error(err))
		return nil, 0, err
	}

	// 批量汇总小票金额，避免 N+1 查询
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.TicketID)
	}
	totals, err := s.repo.Receipt.TotalsByTickets(ctx, ids)
	if err != nil {
		s.logger.Error("汇总小票金额失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, *s.toTicketResponse(&tickets[i], totals[tickets[i].TicketID]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *ticketService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateTicketRequest) (*dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() {
		if ticket.RequesterID != caller.UserID {
			return nil, ErrNoPermission
		}
		if !ticket.Editable() {
			return nil, ErrTicketNotEditable
		}
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTicketTitleEmpty
		}
		ticket.Title = title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.SectionID != nil && *req.SectionID != ticket.SectionID {
		section, err := s.activeSection(ctx, *req.SectionID)
		if err != nil {
			return nil, err
		}
		ticket.SectionID = section.SectionID
		ticket.Section = section
	}
	if req.Budget != nil {
		budget, err := money.ParsePositive(*req.Budget)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		ticket.Budget = budget
	}

	ticket.Version = req.Version
	ticket.UpdatedBy = &caller.UserID

	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新报销单失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.withTotals(ctx, ticket)
}

// ────────────────────── Delete ──────────────────────

func (s *ticketService) Delete(ctx context.Context, caller Caller, id string) error {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return err
	}

	if !caller.IsAdmin() {
		if ticket.RequesterID != caller.UserID {
			return ErrNoPermission
		}
		if !ticket.Editable() {
			return ErrTicketNotEditable
		}
	}

	// 已报销的金额计入收银台，不能随报销单消失
	totals, err := s.repo.Receipt.TotalsByTickets(ctx, []string{id})
	if err != nil {
		return err
	}
	if t := totals[id]; t.Count > t.UnpaidCount {
		return ErrTicketHasPaidReceipts
	}

	if err := s.repo.Ticket.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除报销单失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除报销单", zap.String("ticket_id", id), zap.String("caller", caller.UserID))
	return nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *ticketService) Approve(ctx context.Context, caller Caller, id string, req *dto.ReviewTicketRequest) (*dto.TicketResponse, error) {
	return s.review(ctx, caller, id, req.Version, model.TicketApproved, "")
}

func (s *ticketService) Reject(ctx context.Context, caller Caller, id string, req *dto.RejectTicketRequest) (*dto.TicketResponse, error) {
	return s.review(ctx, caller, id, req.Version, model.TicketRejected, strings.TrimSpace(req.Reason))
}

func (s *ticketService) review(ctx context.Context, caller Caller, id string, version int, status, reason string) (*dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReviewer(ctx, caller, ticket); err != nil {
		return nil, err
	}
	if ticket.Status != model.TicketPending {
		return nil, ErrTicketNotPending
	}

	now := time.Now()
	ticket.Status = status
	ticket.RejectReason = reason
	ticket.ReviewedBy = &caller.UserID
	ticket.ReviewedAt = &now
	ticket.Version = version
	ticket.UpdatedBy = &caller.UserID

	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("审批报销单失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.notifier.TicketReviewed(ticket, ticket.Requester)
	s.logger.Info("审批报销单",
		zap.String("ticket_id", id), zap.String("status", status), zap.String("reviewer", caller.UserID))
	return s.withTotals(ctx, ticket)
}

// ensureReviewer 管理员或该小组组长（以数据库中的 head_id 为准）
func (s *ticketService) ensureReviewer(ctx context.Context, caller Caller, ticket *model.Ticket) error {
	if caller.IsAdmin() {
		return nil
	}
	if ticket.RequesterID == caller.UserID {
		return ErrTicketSelfReview
	}
	section := ticket.Section
	if section == nil {
		var err error
		if section, err = s.repo.Section.GetByID(ctx, ticket.SectionID); err != nil {
			return err
		}
	}
	if section.HeadID == nil || *section.HeadID != caller.UserID {
		return ErrNoPermission
	}
	return nil
}

// ────────────────────── Complete ──────────────────────

func (s *ticketService) Complete(ctx context.Context, caller Caller, id string, req *dto.ReviewTicketRequest) (*dto.TicketResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != model.TicketVerification {
		return nil, ErrTicketNotVerification
	}

	totals, err := s.repo.Receipt.TotalsByTickets(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	t := totals[id]
	if t.Count == 0 {
		return nil, ErrTicketNoReceipts
	}
	if t.UnpaidCount > 0 {
		return nil, ErrTicketUnpaidReceipts
	}

	now := time.Now()
	ticket.Status = model.TicketDone
	ticket.CompletedAt = &now
	ticket.Version = req.Version
	ticket.UpdatedBy = &caller.UserID

	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("结单失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("报销单结单", zap.String("ticket_id", id), zap.String("caller", caller.UserID))
	return s.toTicketResponse(ticket, t), nil
}

// ────────────────────── PaymentQR ──────────────────────

func (s *ticketService) PaymentQR(ctx context.Context, caller Caller, id string) (*dto.PaymentQRResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Requester == nil || ticket.Requester.BankAccount == "" {
		return nil, ErrRequesterNoBankAccount
	}

	totals, err := s.repo.Receipt.TotalsByTickets(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	amount := totals[id].Unpaid
	if !amount.IsPositive() {
		return nil, ErrTicketNothingToPay
	}

	iban, err := payment.IBANFromCzechAccount(ticket.Requester.BankAccount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBankAccount, err)
	}

	spd, err := payment.SPD(payment.Payment{
		IBAN:     iban,
		Amount:   amount,
		Currency: s.payCfg.Currency,
		Message:  strings.TrimSpace(s.payCfg.MessagePrefix + " " + ticket.Title),
	})
	if err != nil {
		return nil, err
	}

	png, err := payment.QRCode(spd, s.payCfg.QRSize)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("ticket_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.PaymentQRResponse{
		TicketID: id,
		IBAN:     payment.FormatIBAN(iban),
		Amount:   formatAmount(amount),
		SPD:      spd,
		QRBase64: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// ── 内部辅助方法 ──

func (s *ticketService) getTicket(ctx context.Context, id string) (*model.Ticket, error) {
	ticket, err := s.repo.Ticket.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		s.logger.Error("查询报销单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) activeSection(ctx context.Context, id string) (*model.Section, error) {
	section, err := s.repo.Section.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	if !section.IsActive {
		return nil, ErrSectionInactive
	}
	return section, nil
}

func (s *ticketService) withTotals(ctx context.Context, ticket *model.Ticket) (*dto.TicketResponse, error) {
	totals, err := s.repo.Receipt.TotalsByTickets(ctx, []string{ticket.TicketID})
	if err != nil {
		return nil, err
	}
	return s.toTicketResponse(ticket, totals[ticket.TicketID]), nil
}

func (s *ticketService) toTicketResponse(t *model.Ticket, totals repository.ReceiptTotals) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:           t.TicketID,
		Title:        t.Title,
		Description:  t.Description,
		Section:      toSectionBrief(t.Section),
		Requester:    toUserBrief(t.Requester),
		Budget:       formatAmount(t.Budget),
		Spent:        formatAmount(totals.Total),
		Unpaid:       formatAmount(totals.Unpaid),
		Status:       t.Status,
		Semester:     semester.Of(t.CreatedAt.In(s.loc)),
		ReviewedBy:   derefString(t.ReviewedBy),
		ReviewedAt:   formatTimePtr(t.ReviewedAt, s.loc),
		RejectReason: t.RejectReason,
		CompletedAt:  formatTimePtr(t.CompletedAt, s.loc),
		Version:      t.Version,
		CreatedAt:    formatTime(t.CreatedAt, s.loc),
		UpdatedAt:    formatTime(t.UpdatedAt, s.loc),
	}
}

// canView 管理员全部可见；申请人可见自己的；组长可见本组的
func canView(caller Caller, t *model.Ticket) bool {
	return caller.IsAdmin() || t.RequesterID == caller.UserID || caller.IsHeadOf(t.SectionID)
}

// ticketScope 列表可见范围，管理员不限
func ticketScope(caller Caller) *repository.TicketScope {
	switch {
	case caller.IsAdmin():
		return nil
	case caller.Role == model.RoleHead && caller.SectionID != "":
		return &repository.TicketScope{UserID: caller.UserID, SectionID: caller.SectionID}
	default:
		return &repository.TicketScope{UserID: caller.UserID}
	}
}
