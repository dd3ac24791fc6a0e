package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	pkgerrors "uctenky/backend/pkg/errors"
	"uctenky/backend/pkg/money"
	"uctenky/backend/pkg/storage"
	"uctenky/backend/pkg/upload"
)

// ── 小票模块业务错误 ──

var (
	ErrReceiptNotFound       = errors.New("小票不存在")
	ErrReceiptAlreadyPaid    = errors.New("小票已报销")
	ErrReceiptFileMissing    = errors.New("小票文件不存在")
	ErrTicketClosedForUpload = errors.New("报销单当前状态不能上传小票")
	ErrInvalidPayMethod      = errors.New("报销方式无效")
)

// UploadedFile 上传的文件，Content 需可 Seek（校验魔数后回到起点）
type UploadedFile struct {
	Name    string
	Size    int64
	Content io.ReadSeeker
}

// ReceiptService 小票业务接口
type ReceiptService interface {
	// Upload 上传小票；首张小票使报销单进入 verification
	Upload(ctx context.Context, caller Caller, ticketID string, form *dto.UploadReceiptForm, file UploadedFile) (*dto.ReceiptResponse, error)
	List(ctx context.Context, caller Caller, ticketID string) ([]dto.ReceiptResponse, error)
	// DownloadURL 返回限时下载链接
	DownloadURL(ctx context.Context, caller Caller, receiptID string) (string, error)
	Delete(ctx context.Context, caller Caller, receiptID string) error
	Pay(ctx context.Context, caller Caller, receiptID string, req *dto.PayReceiptRequest) (*dto.ReceiptResponse, error)
}

type receiptService struct {
	repo      *repository.Repository
	store     ObjectStore
	validator *upload.Validator
	notifier  NotificationService
	loc       *time.Location
	logger    *zap.Logger
}

// NewReceiptService 创建 ReceiptService 实例
func NewReceiptService(
	repo *repository.Repository,
	store ObjectStore,
	validator *upload.Validator,
	notifier NotificationService,
	loc *time.Location,
	logger *zap.Logger,
) ReceiptService {
	return &receiptService{
		repo:      repo,
		store:     store,
		validator: validator,
		notifier:  notifier,
		loc:       loc,
		logger:    logger,
	}
}

// ────────────────────── Upload ──────────────────────

func (s *receiptService) Upload(ctx context.Context, caller Caller, ticketID string, form *dto.UploadReceiptForm, file UploadedFile) (*dto.ReceiptResponse, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrNoPermission
	}
	if !ticket.AcceptsReceipts() {
		return nil, ErrTicketClosedForUpload
	}

	amount, err := money.ParsePositive(form.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	var purchasedAt *time.Time
	if form.PurchasedAt != "" {
		t, err := time.ParseInLocation(time.DateOnly, form.PurchasedAt, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTime, form.PurchasedAt)
		}
		purchasedAt = &t
	}

	// 1. 校验文件（扩展名 → 大小 → 魔数 → 一致性）
	info, err := s.validator.Validate(file.Name, file.Size, file.Content)
	if err != nil {
		return nil, err
	}

	// 2. 先写对象存储，数据库失败时再删除
	key := upload.ObjectKey(ticketID, info.Ext)
	if err := s.store.Put(ctx, key, file.Content, info.Size, info.ContentType); err != nil {
		s.logger.Error("上传小票文件失败", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}

	receipt := &model.Receipt{
		TicketID:    ticketID,
		Amount:      amount,
		Vendor:      strings.TrimSpace(form.Vendor),
		PurchasedAt: purchasedAt,
		ObjectKey:   key,
		FileName:    info.Name,
		ContentType: info.ContentType,
		Size:        info.Size,
		UploadedBy:  caller.UserID,
	}
	receipt.CreatedBy = &caller.UserID
	receipt.UpdatedBy = &caller.UserID

	// 3. 同一事务内创建小票并推进报销单状态
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Receipt.Create(ctx, receipt); err != nil {
			return err
		}
		if ticket.Status == model.TicketApproved {
			ticket.Status = model.TicketVerification
			ticket.UpdatedBy = &caller.UserID
			return txRepo.Ticket.Update(ctx, ticket)
		}
		return nil
	})
	if err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.logger.Warn("清理小票文件失败", zap.String("key", key), zap.Error(rmErr))
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存小票失败", zap.String("ticket_id", ticketID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("上传小票",
		zap.String("receipt_id", receipt.ReceiptID), zap.String("ticket_id", ticketID),
		zap.String("amount", amount.StringFixed(2)))
	return toReceiptResponse(receipt, s.loc), nil
}

// ────────────────────── List ──────────────────────

func (s *receiptService) List(ctx context.Context, caller Caller, ticketID string) ([]dto.ReceiptResponse, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, ticket) {
		return nil, ErrNoPermission
	}

	receipts, err := s.repo.Receipt.ListByTicket(ctx, ticketID)
	if err != nil {
		s.logger.Error("查询小票失败", zap.String("ticket_id", ticketID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		result = append(result, *toReceiptResponse(&receipts[i], s.loc))
	}
	return result, nil
}

// ────────────────────── DownloadURL ──────────────────────

func (s *receiptService) DownloadURL(ctx context.Context, caller Caller, receiptID string) (string, error) {
	receipt, ticket, err := s.getReceiptWithTicket(ctx, receiptID)
	if err != nil {
		return "", err
	}
	if !canView(caller, ticket) {
		return "", ErrNoPermission
	}

	if _, err := s.store.Stat(ctx, receipt.ObjectKey); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("小票文件丢失", zap.String("receipt_id", receiptID), zap.String("key", receipt.ObjectKey))
			return "", ErrReceiptFileMissing
		}
		return "", err
	}

	return s.store.PresignedURL(ctx, receipt.ObjectKey, receipt.FileName)
}

// ────────────────────── Delete ──────────────────────

func (s *receiptService) Delete(ctx context.Context, caller Caller, receiptID string) error {
	receipt, _, err := s.getReceiptWithTicket(ctx, receiptID)
	if err != nil {
		return err
	}
	if receipt.UploadedBy != caller.UserID && !caller.IsAdmin() {
		return ErrNoPermission
	}
	if receipt.IsPaid {
		return ErrReceiptAlreadyPaid
	}

	if err := s.repo.Receipt.Delete(ctx, receiptID); err != nil {
		// 读取后被并发标记为已报销，文件必须保留
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrReceiptAlreadyPaid
		}
		s.logger.Error("删除小票失败", zap.String("id", receiptID), zap.Error(err))
		return err
	}

	// 文件删除失败不影响结果，孤儿对象可由存储生命周期规则清理
	if err := s.store.Remove(ctx, receipt.ObjectKey); err != nil {
		s.logger.Warn("删除小票文件失败", zap.String("key", receipt.ObjectKey), zap.Error(err))
	}

	s.logger.Info("删除小票", zap.String("receipt_id", receiptID), zap.String("caller", caller.UserID))
	return nil
}

// ────────────────────── Pay ──────────────────────

func (s *receiptService) Pay(ctx context.Context, caller Caller, receiptID string, req *dto.PayReceiptRequest) (*dto.ReceiptResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrNoPermission
	}
	if req.Method != model.PayCash && req.Method != model.PayTransfer {
		return nil, ErrInvalidPayMethod
	}

	receipt, ticket, err := s.getReceiptWithTicket(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.IsPaid {
		return nil, ErrReceiptAlreadyPaid
	}

	now := time.Now()
	if err := s.repo.Receipt.MarkPaid(ctx, receiptID, caller.UserID, req.Method, now); err != nil {
		// 并发报销：条件更新未命中
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrReceiptAlreadyPaid
		}
		s.logger.Error("报销小票失败", zap.String("id", receiptID), zap.Error(err))
		return nil, err
	}

	receipt.IsPaid = true
	receipt.PaidAt = &now
	receipt.PaidBy = &caller.UserID
	receipt.PayMethod = &req.Method

	s.notifier.ReceiptPaid(ticket, receipt, ticket.Requester)
	s.logger.Info("报销小票",
		zap.String("receipt_id", receiptID), zap.String("method", req.Method), zap.String("caller", caller.UserID))
	return toReceiptResponse(receipt, s.loc), nil
}

// ── 内部辅助方法 ──

func (s *receiptService) getTicket(ctx context.Context, id string) (*model.Ticket, error) {
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

// getReceiptWithTicket 报销单已删除时小票同样视为不存在
func (s *receiptService) getReceiptWithTicket(ctx context.Context, id string) (*model.Receipt, *model.Ticket, error) {
	receipt, err := s.repo.Receipt.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrReceiptNotFound
		}
		s.logger.Error("查询小票失败", zap.String("id", id), zap.Error(err))
		return nil, nil, err
	}

	ticket, err := s.getTicket(ctx, receipt.TicketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return nil, nil, ErrReceiptNotFound
		}
		return nil, nil, err
	}
	return receipt, ticket, nil
}

func toReceiptResponse(r *model.Receipt, loc *time.Location) *dto.ReceiptResponse {
	resp := &dto.ReceiptResponse{
		ID:          r.ReceiptID,
		TicketID:    r.TicketID,
		Amount:      formatAmount(r.Amount),
		Vendor:      r.Vendor,
		FileName:    r.FileName,
		ContentType: r.ContentType,
		Size:        r.Size,
		UploadedBy:  r.UploadedBy,
		IsPaid:      r.IsPaid,
		PaidAt:      formatTimePtr(r.PaidAt, loc),
		PayMethod:   derefString(r.PayMethod),
		CreatedAt:   formatTime(r.CreatedAt, loc),
	}
	if r.PurchasedAt != nil {
		resp.PurchasedAt = r.PurchasedAt.Format(time.DateOnly)
	}
	return resp
}
