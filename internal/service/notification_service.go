package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"uctenky/backend/internal/model"
	"uctenky/backend/pkg/mailer"
	"uctenky/backend/pkg/money"
)

// sendTimeout 单封邮件的发送超时
const sendTimeout = 30 * time.Second

// NotificationService 邮件通知（异步、尽力而为，失败只记日志）
type NotificationService interface {
	// TicketCreated 新报销单通知小组组长
	TicketCreated(ticket *model.Ticket, head *model.User)
	// TicketReviewed 审批结果通知申请人
	TicketReviewed(ticket *model.Ticket, requester *model.User)
	// ReceiptPaid 小票报销通知申请人
	ReceiptPaid(ticket *model.Ticket, receipt *model.Receipt, requester *model.User)
	// Close 等待所有发送中的邮件完成
	Close()
}

type notificationService struct {
	sender  mailer.Sender
	baseURL string
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewNotificationService 创建 NotificationService 实例，sender 为 nil 时不发送
func NewNotificationService(sender mailer.Sender, baseURL string, logger *zap.Logger) NotificationService {
	return &notificationService{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("notify"),
	}
}

func (s *notificationService) TicketCreated(ticket *model.Ticket, head *model.User) {
	if head == nil || head.UserID == ticket.RequesterID {
		return
	}
	requester := ""
	if ticket.Requester != nil {
		requester = ticket.Requester.Name
	}
	s.dispatch(head, fmt.Sprintf("Nová žádost: %s", ticket.Title), fmt.Sprintf(
		"%s podal(a) žádost o proplacení \"%s\" s rozpočtem %s.\n\nSchválit nebo zamítnout: %s\n",
		requester, ticket.Title, money.Format(ticket.Budget), s.ticketURL(ticket.TicketID)))
}

func (s *notificationService) TicketReviewed(ticket *model.Ticket, requester *model.User) {
	var subject, body string
	switch ticket.Status {
	case model.TicketApproved:
		subject = fmt.Sprintf("Žádost schválena: %s", ticket.Title)
		body = fmt.Sprintf("Vaše žádost \"%s\" byla schválena. Nahrajte účtenky: %s\n",
			ticket.Title, s.ticketURL(ticket.TicketID))
	case model.TicketRejected:
		subject = fmt.Sprintf("Žádost zamítnuta: %s", ticket.Title)
		body = fmt.Sprintf("Vaše žádost \"%s\" byla zamítnuta.\n\nDůvod: %s\n", ticket.Title, ticket.RejectReason)
	default:
		return
	}
	s.dispatch(requester, subject, body)
}

func (s *notificationService) ReceiptPaid(ticket *model.Ticket, receipt *model.Receipt, requester *model.User) {
	method := "hotově"
	if receipt.PayMethod != nil && *receipt.PayMethod == model.PayTransfer {
		method = "převodem"
	}
	s.dispatch(requester, fmt.Sprintf("Účtenka proplacena: %s", ticket.Title), fmt.Sprintf(
		"Účtenka na %s k žádosti \"%s\" byla proplacena %s.\n\n%s\n",
		money.Format(receipt.Amount), ticket.Title, method, s.ticketURL(ticket.TicketID)))
}

func (s *notificationService) Close() {
	s.wg.Wait()
}

// dispatch 在后台 goroutine 中发送，调用方不等待结果
func (s *notificationService) dispatch(to *model.User, subject, body string) {
	if s.sender == nil || to == nil || to.Email == "" || !to.IsActive {
		return
	}

	msg := mailer.Message{To: []string{to.Email}, Subject: subject, Body: body}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Warn("发送通知邮件失败",
				zap.String("user_id", to.UserID), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (s *notificationService) ticketURL(id string) string {
	return s.baseURL + "/tickets/" + id
}
