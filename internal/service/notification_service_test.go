package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"uctenky/backend/internal/model"
	"uctenky/backend/pkg/mailer"
)

// recordingSender 记录发送的邮件
type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func notifyFixture() (*model.Ticket, *model.User, *model.User) {
	requester := &model.User{UserID: "u-member", Name: "Milan Člen", Email: "milan@test.cz", IsActive: true}
	head := &model.User{UserID: "u-head", Name: "Hana", Email: "hana@test.cz", IsActive: true}
	ticket := &model.Ticket{
		TicketID:    "t-1",
		Title:       "Plakáty",
		RequesterID: requester.UserID,
		Requester:   requester,
		Budget:      dec("1234.5"),
	}
	return ticket, requester, head
}

func TestNotificationService_TicketCreated(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, "https://uctenky.test/", nopLogger())
	ticket, _, head := notifyFixture()

	svc.TicketCreated(ticket, head)
	svc.Close()

	if len(sender.sent) != 1 {
		t.Fatalf("期望发送 1 封邮件，实际 %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To[0] != "hana@test.cz" || !strings.Contains(msg.Subject, "Plakáty") {
		t.Errorf("收件人或主题错误: %+v", msg)
	}
	if !strings.Contains(msg.Body, "1 234,50 Kč") || !strings.Contains(msg.Body, "https://uctenky.test/tickets/t-1") {
		t.Errorf("正文应包含金额与链接: %s", msg.Body)
	}
}

func TestNotificationService_SkipsSelfAndInactive(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, "https://uctenky.test", nopLogger())
	ticket, requester, head := notifyFixture()

	// 组长自己提交的报销单不通知自己
	svc.TicketCreated(ticket, requester)

	head.IsActive = false
	svc.TicketCreated(ticket, head)

	requester.Email = ""
	ticket.Status = model.TicketApproved
	svc.TicketReviewed(ticket, requester)
	svc.Close()

	if len(sender.sent) != 0 {
		t.Errorf("不应发送任何邮件，实际 %d", len(sender.sent))
	}
}

func TestNotificationService_TicketReviewed(t *testing.T) {
	sender := &recordingSender{}
	svc := NewNotificationService(sender, "https://uctenky.test", nopLogger())
	ticket, requester, _ := notifyFixture()

	ticket.Status = model.TicketRejected
	ticket.RejectReason = "Chybí rozpočet"
	svc.TicketReviewed(ticket, requester)

	// 其他状态不通知
	ticket.Status = model.TicketDone
	svc.TicketReviewed(ticket, requester)
	svc.Close()

	if len(sender.sent) != 1 {
		t.Fatalf("期望发送 1 封邮件，实际 %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Body, "Chybí rozpočet") {
		t.Errorf("驳回邮件应包含原因: %s", sender.sent[0].Body)
	}
}

func TestNotificationService_ReceiptPaid(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewNotificationService(sender, "https://uctenky.test", nopLogger())
	ticket, requester, _ := notifyFixture()
	receipt := &model.Receipt{ReceiptID: "r-1", Amount: dec("99.9"), PayMethod: strPtr(model.PayTransfer)}

	// 发送失败只记录日志
	svc.ReceiptPaid(ticket, receipt, requester)
	svc.Close()

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Body, "převodem") {
		t.Errorf("期望一封转账报销邮件，实际 %+v", sender.sent)
	}
}

func TestNotificationService_NilSender(t *testing.T) {
	svc := NewNotificationService(nil, "", nopLogger())
	ticket, requester, head := notifyFixture()

	svc.TicketCreated(ticket, head)
	svc.ReceiptPaid(ticket, &model.Receipt{Amount: dec("1")}, requester)
	svc.Close()
}
