package handler

import (
	"uctenky/backend/config"
	"uctenky/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Section      *SectionHandler
	Ticket       *TicketHandler
	Receipt      *ReceiptHandler
	CashRegister *CashRegisterHandler
	Semester     *SemesterHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		User:         NewUserHandler(svc.User),
		Section:      NewSectionHandler(svc.Section),
		Ticket:       NewTicketHandler(svc.Ticket),
		Receipt:      NewReceiptHandler(svc.Receipt),
		CashRegister: NewCashRegisterHandler(svc.CashRegister),
		Semester:     NewSemesterHandler(svc.Semester),
		Export:       NewExportHandler(svc.Export),
	}
}
