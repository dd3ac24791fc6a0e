package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
)

func setupTestSectionService() (SectionService, *mocks) {
	m := newMocks()
	m.seedOrg()
	return NewSectionService(m.repo, testLoc, nopLogger()), m
}

func TestSectionService_Create(t *testing.T) {
	svc, _ := setupTestSectionService()

	resp, err := svc.Create(context.Background(), &dto.CreateSectionRequest{Name: "  Média "}, "u-admin")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Name != "Média" || !resp.IsActive {
		t.Errorf("名称应去除空白且默认启用，实际 %+v", resp)
	}

	_, err = svc.Create(context.Background(), &dto.CreateSectionRequest{Name: "Kultura"}, "u-admin")
	if !errors.Is(err, ErrSectionNameExists) {
		t.Errorf("期望 ErrSectionNameExists，实际: %v", err)
	}
}

func TestSectionService_GetByID(t *testing.T) {
	svc, _ := setupTestSectionService()

	resp, err := svc.GetByID(context.Background(), "sec-a")
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if resp.Head == nil || resp.Head.ID != "u-head" {
		t.Errorf("应包含组长信息，实际 %+v", resp.Head)
	}
	if resp.MemberCount != 2 {
		t.Errorf("期望成员数 2，实际 %d", resp.MemberCount)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("期望 ErrSectionNotFound，实际: %v", err)
	}
}

func TestSectionService_List_Inactive(t *testing.T) {
	svc, m := setupTestSectionService()
	m.sections.sections["sec-b"].IsActive = false

	list, _ := svc.List(context.Background(), &dto.SectionListRequest{})
	if len(list) != 1 {
		t.Errorf("默认只列出启用的小组，实际 %d", len(list))
	}
	list, _ = svc.List(context.Background(), &dto.SectionListRequest{IncludeInactive: true})
	if len(list) != 2 {
		t.Errorf("include_inactive 应列出全部，实际 %d", len(list))
	}
}

func TestSectionService_Update_NameConflict(t *testing.T) {
	svc, _ := setupTestSectionService()

	name := "Sport"
	_, err := svc.Update(context.Background(), "sec-a", &dto.UpdateSectionRequest{Name: &name}, "u-admin")
	if !errors.Is(err, ErrSectionNameExists) {
		t.Errorf("期望 ErrSectionNameExists，实际: %v", err)
	}
}

func TestSectionService_Delete_OpenTickets(t *testing.T) {
	svc, m := setupTestSectionService()
	m.addTicket("t-1", "sec-a", "u-member", model.TicketVerification, time.Now())

	if err := svc.Delete(context.Background(), "sec-a", "u-admin"); !errors.Is(err, ErrSectionHasOpenTickets) {
		t.Errorf("期望 ErrSectionHasOpenTickets，实际: %v", err)
	}

	// 已完成的报销单不阻止删除
	m.tickets.tickets["t-1"].Status = model.TicketDone
	if err := svc.Delete(context.Background(), "sec-a", "u-admin"); err != nil {
		t.Errorf("Delete 应成功: %v", err)
	}
}

func TestSectionService_SetHead(t *testing.T) {
	svc, m := setupTestSectionService()

	resp, err := svc.SetHead(context.Background(), "sec-a", &dto.SetSectionHeadRequest{UserID: "u-other"}, "u-admin")
	if err != nil {
		t.Fatalf("SetHead 应成功: %v", err)
	}
	if resp.Head == nil || resp.Head.ID != "u-other" {
		t.Errorf("组长应为 u-other，实际 %+v", resp.Head)
	}

	newHead := m.users.users["u-other"]
	if newHead.Role != model.RoleHead || derefString(newHead.SectionID) != "sec-a" {
		t.Errorf("新组长应为 head 且属于 sec-a，实际 %s/%s", newHead.Role, derefString(newHead.SectionID))
	}
	if prev := m.users.users["u-head"]; prev.Role != model.RoleMember {
		t.Errorf("原组长应降为 member，实际 %s", prev.Role)
	}
}

func TestSectionService_SetHead_AdminKeepsRole(t *testing.T) {
	svc, m := setupTestSectionService()

	if _, err := svc.SetHead(context.Background(), "sec-b", &dto.SetSectionHeadRequest{UserID: "u-admin"}, "u-admin"); err != nil {
		t.Fatalf("SetHead 应成功: %v", err)
	}
	if m.users.users["u-admin"].Role != model.RoleAdmin {
		t.Error("管理员担任组长时应保留 admin 角色")
	}
}

func TestSectionService_SetHead_UnknownUser(t *testing.T) {
	svc, _ := setupTestSectionService()

	_, err := svc.SetHead(context.Background(), "sec-a", &dto.SetSectionHeadRequest{UserID: "ghost"}, "u-admin")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
