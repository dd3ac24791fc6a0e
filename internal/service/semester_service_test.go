package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"uctenky/backend/internal/model"
)

func setupTestSemesterService(now time.Time) (SemesterService, *mocks) {
	m := newMocks()
	m.seedOrg()
	svc := NewSemesterService(m.repo, testLoc, nopLogger())
	svc.(*semesterService).now = func() time.Time { return now }
	return svc, m
}

func TestSemesterService_Current(t *testing.T) {
	svc, _ := setupTestSemesterService(time.Date(2026, 1, 15, 9, 0, 0, 0, testLoc))

	resp := svc.Current(context.Background())
	if resp.Key != "ZS25" || !resp.Current {
		t.Errorf("1 月属于上一年的冬季学期，实际 %+v", resp)
	}
	if resp.Label != "ZS 2025/26" {
		t.Errorf("标签错误: %s", resp.Label)
	}
	if resp.Start != "2025-09-01T00:00:00+02:00" || resp.End != "2026-01-31T23:59:59+01:00" {
		t.Errorf("区间错误: %s – %s", resp.Start, resp.End)
	}
}

func TestSemesterService_Current_UsesConfiguredZone(t *testing.T) {
	// UTC 1 月 31 日 23:30 在布拉格已是 2 月 1 日
	svc, _ := setupTestSemesterService(time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC))

	if got := svc.Current(context.Background()).Key; got != "LS26" {
		t.Errorf("期望 LS26，实际 %s", got)
	}
}

func TestSemesterService_List(t *testing.T) {
	svc, m := setupTestSemesterService(time.Date(2026, 3, 1, 12, 0, 0, 0, testLoc))
	m.addTicket("t-1", "sec-a", "u-member", model.TicketDone, time.Date(2025, 3, 10, 0, 0, 0, 0, testLoc))
	m.deposits.items["d-1"] = &model.Deposit{DepositID: "d-1", Amount: dec("10"), DepositedAt: time.Date(2024, 10, 1, 0, 0, 0, 0, testLoc)}

	resp, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}

	want := []string{"LS26", "ZS25", "LS25", "ZS24"}
	if len(resp.List) != len(want) {
		t.Fatalf("期望 %v，实际 %+v", want, resp.List)
	}
	for i, key := range want {
		if resp.List[i].Key != key {
			t.Errorf("第 %d 项期望 %s，实际 %s", i, key, resp.List[i].Key)
		}
	}
	if resp.Current != "LS26" || !resp.List[0].Current || resp.List[1].Current {
		t.Errorf("只有当前学期应标记 current: %+v", resp)
	}
}

func TestSemesterService_List_NoData(t *testing.T) {
	svc, _ := setupTestSemesterService(time.Date(2025, 10, 1, 12, 0, 0, 0, testLoc))

	resp, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(resp.List) != 1 || resp.List[0].Key != "ZS25" {
		t.Errorf("没有数据时只返回当前学期，实际 %+v", resp.List)
	}
}

func TestSemesterService_Get(t *testing.T) {
	svc, _ := setupTestSemesterService(time.Date(2026, 3, 1, 12, 0, 0, 0, testLoc))

	resp, err := svc.Get(context.Background(), "LS25")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if resp.Current || resp.Start != "2025-02-01T00:00:00+01:00" {
		t.Errorf("LS25 字段错误: %+v", resp)
	}

	// 补零的键按规范形式返回
	resp, err = svc.Get(context.Background(), "LS05")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if resp.Key != "LS5" || resp.Label != "LS 2005" {
		t.Errorf("期望规范键 LS5，实际 %+v", resp)
	}

	svc, _ = setupTestSemesterService(time.Date(2005, 10, 1, 12, 0, 0, 0, testLoc))
	resp, err = svc.Get(context.Background(), "ZS05")
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if resp.Key != "ZS5" || !resp.Current {
		t.Errorf("ZS05 应视为当前学期 ZS5，实际 %+v", resp)
	}

	for _, key := range []string{"", "ZS", "XS25", "ZS2025", "zs25x"} {
		if _, err := svc.Get(context.Background(), key); !errors.Is(err, ErrInvalidSemester) {
			t.Errorf("key=%q 期望 ErrInvalidSemester，实际: %v", key, err)
		}
	}
}
