package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
)

func setupTestCashRegisterService() (CashRegisterService, *mocks) {
	m := newMocks()
	m.seedOrg()
	return NewCashRegisterService(m.repo, testLoc, nopLogger()), m
}

// ── 存入测试 ──

func TestCashRegisterService_CreateDeposit(t *testing.T) {
	svc, m := setupTestCashRegisterService()

	resp, err := svc.CreateDeposit(context.Background(), &dto.CreateDepositRequest{
		Amount:      "5 000",
		Note:        " Výběr z banky ",
		DepositedAt: "2025-10-01T10:00:00+02:00",
	}, "u-admin")
	if err != nil {
		t.Fatalf("CreateDeposit 应成功: %v", err)
	}
	if resp.Amount != "5000.00" || resp.Note != "Výběr z banky" || resp.CreatedBy != "u-admin" {
		t.Errorf("存入记录字段错误: %+v", resp)
	}
	if len(m.deposits.items) != 1 {
		t.Errorf("应写入 1 条记录，实际 %d", len(m.deposits.items))
	}
}

func TestCashRegisterService_CreateDeposit_Invalid(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	if _, err := svc.CreateDeposit(context.Background(), &dto.CreateDepositRequest{Amount: "-10"}, "u-admin"); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("负数存入期望 ErrInvalidAmount，实际: %v", err)
	}
	if _, err := svc.CreateDeposit(context.Background(), &dto.CreateDepositRequest{Amount: "10", DepositedAt: "1.10.2025"}, "u-admin"); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("期望 ErrInvalidTime，实际: %v", err)
	}
}

func TestCashRegisterService_ListDeposits_BySemester(t *testing.T) {
	svc, m := setupTestCashRegisterService()
	m.deposits.items["d-1"] = &model.Deposit{DepositID: "d-1", Amount: dec("100"), DepositedAt: time.Date(2025, 10, 1, 12, 0, 0, 0, testLoc)}
	m.deposits.items["d-2"] = &model.Deposit{DepositID: "d-2", Amount: dec("200"), DepositedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, testLoc)}

	req := &dto.CashRegisterListRequest{Semester: "LS26"}
	list, total, err := svc.ListDeposits(context.Background(), req)
	if err != nil {
		t.Fatalf("ListDeposits 应成功: %v", err)
	}
	if total != 1 || list[0].ID != "d-2" {
		t.Errorf("LS26 只应包含 d-2，实际 %+v", list)
	}
}

func TestCashRegisterService_DeleteDeposit(t *testing.T) {
	svc, m := setupTestCashRegisterService()
	m.deposits.items["d-1"] = &model.Deposit{DepositID: "d-1", Amount: dec("100"), DepositedAt: time.Now()}

	if err := svc.DeleteDeposit(context.Background(), "d-1", "u-admin"); err != nil {
		t.Fatalf("DeleteDeposit 应成功: %v", err)
	}
	if err := svc.DeleteDeposit(context.Background(), "d-1", "u-admin"); !errors.Is(err, ErrDepositNotFound) {
		t.Errorf("期望 ErrDepositNotFound，实际: %v", err)
	}
}

// ── 欠款修正测试 ──

func TestCashRegisterService_CreateCorrection(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	resp, err := svc.CreateCorrection(context.Background(), &dto.CreateDebtCorrectionRequest{
		Amount: "-150,5",
		Reason: "Chybně vrácené drobné",
		UserID: "u-member",
	}, "u-admin")
	if err != nil {
		t.Fatalf("CreateCorrection 应成功: %v", err)
	}
	if resp.Amount != "-150.50" {
		t.Errorf("修正金额应保留符号，实际 %s", resp.Amount)
	}
	if resp.User == nil || resp.User.ID != "u-member" {
		t.Errorf("应关联用户 u-member，实际 %+v", resp.User)
	}
}

func TestCashRegisterService_CreateCorrection_Invalid(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	if _, err := svc.CreateCorrection(context.Background(), &dto.CreateDebtCorrectionRequest{Amount: "0,00", Reason: "xx"}, "u-admin"); !errors.Is(err, ErrZeroCorrection) {
		t.Errorf("期望 ErrZeroCorrection，实际: %v", err)
	}
	if _, err := svc.CreateCorrection(context.Background(), &dto.CreateDebtCorrectionRequest{Amount: "10", Reason: "xx", UserID: "u-ghost"}, "u-admin"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── 现金盘点测试 ──

func TestCashRegisterService_CreateCount(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	if _, err := svc.CreateCount(context.Background(), &dto.CreateCashCountRequest{Amount: "-1"}, "u-admin"); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("期望 ErrNegativeCount，实际: %v", err)
	}

	// 空钱箱是合法的盘点结果
	resp, err := svc.CreateCount(context.Background(), &dto.CreateCashCountRequest{Amount: "0"}, "u-admin")
	if err != nil {
		t.Fatalf("CreateCount 应成功: %v", err)
	}
	if resp.Amount != "0.00" {
		t.Errorf("期望 0.00，实际 %s", resp.Amount)
	}
}

// ── Overview 测试 ──

func TestCashRegisterService_Overview(t *testing.T) {
	svc, m := setupTestCashRegisterService()
	zs := time.Date(2025, 11, 10, 12, 0, 0, 0, testLoc)
	ls := time.Date(2026, 3, 10, 12, 0, 0, 0, testLoc)

	// ZS25 存入 1000，LS26 存入 500
	m.deposits.items["d-1"] = &model.Deposit{DepositID: "d-1", Amount: dec("1000"), DepositedAt: zs}
	m.deposits.items["d-2"] = &model.Deposit{DepositID: "d-2", Amount: dec("500"), DepositedAt: ls}
	// ZS25 修正 -50
	m.corrections.items["c-1"] = &model.DebtCorrection{CorrectionID: "c-1", Amount: dec("-50"), SoftDeleteModel: model.SoftDeleteModel{BaseModel: model.BaseModel{CreatedAt: zs}}}

	m.addTicket("t-1", "sec-a", "u-member", model.TicketVerification, zs)
	m.addReceipt("r-cash", "t-1", "300", model.PayCash, zs)
	m.addReceipt("r-transfer", "t-1", "200", model.PayTransfer, zs)
	m.addReceipt("r-cash-ls", "t-1", "100", model.PayCash, ls)
	m.addReceipt("r-open", "t-1", "70", "", time.Time{})

	// 已删除报销单的小票不计入
	m.addReceipt("r-orphan", "t-deleted", "999", model.PayCash, zs)

	m.counts.items = append(m.counts.items,
		model.CashCount{CountID: "k-1", Amount: dec("600"), CountedAt: zs},
		model.CashCount{CountID: "k-2", Amount: dec("1040"), CountedAt: ls},
	)

	resp, err := svc.Overview(context.Background(), &dto.OverviewRequest{Semester: "ZS25"})
	if err != nil {
		t.Fatalf("Overview 应成功: %v", err)
	}

	checks := map[string][2]string{
		"deposits":         {resp.Deposits, "1000.00"},
		"cash_paid":        {resp.CashPaid, "300.00"},
		"transfer_paid":    {resp.TransferPaid, "200.00"},
		"corrections":      {resp.Corrections, "-50.00"},
		"net":              {resp.Net, "650.00"},
		"expected_balance": {resp.ExpectedBalance, "1050.00"}, // 1500 - 50 - 400
		"outstanding":      {resp.Outstanding, "70.00"},
		"discrepancy":      {resp.Discrepancy, "-10.00"}, // 1040 - 1050
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s: 期望 %s，实际 %s", name, c[1], c[0])
		}
	}
	if resp.LatestCount == nil || resp.LatestCount.ID != "k-2" {
		t.Errorf("应返回最近一次盘点 k-2，实际 %+v", resp.LatestCount)
	}
	if resp.Start == "" || resp.End == "" {
		t.Error("指定学期时应返回区间")
	}
}

func TestCashRegisterService_Overview_Empty(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	resp, err := svc.Overview(context.Background(), &dto.OverviewRequest{})
	if err != nil {
		t.Fatalf("Overview 应成功: %v", err)
	}
	if resp.ExpectedBalance != "0.00" || resp.LatestCount != nil || resp.Discrepancy != "" {
		t.Errorf("空收银台概览错误: %+v", resp)
	}
}

func TestCashRegisterService_Overview_InvalidSemester(t *testing.T) {
	svc, _ := setupTestCashRegisterService()

	if _, err := svc.Overview(context.Background(), &dto.OverviewRequest{Semester: "ZS"}); !errors.Is(err, ErrInvalidSemester) {
		t.Errorf("期望 ErrInvalidSemester，实际: %v", err)
	}
}
