package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	pkgerrors "uctenky/backend/pkg/errors"
	"uctenky/backend/pkg/storage"
)

// ── 测试辅助：全部 mock 组装 ──

type mocks struct {
	repo        *repository.Repository
	users       *mockUserRepo
	sections    *mockSectionRepo
	tickets     *mockTicketRepo
	receipts    *mockReceiptRepo
	deposits    *mockDepositRepo
	corrections *mockDebtCorrectionRepo
	counts      *mockCashCountRepo
	store       *mockStore
	notifier    *mockNotifier
}

func newMocks() *mocks {
	m := &mocks{
		users:       newMockUserRepo(),
		sections:    newMockSectionRepo(),
		receipts:    newMockReceiptRepo(),
		deposits:    &mockDepositRepo{items: make(map[string]*model.Deposit)},
		corrections: &mockDebtCorrectionRepo{items: make(map[string]*model.DebtCorrection)},
		counts:      &mockCashCountRepo{},
		store:       newMockStore(),
		notifier:    &mockNotifier{},
	}
	m.sections.users = m.users
	m.tickets = newMockTicketRepo(m.users, m.sections)
	m.receipts.tickets = m.tickets
	m.repo = &repository.Repository{
		User:           m.users,
		Section:        m.sections,
		Ticket:         m.tickets,
		Receipt:        m.receipts,
		Deposit:        m.deposits,
		DebtCorrection: m.corrections,
		CashCount:      m.counts,
	}
	return m
}

var testLoc = mustLoadLocation("Europe/Prague")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var idSeq int

func nextID(prefix string) string {
	idSeq++
	return fmt.Sprintf("%s-%04d", prefix, idSeq)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = nextID("user")
	}
	if user.Version == 0 {
		user.Version = 1
	}
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.SectionID != "" && derefString(u.SectionID) != filter.SectionID {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role && u.IsActive {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) CountBySection(_ context.Context, sectionID string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if derefString(u.SectionID) == sectionID {
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Mock SectionRepository ──

type mockSectionRepo struct {
	sections map[string]*model.Section
	users    *mockUserRepo
}

func newMockSectionRepo() *mockSectionRepo {
	return &mockSectionRepo{sections: make(map[string]*model.Section)}
}

func (m *mockSectionRepo) Create(_ context.Context, section *model.Section) error {
	if section.SectionID == "" {
		section.SectionID = nextID("sec")
	}
	cp := *section
	m.sections[section.SectionID] = &cp
	return nil
}

func (m *mockSectionRepo) GetByID(_ context.Context, id string) (*model.Section, error) {
	s, ok := m.sections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	if cp.HeadID != nil && m.users != nil {
		cp.Head = m.users.users[*cp.HeadID]
	}
	return &cp, nil
}

func (m *mockSectionRepo) GetByName(_ context.Context, name string) (*model.Section, error) {
	for _, s := range m.sections {
		if s.Name == name {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSectionRepo) List(_ context.Context, includeInactive bool) ([]model.Section, error) {
	var result []model.Section
	for _, s := range m.sections {
		if !includeInactive && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockSectionRepo) Update(_ context.Context, section *model.Section) error {
	cp := *section
	cp.Head = nil
	m.sections[section.SectionID] = &cp
	return nil
}

func (m *mockSectionRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.sections, id)
	return nil
}

// ── Mock TicketRepository ──

type mockTicketRepo struct {
	tickets  map[string]*model.Ticket
	users    *mockUserRepo
	sections *mockSectionRepo
}

func newMockTicketRepo(users *mockUserRepo, sections *mockSectionRepo) *mockTicketRepo {
	return &mockTicketRepo{tickets: make(map[string]*model.Ticket), users: users, sections: sections}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *model.Ticket) error {
	if ticket.TicketID == "" {
		ticket.TicketID = nextID("ticket")
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.Version = 1
	cp := *ticket
	m.tickets[ticket.TicketID] = &cp
	return nil
}

// load 模拟 Preload("Section").Preload("Requester")
func (m *mockTicketRepo) load(t *model.Ticket) model.Ticket {
	cp := *t
	if s, ok := m.sections.sections[cp.SectionID]; ok {
		sec := *s
		cp.Section = &sec
	}
	if u, ok := m.users.users[cp.RequesterID]; ok {
		user := *u
		cp.Requester = &user
	}
	return cp
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.load(t)
	return &cp, nil
}

func (m *mockTicketRepo) Update(_ context.Context, ticket *model.Ticket) error {
	stored, ok := m.tickets[ticket.TicketID]
	if !ok || stored.Version != ticket.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version++
	cp := *ticket
	cp.Section, cp.Requester = nil, nil
	m.tickets[ticket.TicketID] = &cp
	return nil
}

func (m *mockTicketRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.tickets, id)
	return nil
}

func (m *mockTicketRepo) match(t *model.Ticket, f repository.TicketFilter) bool {
	if f.Created != nil && (t.CreatedAt.Before(f.Created.Start) || t.CreatedAt.After(f.Created.End)) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.SectionID != "" && t.SectionID != f.SectionID {
		return false
	}
	if f.RequesterID != "" && t.RequesterID != f.RequesterID {
		return false
	}
	if s := f.Scope; s != nil {
		own := t.RequesterID == s.UserID
		section := s.SectionID != "" && t.SectionID == s.SectionID
		if !own && !section {
			return false
		}
	}
	return true
}

func (m *mockTicketRepo) ListAll(_ context.Context, filter repository.TicketFilter) ([]model.Ticket, error) {
	var result []model.Ticket
	for _, t := range m.tickets {
		if m.match(t, filter) {
			result = append(result, m.load(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockTicketRepo) List(ctx context.Context, filter repository.TicketFilter, offset, limit int) ([]model.Ticket, int64, error) {
	all, _ := m.ListAll(ctx, filter)
	// 最新在前
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockTicketRepo) CountInProgressBySection(_ context.Context, sectionID string) (int64, error) {
	var n int64
	for _, t := range m.tickets {
		if t.SectionID != sectionID {
			continue
		}
		switch t.Status {
		case model.TicketPending, model.TicketApproved, model.TicketVerification:
			n++
		}
	}
	return n, nil
}

func (m *mockTicketRepo) EarliestCreatedAt(_ context.Context) (*time.Time, error) {
	var earliest *time.Time
	for _, t := range m.tickets {
		if earliest == nil || t.CreatedAt.Before(*earliest) {
			at := t.CreatedAt
			earliest = &at
		}
	}
	return earliest, nil
}

// ── Mock ReceiptRepository ──

type mockReceiptRepo struct {
	receipts map[string]*model.Receipt
	tickets  *mockTicketRepo
	failNext error
	// beforeDelete 在删除前执行，用于模拟并发写入
	beforeDelete func()
}

func newMockReceiptRepo() *mockReceiptRepo {
	return &mockReceiptRepo{receipts: make(map[string]*model.Receipt)}
}

func (m *mockReceiptRepo) Create(_ context.Context, receipt *model.Receipt) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if receipt.ReceiptID == "" {
		receipt.ReceiptID = nextID("receipt")
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	cp := *receipt
	m.receipts[receipt.ReceiptID] = &cp
	return nil
}

func (m *mockReceiptRepo) GetByID(_ context.Context, id string) (*model.Receipt, error) {
	if r, ok := m.receipts[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReceiptRepo) ListByTicket(_ context.Context, ticketID string) ([]model.Receipt, error) {
	var result []model.Receipt
	for _, r := range m.receipts {
		if r.TicketID == ticketID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReceiptID < result[j].ReceiptID })
	return result, nil
}

func (m *mockReceiptRepo) Delete(_ context.Context, id string) error {
	if m.beforeDelete != nil {
		m.beforeDelete()
	}
	r, ok := m.receipts[id]
	if !ok || r.IsPaid {
		return pkgerrors.ErrOptimisticLock
	}
	delete(m.receipts, id)
	return nil
}

func (m *mockReceiptRepo) MarkPaid(_ context.Context, id, paidBy, method string, paidAt time.Time) error {
	r, ok := m.receipts[id]
	if !ok || r.IsPaid {
		return pkgerrors.ErrOptimisticLock
	}
	r.IsPaid = true
	r.PaidAt = &paidAt
	r.PaidBy = &paidBy
	r.PayMethod = &method
	return nil
}

func (m *mockReceiptRepo) TotalsByTickets(_ context.Context, ticketIDs []string) (map[string]repository.ReceiptTotals, error) {
	result := make(map[string]repository.ReceiptTotals)
	want := make(map[string]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		want[id] = true
	}
	for _, r := range m.receipts {
		if !want[r.TicketID] {
			continue
		}
		t := result[r.TicketID]
		t.TicketID = r.TicketID
		t.Total = t.Total.Add(r.Amount)
		t.Count++
		if !r.IsPaid {
			t.Unpaid = t.Unpaid.Add(r.Amount)
			t.UnpaidCount++
		}
		result[r.TicketID] = t
	}
	return result, nil
}

// live 报销单未删除
func (m *mockReceiptRepo) live(r *model.Receipt) bool {
	if m.tickets == nil {
		return true
	}
	_, ok := m.tickets.tickets[r.TicketID]
	return ok
}

func inRange(t time.Time, tr *repository.TimeRange) bool {
	return tr == nil || (!t.Before(tr.Start) && !t.After(tr.End))
}

func (m *mockReceiptRepo) SumPaid(_ context.Context, method string, paid *repository.TimeRange) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range m.receipts {
		if r.IsPaid && derefString(r.PayMethod) == method && m.live(r) && inRange(*r.PaidAt, paid) {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (m *mockReceiptRepo) SumOutstanding(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range m.receipts {
		if !r.IsPaid && m.live(r) {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (m *mockReceiptRepo) ListPaid(_ context.Context, paid *repository.TimeRange) ([]model.Receipt, error) {
	var result []model.Receipt
	for _, r := range m.receipts {
		if r.IsPaid && m.live(r) && inRange(*r.PaidAt, paid) {
			cp := *r
			if t, ok := m.tickets.tickets[r.TicketID]; ok {
				cp.Ticket = t
			}
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaidAt.Before(*result[j].PaidAt) })
	return result, nil
}

// ── Mock DepositRepository ──

type mockDepositRepo struct {
	items map[string]*model.Deposit
}

func (m *mockDepositRepo) Create(_ context.Context, d *model.Deposit) error {
	if d.DepositID == "" {
		d.DepositID = nextID("deposit")
	}
	cp := *d
	m.items[d.DepositID] = &cp
	return nil
}

func (m *mockDepositRepo) GetByID(_ context.Context, id string) (*model.Deposit, error) {
	if d, ok := m.items[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepositRepo) ListAll(_ context.Context, period *repository.TimeRange) ([]model.Deposit, error) {
	var result []model.Deposit
	for _, d := range m.items {
		if inRange(d.DepositedAt, period) {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DepositedAt.Before(result[j].DepositedAt) })
	return result, nil
}

func (m *mockDepositRepo) List(ctx context.Context, period *repository.TimeRange, offset, limit int) ([]model.Deposit, int64, error) {
	all, _ := m.ListAll(ctx, period)
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockDepositRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.items, id)
	return nil
}

func (m *mockDepositRepo) Sum(ctx context.Context, period *repository.TimeRange) (decimal.Decimal, error) {
	all, _ := m.ListAll(ctx, period)
	sum := decimal.Zero
	for _, d := range all {
		sum = sum.Add(d.Amount)
	}
	return sum, nil
}

func (m *mockDepositRepo) Earliest(ctx context.Context) (*time.Time, error) {
	all, _ := m.ListAll(ctx, nil)
	if len(all) == 0 {
		return nil, nil
	}
	return &all[0].DepositedAt, nil
}

// ── Mock DebtCorrectionRepository ──

type mockDebtCorrectionRepo struct {
	items map[string]*model.DebtCorrection
}

func (m *mockDebtCorrectionRepo) Create(_ context.Context, c *model.DebtCorrection) error {
	if c.CorrectionID == "" {
		c.CorrectionID = nextID("correction")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	m.items[c.CorrectionID] = &cp
	return nil
}

func (m *mockDebtCorrectionRepo) GetByID(_ context.Context, id string) (*model.DebtCorrection, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDebtCorrectionRepo) ListAll(_ context.Context, period *repository.TimeRange) ([]model.DebtCorrection, error) {
	var result []model.DebtCorrection
	for _, c := range m.items {
		if inRange(c.CreatedAt, period) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockDebtCorrectionRepo) List(ctx context.Context, period *repository.TimeRange, offset, limit int) ([]model.DebtCorrection, int64, error) {
	all, _ := m.ListAll(ctx, period)
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockDebtCorrectionRepo) Delete(_ context.Context, id, _ string) error {
	delete(m.items, id)
	return nil
}

func (m *mockDebtCorrectionRepo) Sum(ctx context.Context, period *repository.TimeRange) (decimal.Decimal, error) {
	all, _ := m.ListAll(ctx, period)
	sum := decimal.Zero
	for _, c := range all {
		sum = sum.Add(c.Amount)
	}
	return sum, nil
}

// ── Mock CashCountRepository ──

type mockCashCountRepo struct {
	items []model.CashCount
}

func (m *mockCashCountRepo) Create(_ context.Context, c *model.CashCount) error {
	if c.CountID == "" {
		c.CountID = nextID("count")
	}
	m.items = append(m.items, *c)
	return nil
}

func (m *mockCashCountRepo) List(_ context.Context, period *repository.TimeRange, offset, limit int) ([]model.CashCount, int64, error) {
	var result []model.CashCount
	for _, c := range m.items {
		if inRange(c.CountedAt, period) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CountedAt.After(result[j].CountedAt) })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockCashCountRepo) Latest(_ context.Context) (*model.CashCount, error) {
	if len(m.items) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	latest := m.items[0]
	for _, c := range m.items[1:] {
		if c.CountedAt.After(latest.CountedAt) {
			latest = c
		}
	}
	return &latest, nil
}

// ── Mock ObjectStore ──

type mockStore struct {
	objects map[string][]byte
	failPut error
	removed []string
}

func newMockStore() *mockStore {
	return &mockStore{objects: make(map[string][]byte)}
}

func (m *mockStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.failPut != nil {
		return m.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *mockStore) PresignedURL(_ context.Context, key, filename string) (string, error) {
	return "https://s3.test/" + key + "?filename=" + filename, nil
}

func (m *mockStore) Remove(_ context.Context, key string) error {
	m.removed = append(m.removed, key)
	delete(m.objects, key)
	return nil
}

func (m *mockStore) Stat(_ context.Context, key string) (int64, error) {
	data, ok := m.objects[key]
	if !ok {
		return 0, storage.ErrObjectNotFound
	}
	return int64(len(data)), nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

// ── Mock NotificationService ──

type mockNotifier struct {
	created  []string
	reviewed []string
	paid     []string
}

func (m *mockNotifier) TicketCreated(ticket *model.Ticket, head *model.User) {
	m.created = append(m.created, ticket.TicketID+"->"+head.UserID)
}

func (m *mockNotifier) TicketReviewed(ticket *model.Ticket, _ *model.User) {
	m.reviewed = append(m.reviewed, ticket.TicketID+":"+ticket.Status)
}

func (m *mockNotifier) ReceiptPaid(_ *model.Ticket, receipt *model.Receipt, _ *model.User) {
	m.paid = append(m.paid, receipt.ReceiptID)
}

func (m *mockNotifier) Close() {}

// ── 数据构造 ──

func (m *mocks) addUser(id, name, role, sectionID string) *model.User {
	u := &model.User{
		UserID:   id,
		Name:     name,
		Email:    id + "@test.cz",
		Role:     role,
		IsActive: true,
	}
	if sectionID != "" {
		u.SectionID = strPtr(sectionID)
	}
	u.Version = 1
	m.users.users[id] = u
	return u
}

func (m *mocks) addSection(id, name, headID string) *model.Section {
	s := &model.Section{SectionID: id, Name: name, IsActive: true}
	if headID != "" {
		s.HeadID = strPtr(headID)
	}
	s.Version = 1
	m.sections.sections[id] = s
	return s
}

func (m *mocks) addTicket(id, sectionID, requesterID, status string, createdAt time.Time) *model.Ticket {
	t := &model.Ticket{
		TicketID:    id,
		Title:       "Ticket " + id,
		SectionID:   sectionID,
		RequesterID: requesterID,
		Budget:      dec("1000"),
		Status:      status,
	}
	t.CreatedAt = createdAt
	t.Version = 1
	m.tickets.tickets[id] = t
	return t
}

func (m *mocks) addReceipt(id, ticketID, amount string, paidMethod string, paidAt time.Time) *model.Receipt {
	r := &model.Receipt{
		ReceiptID:   id,
		TicketID:    ticketID,
		Amount:      dec(amount),
		ObjectKey:   "receipts/" + ticketID + "/" + id + ".pdf",
		FileName:    id + ".pdf",
		ContentType: "application/pdf",
		UploadedBy:  "u-member",
	}
	if paidMethod != "" {
		r.IsPaid = true
		r.PayMethod = strPtr(paidMethod)
		r.PaidAt = &paidAt
	}
	m.receipts.receipts[id] = r
	m.store.objects[r.ObjectKey] = []byte("%PDF-1.4")
	return r
}

// 常用调用者
var (
	adminCaller  = Caller{UserID: "u-admin", Role: model.RoleAdmin}
	headCaller   = Caller{UserID: "u-head", Role: model.RoleHead, SectionID: "sec-a"}
	memberCaller = Caller{UserID: "u-member", Role: model.RoleMember, SectionID: "sec-a"}
	otherCaller  = Caller{UserID: "u-other", Role: model.RoleMember, SectionID: "sec-b"}
)

// seedOrg 两个小组、组长、成员与管理员
func (m *mocks) seedOrg() {
	m.addUser("u-admin", "Admin", model.RoleAdmin, "")
	m.addUser("u-head", "Hana Vedoucí", model.RoleHead, "sec-a")
	m.addUser("u-member", "Milan Člen", model.RoleMember, "sec-a")
	m.addUser("u-other", "Olga Jiná", model.RoleMember, "sec-b")
	m.addSection("sec-a", "Kultura", "u-head")
	m.addSection("sec-b", "Sport", "")
}
