package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	"uctenky/backend/pkg/semester"
)

// ── 导出模块业务错误 ──

var (
	ErrExportFormat       = errors.New("不支持的导出格式")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// utf8BOM Excel 打开 CSV 时据此识别 UTF-8
const utf8BOM = "\ufeff"

// ExportFile 导出结果，由 Handler 设置响应头后写出
type ExportFile struct {
	Body        *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 导出业务接口
//
// CSV 使用 ";" 分隔并带 BOM，金额用小数逗号；xlsx 金额为数值单元格。
type ExportService interface {
	// ExportTickets 报销单列表（按创建时间）
	ExportTickets(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error)
	// ExportTransactions 存入、欠款修正、已报销小票按日期合并
	ExportTransactions(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: loc, logger: logger}
}

// table 与格式无关的表格，单元格为 string / decimal.Decimal / time.Time
type table struct {
	sheet  string
	header []string
	widths []float64
	rows   [][]interface{}
}

// ────────────────────── ExportTickets ──────────────────────

func (s *exportService) ExportTickets(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error) {
	created, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, err
	}

	tickets, err := s.repo.Ticket.ListAll(ctx, repository.TicketFilter{Created: created})
	if err != nil {
		s.logger.Error("查询报销单失败", zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.TicketID)
	}
	totals, err := s.repo.Receipt.TotalsByTickets(ctx, ids)
	if err != nil {
		s.logger.Error("汇总小票金额失败", zap.Error(err))
		return nil, err
	}

	tbl := &table{
		sheet:  "Žádosti",
		header: []string{"Vytvořeno", "Semestr", "Název", "Sekce", "Žadatel", "Stav", "Rozpočet", "Utraceno", "Neproplaceno"},
		widths: []float64{18, 9, 36, 20, 22, 14, 12, 12, 14},
	}
	for i := range tickets {
		t := &tickets[i]
		sectionName, requesterName := "", ""
		if t.Section != nil {
			sectionName = t.Section.Name
		}
		if t.Requester != nil {
			requesterName = t.Requester.Name
		}
		sum := totals[t.TicketID]
		tbl.rows = append(tbl.rows, []interface{}{
			t.CreatedAt.In(s.loc),
			semester.Of(t.CreatedAt.In(s.loc)),
			t.Title,
			sectionName,
			requesterName,
			t.Status,
			t.Budget,
			sum.Total,
			sum.Unpaid,
		})
	}

	return s.render(tbl, "zadosti", req)
}

// ────────────────────── ExportTransactions ──────────────────────

func (s *exportService) ExportTransactions(ctx context.Context, req *dto.ExportRequest) (*ExportFile, error) {
	period, err := semesterRange(req.Semester, s.loc)
	if err != nil {
		return nil, err
	}

	deposits, err := s.repo.Deposit.ListAll(ctx, period)
	if err != nil {
		s.logger.Error("查询存入记录失败", zap.Error(err))
		return nil, err
	}
	corrections, err := s.repo.DebtCorrection.ListAll(ctx, period)
	if err != nil {
		s.logger.Error("查询欠款修正失败", zap.Error(err))
		return nil, err
	}
	receipts, err := s.repo.Receipt.ListPaid(ctx, period)
	if err != nil {
		s.logger.Error("查询已报销小票失败", zap.Error(err))
		return nil, err
	}

	type txn struct {
		at     time.Time
		kind   string
		amount decimal.Decimal
		method string
		note   string
		ticket string
	}
	txns := make([]txn, 0, len(deposits)+len(corrections)+len(receipts))
	for _, d := range deposits {
		txns = append(txns, txn{at: d.DepositedAt, kind: "Vklad", amount: d.Amount, method: model.PayCash, note: d.Note})
	}
	for _, c := range corrections {
		note := c.Reason
		if c.User != nil {
			note = c.User.Name + ": " + note
		}
		txns = append(txns, txn{at: c.CreatedAt, kind: "Oprava dluhu", amount: c.Amount, note: note})
	}
	for _, r := range receipts {
		t := txn{kind: "Proplacení", amount: r.Amount.Neg(), method: derefString(r.PayMethod), note: r.Vendor}
		if r.PaidAt != nil {
			t.at = *r.PaidAt
		}
		if r.Ticket != nil {
			t.ticket = r.Ticket.Title
		}
		txns = append(txns, t)
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].at.Before(txns[j].at) })

	tbl := &table{
		sheet:  "Pohyby",
		header: []string{"Datum", "Typ", "Částka", "Způsob", "Poznámka", "Žádost"},
		widths: []float64{18, 14, 12, 10, 40, 36},
	}
	for _, t := range txns {
		tbl.rows = append(tbl.rows, []interface{}{t.at.In(s.loc), t.kind, t.amount, t.method, t.note, t.ticket})
	}

	return s.render(tbl, "pokladna", req)
}

// ── 渲染 ──

func (s *exportService) render(tbl *table, prefix string, req *dto.ExportRequest) (*ExportFile, error) {
	name := prefix
	if req.Semester != "" {
		name += "_" + req.Semester
	}

	switch req.GetFormat() {
	case "csv":
		buf, err := s.renderCSV(tbl)
		if err != nil {
			s.logger.Error("写入 CSV 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{Body: buf, Filename: name + ".csv", ContentType: "text/csv; charset=utf-8"}, nil
	case "xlsx":
		buf, err := s.renderXLSX(tbl)
		if err != nil {
			s.logger.Error("写入 Excel 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{
			Body:        buf,
			Filename:    name + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}, nil
	default:
		return nil, ErrExportFormat
	}
}

func (s *exportService) renderCSV(tbl *table) (*bytes.Buffer, error) {
	buf := bytes.NewBufferString(utf8BOM)
	w := csv.NewWriter(buf)
	w.Comma = ';'
	w.UseCRLF = true

	if err := w.Write(tbl.header); err != nil {
		return nil, err
	}
	record := make([]string, len(tbl.header))
	for _, row := range tbl.rows {
		for i, v := range row {
			record[i] = s.csvCell(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf, w.Error()
}

func (s *exportService) csvCell(v interface{}) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return strings.Replace(x.StringFixed(2), ".", ",", 1)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func (s *exportService) renderXLSX(tbl *table) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := tbl.sheet
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	for i, w := range tbl.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	amountFmt := "#,##0.00"
	amountStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	dateFmt := "yyyy-mm-dd hh:mm"
	dateStyle, _ := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})

	// 表头
	for i, h := range tbl.header {
		f.SetCellValue(sheet, cellName(i, 1), h)
	}
	f.SetCellStyle(sheet, cellName(0, 1), cellName(len(tbl.header)-1, 1), headerStyle)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	// 数据行
	for r, row := range tbl.rows {
		rowNum := r + 2
		for c, v := range row {
			ref := cellName(c, rowNum)
			switch x := v.(type) {
			case decimal.Decimal:
				f.SetCellFloat(sheet, ref, x.InexactFloat64(), 2, 64)
				f.SetCellStyle(sheet, ref, ref, amountStyle)
			case time.Time:
				if x.IsZero() {
					continue
				}
				// excelize 按墙上时间写入
				f.SetCellValue(sheet, ref, time.Date(x.Year(), x.Month(), x.Day(), x.Hour(), x.Minute(), x.Second(), 0, time.UTC))
				f.SetCellStyle(sheet, ref, ref, dateStyle)
			default:
				f.SetCellValue(sheet, ref, v)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// cellName 0 起的列号 + 1 起的行号
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
