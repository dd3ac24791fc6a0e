package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"uctenky/backend/internal/dto"
	"uctenky/backend/internal/model"
	"uctenky/backend/internal/repository"
	"uctenky/backend/pkg/semester"
)

// ── 通用业务错误 ──

var (
	ErrNoPermission    = errors.New("无权操作")
	ErrInvalidSemester = errors.New("学期编号无效")
	ErrInvalidTime     = errors.New("时间格式无效")
)

// Caller 当前请求的调用者（来自 JWT）
type Caller struct {
	UserID    string
	Role      string
	SectionID string
}

// IsAdmin 是否管理员
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// IsHeadOf 是否为指定小组的组长
func (c Caller) IsHeadOf(sectionID string) bool {
	return c.Role == model.RoleHead && c.SectionID != "" && c.SectionID == sectionID
}

// semesterRange 将学期编号转换为查询区间，空字符串表示不限
func semesterRange(key string, loc *time.Location) (*repository.TimeRange, error) {
	if key == "" {
		return nil, nil
	}
	period, err := semester.RangeIn(key, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSemester, key)
	}
	return &repository.TimeRange{Start: period.Start, End: period.End}, nil
}

// parseTimeOrNow 解析 RFC3339 时间，空字符串返回当前时间
func parseTimeOrNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTime, s)
	}
	return t, nil
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func formatTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return formatTime(*t, loc)
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.Name}
}

func toSectionBrief(s *model.Section) *dto.SectionBrief {
	if s == nil {
		return nil
	}
	return &dto.SectionBrief{ID: s.SectionID, Name: s.Name}
}
