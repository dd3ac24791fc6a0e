// Package semester 学期日历：把日期归入 ZS（冬季学期）/ LS（夏季学期）报表周期。
//
// 学期键格式为 "ZS{yy}" 或 "LS{yy}"，yy 为 year%100 的十进制表示，不补零
// （2000 年 → "ZS0"）。导出文件与前端均按字符串比较学期键，格式不可更改。
package semester

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

const (
	// WinterPrefix 冬季学期（9 月 – 次年 1 月）
	WinterPrefix = "ZS"
	// SummerPrefix 夏季学期（2 月 – 8 月）
	SummerPrefix = "LS"
)

// ErrInvalidKey 学期键格式无效
var ErrInvalidKey = errors.New("无效的学期键")

// Key 解析后的学期键
type Key struct {
	Winter bool
	Year   int // 两位年份（0–99）
}

// String 还原为 "ZS25" / "LS26" 形式
func (k Key) String() string {
	prefix := SummerPrefix
	if k.Winter {
		prefix = WinterPrefix
	}
	return prefix + strconv.Itoa(k.Year)
}

// Period 学期时间范围，Start 与 End 均为闭区间端点
type Period struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains 判断 t 是否落在 [Start, End] 内
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Of 返回日期所属学期键，月份按 t 自身的时区计算。
// 1 月属于上一年开始的冬季学期；2000 年 1 月得到 "ZS99"。
func Of(t time.Time) string {
	year := t.Year()
	switch month := t.Month(); {
	case month >= time.September:
		return WinterPrefix + strconv.Itoa(year%100)
	case month == time.January:
		return WinterPrefix + strconv.Itoa(mod100(year-1))
	default:
		return SummerPrefix + strconv.Itoa(year%100)
	}
}

// Current 返回当前学期键，每次调用都重新读取系统时间
func Current() string {
	return Of(time.Now())
}

// CurrentIn 按指定时区返回当前学期键
func CurrentIn(loc *time.Location) string {
	return Of(time.Now().In(loc))
}

// Parse 解析学期键。前缀必须为 ZS/LS，后缀为 1–2 位非负整数。
func Parse(key string) (Key, error) {
	if len(key) < 3 || len(key) > 4 {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var k Key
	switch key[:2] {
	case WinterPrefix:
		k.Winter = true
	case SummerPrefix:
	default:
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	suffix := key[2:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	year, err := strconv.Atoi(suffix)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	k.Year = year
	return k, nil
}

// Range 返回学期键对应的时间范围（本地时区）
func Range(key string) (Period, error) {
	return RangeIn(key, time.Local)
}

// RangeIn 返回学期键在指定时区下的时间范围。年份一律按 2000 + yy 解释。
//
//	ZS: 9 月 1 日 00:00:00.000 – 次年 1 月 31 日 23:59:59.999
//	LS: 2 月 1 日 00:00:00.000 – 8 月 31 日 23:59:59.999
func RangeIn(key string, loc *time.Location) (Period, error) {
	k, err := Parse(key)
	if err != nil {
		return Period{}, err
	}
	if loc == nil {
		loc = time.Local
	}

	year := 2000 + k.Year
	const lastMilli = 999 * int(time.Millisecond)

	if k.Winter {
		return Period{
			Key:   key,
			Start: time.Date(year, time.September, 1, 0, 0, 0, 0, loc),
			End:   time.Date(year+1, time.January, 31, 23, 59, 59, lastMilli, loc),
		}, nil
	}
	return Period{
		Key:   key,
		Start: time.Date(year, time.February, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.August, 31, 23, 59, 59, lastMilli, loc),
	}, nil
}

// Sort 按年份降序排列学期键，同一年 ZS 排在 LS 之前；稳定排序，返回新切片。
// 无法解析的键保持原有相对顺序，排在所有有效键之后。
func Sort(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)

	sort.SliceStable(out, func(i, j int) bool {
		a, errA := Parse(out[i])
		b, errB := Parse(out[j])
		switch {
		case errA != nil:
			return false
		case errB != nil:
			return true
		case a.Year != b.Year:
			return a.Year > b.Year
		default:
			return a.Winter && !b.Winter
		}
	})
	return out
}

// Between 返回从 from 所在学期到 to 所在学期的全部学期键（最新在前）。
// from 晚于 to 时返回 nil。
func Between(from, to time.Time) []string {
	if from.After(to) {
		return nil
	}

	// 统一时区，否则月份游标可能永远追不上 to 的学期
	to = to.In(from.Location())

	var keys []string
	seen := make(map[string]bool)
	cursor := time.Date(from.Year(), from.Month(), 1, 12, 0, 0, 0, from.Location())
	last := Of(to)
	for {
		key := Of(cursor)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		if key == last {
			break
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// IsValid 判断学期键是否可解析
func IsValid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

func mod100(year int) int {
	return ((year % 100) + 100) % 100
}

// Label 返回便于展示的名称，如 "ZS 2025/26"、"LS 2026"
func Label(key string) string {
	k, err := Parse(key)
	if err != nil {
		return key
	}
	year := 2000 + k.Year
	if k.Winter {
		return fmt.Sprintf("%s %d/%02d", WinterPrefix, year, (year+1)%100)
	}
	return fmt.Sprintf("%s %d", SummerPrefix, year)
}
