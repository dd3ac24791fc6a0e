package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRunSemester(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	if err != nil {
		t.Skipf("缺少时区数据: %v", err)
	}
	now := time.Date(2025, time.October, 16, 12, 0, 0, 0, prague)

	tests := []struct {
		name string
		args []string
		sort bool
		want []string
	}{
		{"当前学期", nil, false, []string{"ZS25\tZS 2025/26\t2025-09-01T00:00:00+02:00\t2026-01-31T23:59:59.999+01:00"}},
		{"一月属于冬季学期", []string{"2026-01-15"}, false, []string{"2026-01-15\tZS 2025/26\t"}},
		{"学期键", []string{"LS26"}, false, []string{"LS26\tLS 2026\t2026-02-01T00:00:00+01:00\t2026-08-31T23:59:59.999+02:00"}},
		{"排序", []string{"LS25", "bad", "ZS25", "LS26"}, true, []string{"LS26\nZS25\nLS25\nbad\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			semesterSort = tt.sort
			defer func() { semesterSort = false }()

			var out bytes.Buffer
			if err := runSemester(&out, tt.args, prague, now); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("输出缺少 %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestRunSemester_InvalidKey(t *testing.T) {
	if err := runSemester(&bytes.Buffer{}, []string{"XX25"}, time.UTC, time.Now()); err == nil {
		t.Error("expected error for invalid key")
	}
}
