package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"uctenky/backend/pkg/semester"
)

var (
	semesterSort     bool
	semesterTimezone string
)

// semester 子命令不依赖配置文件，只做日期推算
var semesterCmd = &cobra.Command{
	Use:   "semester [date|key...]",
	Short: "查询学期键与时间范围",
	Long: `不带参数时输出当前学期；参数为日期（2006-01-02）时输出所在学期，
为学期键（如 ZS25、LS26）时输出时间范围。--sort 按新到旧排序给定的学期键。`,
	Example: "  uctenky semester\n  uctenky semester 2026-01-15\n  uctenky semester ZS25\n  uctenky semester --sort LS25 ZS25 LS26",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(semesterTimezone)
		if err != nil {
			return fmt.Errorf("时区无效: %w", err)
		}
		return runSemester(cmd.OutOrStdout(), args, loc, time.Now())
	},
}

func init() {
	semesterCmd.Flags().BoolVar(&semesterSort, "sort", false, "按新到旧排序给定的学期键")
	semesterCmd.Flags().StringVar(&semesterTimezone, "tz", "Europe/Prague", "IANA 时区")
}

func runSemester(out io.Writer, args []string, loc *time.Location, now time.Time) error {
	if semesterSort {
		for _, key := range semester.Sort(args) {
			fmt.Fprintln(out, key)
		}
		return nil
	}

	if len(args) == 0 {
		args = []string{semester.Of(now.In(loc))}
	}

	for _, arg := range args {
		key := arg
		if d, err := time.ParseInLocation("2006-01-02", arg, loc); err == nil {
			key = semester.Of(d)
		}
		period, err := semester.RangeIn(key, loc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", arg, semester.Label(key),
			period.Start.Format(time.RFC3339), period.End.Format("2006-01-02T15:04:05.000Z07:00"))
	}
	return nil
}
