package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uctenky/backend/pkg/database"
)

var migrateDown int

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "执行数据库迁移后退出",
	Example: "  uctenky migrate\n  uctenky migrate --down 1",
	PreRunE: loadRuntime,
	PostRun: syncLogger,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
		if err != nil {
			return fmt.Errorf("数据库连接失败: %w", err)
		}
		defer closeDB(db)

		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}

		if migrateDown > 0 {
			return database.RollbackMigrations(sqlDB, migrateDown, logger)
		}
		return database.RunMigrations(sqlDB, logger)
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "回滚指定步数而不是升级")
}
