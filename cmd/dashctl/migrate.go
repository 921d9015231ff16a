package main

import (
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"p4-dashboard/config"
	"p4-dashboard/pkg/database"
	applogger "p4-dashboard/pkg/logger"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "上传审计表的数据库迁移",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "执行全部未应用的迁移",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(database.RunMigrations)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "回滚最近一次迁移",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(database.RollbackMigration)
	},
}

func withDB(fn func(db *sql.DB, logger *zap.Logger) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return fn(sqlDB, logger)
}
