package database

import (
	"Courier/internal/api/config"
	"Courier/internal/model"
	"Courier/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	dsnCfg, err := mysqldriver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn: %w", err)
	}
	// 时间字段统一按 time.Time 扫描
	dsnCfg.ParseTime = true
	if dsnCfg.Loc == nil {
		dsnCfg.Loc = time.UTC
	}

	db, err := gorm.Open(mysql.New(mysql.Config{DSNConfig: dsnCfg}), &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if err = db.AutoMigrate(&model.Contact{}); err != nil {
		return nil, fmt.Errorf("failed to migrate contacts: %w", err)
	}

	log.Info("Database connection established successfully.", "addr", dsnCfg.Addr, "db", dsnCfg.DBName)
	return db, nil
}
