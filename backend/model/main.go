package model

import (
	"log"
	"strings"
	"time"

	"tuneful/backend/common"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func chooseDialector() gorm.Dialector {
	dsn := common.SQLDSN
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		common.SysLog("Using PostgreSQL as database")
		return postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	case dsn != "":
		common.SysLog("Using MySQL as database")
		return mysql.Open(dsn)
	default:
		common.SysLog("SQL_DSN not set, using SQLite as database: " + common.SQLitePath)
		return sqlite.Open(sqliteDSN(common.SQLitePath))
	}
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off by default.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// InitDB opens the configured database and migrates the catalog schema.
// The returned handle is shared; requests work on sessions derived from it.
func InitDB() (*gorm.DB, error) {
	db, err := gorm.Open(chooseDialector(), &gorm.Config{
		PrepareStmt: true,
		Logger: logger.New(log.New(gin.DefaultWriter, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(&File{}, &Song{}); err != nil {
		return nil, err
	}

	common.SysLog("Database initialized successfully.")
	return db, nil
}

func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	common.SysLog("Closing database connection.")
	return sqlDB.Close()
}
