package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured metadata database and runs migrations.
// The returned handle is the process-wide, pooled connection; callers inject
// it where needed instead of reaching for a package global. A failure here is
// a startup error, never a lazy runtime surprise.
func Open(cfg *config.Config, logger logging.Logger) (*gorm.DB, error) {
	var gormLevel gormlogger.LogLevel
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		gormLevel = gormlogger.Info // SQL traces at debug level
	case "error", "fatal":
		gormLevel = gormlogger.Error
	default:
		gormLevel = gormlogger.Warn
	}

	var dialector gorm.Dialector
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if driver == "postgres" || driver == "postgresql" {
		if cfg.DBDsn == "" {
			return nil, fmt.Errorf("db: DATABASE_URL/DB_DSN is required for driver %q", driver)
		}
		dialector = postgres.Open(cfg.DBDsn)
		logger.Info("db connect", "driver", "postgres")
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DBPath)
		logger.Info("db connect", "driver", "sqlite", "path", cfg.DBPath)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger, gormLevel),
		TranslateError: true, // unique-index violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&models.Bucket{}, &models.Media{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// IsPostgres reports whether the open handle speaks the postgres dialect.
// The conditional-expiration query needs dialect-specific date arithmetic.
func IsPostgres(gdb *gorm.DB) bool {
	return gdb.Dialector.Name() == "postgres"
}
