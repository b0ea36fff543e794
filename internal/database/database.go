package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the GORM driver for the configured database
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.DBPath), nil
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
		)
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// Open connects to the configured database. The returned handle is the
// session factory handed to repositories; there is no package-level instance.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(LogLevel(cfg.DBLogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	slog.Info("Database connection established", "driver", cfg.DBDriver)
	return db, nil
}

// Migrate creates or updates the tasks table and its indexes
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations")
	if err := db.AutoMigrate(&models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := EnsureIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	slog.Info("Database migrations completed")
	return nil
}

// LogLevel maps a config string to a GORM log level
func LogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
