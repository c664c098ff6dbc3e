package pkg

import (
	"fmt"
	"strings"

	"github.com/gaonpathshala/exam-portal/internal/config"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// InitDatabase opens Postgres, or SQLite when the URL starts with sqlite://.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsProduction() {
		logLevel = logger.Error
	}
	return OpenDatabase(cfg.DatabaseURL, logger.Default.LogMode(logLevel))
}

func OpenDatabase(url string, gormLogger logger.Interface) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	var dialector gorm.Dialector
	isSQLite := strings.HasPrefix(url, sqlitePrefix)
	if isSQLite {
		dialector = sqlite.Open(strings.TrimPrefix(url, sqlitePrefix))
	} else {
		dialector = postgres.Open(url)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite {
		// one connection keeps :memory: databases coherent
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table the portal owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Admin{},
		&models.Exam{},
		&models.Result{},
		&models.Session{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
