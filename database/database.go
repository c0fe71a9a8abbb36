package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/HomerusJa/mail-rememberer/config"
	"github.com/HomerusJa/mail-rememberer/models"
)

// Init opens the SQLite database named by the configuration.
// For "memory" (or an empty path) it uses an in-memory SQLite database.
// Foreign-key enforcement is switched on in the DSN so it holds for the
// lifetime of every connection, and GORM error translation is enabled so
// constraint violations surface as gorm sentinel errors.
func Init(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	gormConfig := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	dsn := cfg.DatabasePath
	var db *gorm.DB
	var err error

	if dsn == "memory" || dsn == "" {
		log.Println("INFO: [Database] Initializing in-memory SQLite database (DSN: 'memory' or empty).")
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=on"), gormConfig)
	} else {
		log.Printf("INFO: [Database] Initializing file-based SQLite database at '%s'.", dsn)
		dbDir := filepath.Dir(dsn)
		if dbDir != "." && dbDir != "/" {
			if _, statErr := os.Stat(dbDir); os.IsNotExist(statErr) {
				log.Printf("INFO: [Database] Database directory '%s' does not exist, attempting to create.", dbDir)
				if mkdirErr := os.MkdirAll(dbDir, 0755); mkdirErr != nil {
					log.Printf("ERROR: [Database] Failed to create database directory '%s': %v", dbDir, mkdirErr)
					return nil, fmt.Errorf("failed to create database directory '%s': %w", dbDir, mkdirErr)
				}
			}
		}
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_foreign_keys=on", dsn)), gormConfig)
	}

	if err != nil {
		log.Printf("ERROR: [Database] Failed to connect to database (path: '%s'): %v", dsn, err)
		return nil, fmt.Errorf("failed to connect to database (path: '%s'): %w", dsn, err)
	}

	log.Println("INFO: [Database] Database connection established successfully.")
	return db, nil
}

// Migrate creates the messages and tasks tables if they are absent. It is
// idempotent: calling it on an already-initialized database is a no-op.
func Migrate(db *gorm.DB) error {
	log.Println("INFO: [Database] Running migrations for messages and tasks.")
	if err := db.AutoMigrate(&models.Message{}, &models.Task{}); err != nil {
		log.Printf("ERROR: [Database] Migration failed: %v", err)
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("INFO: [Database] Migrations completed successfully.")
	return nil
}

// Reset unconditionally drops both tables. Destructive; intended only for
// development mode and never invoked implicitly. Tasks are dropped first so
// the foreign key on from_message does not block the drop.
func Reset(db *gorm.DB) error {
	log.Println("WARN: [Database] Dropping messages and tasks tables (development reset).")
	if err := db.Migrator().DropTable(&models.Task{}, &models.Message{}); err != nil {
		log.Printf("ERROR: [Database] Reset failed: %v", err)
		return fmt.Errorf("reset failed: %w", err)
	}
	return nil
}
