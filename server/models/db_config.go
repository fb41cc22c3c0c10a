package models

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Daskott/agenda/server/logger"
	"github.com/Daskott/agenda/utils"
	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "agenda.db"

// Open opens the encrypted sqlite db in 'dbRootDir'/db, migrates the schema
// and inserts seed data. A nil 'logg' logs to the console.
func Open(passPhrase string, dbRootDir string, logg *zap.SugaredLogger) (*gorm.DB, error) {
	if logg == nil {
		logg = logger.NewLogger()
	}

	if !utils.FileExist(DbFilePath(dbRootDir)) {
		logg.Infof("Creating new database in %v", DbFilePath(dbRootDir))
	}

	db, err := openDB(passPhrase, dbRootDir)
	if err != nil {
		return nil, err
	}

	err = AutoMigrate(db, logg)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate auto-migrates db schema and inserts seed data
func AutoMigrate(db *gorm.DB, logg *zap.SugaredLogger) error {
	err := db.AutoMigrate(&User{}, &Contact{}, &JobStatus{}, &Job{})
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %v", err)
	}

	return populateDBWithSeedData(db, logg)
}

// DbFilePath returns the location of the sqlite file for 'dbRootDir'
func DbFilePath(dbRootDir string) string {
	return filepath.Join(dbRootDir, "db", DB_NAME)
}

// DbDirectory returns the directory holding the sqlite file, creating it if needed
func DbDirectory(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func openDB(passPhrase string, dbRootDir string) (*gorm.DB, error) {
	dbDSNVal, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dbDSNVal), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %v", err)
	}

	return db, nil
}

func populateDBWithSeedData(db *gorm.DB, logg *zap.SugaredLogger) error {
	err := db.First(&JobStatus{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'JobStatus'")
		return db.Create(&[]JobStatus{
			{Name: ENQUEUED_JOB},
			{Name: IN_PROGRESS_JOB},
			{Name: SUCCESSFUL_JOB},
			{Name: DEAD_JOB},
		}).Error
	}

	return nil
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	dbDir, err := DbDirectory(dbRootDir)
	if err != nil {
		return "", err
	}

	dbName := fmt.Sprintf("file:%v", filepath.Join(dbDir, DB_NAME))

	return fmt.Sprintf(
		"%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL&_foreign_keys=1&_busy_timeout=5000",
		dbName,
		url.QueryEscape(passPhrase),
	), nil
}
