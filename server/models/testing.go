package models

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TEST_PASS_PHRASE = "test-pass-phrase"

// InitializeTestDb opens a fresh, migrated db in a temp directory owned by 't'
func InitializeTestDb(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(TEST_PASS_PHRASE, t.TempDir(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unable to initialize test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// FindJobsByName returns every job called 'name', oldest first. Tests use it to
// follow a job through the queue.
func (store *JobStore) FindJobsByName(name string) ([]Job, error) {
	jobs := []Job{}
	err := store.db.Preload("JobStatus").Where("name = ?", name).Order("id asc").Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	return jobs, nil
}
