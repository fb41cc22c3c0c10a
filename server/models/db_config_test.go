package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpenLogsThroughGivenLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dbRootDir := t.TempDir()

	db, err := Open(TEST_PASS_PHRASE, dbRootDir, zap.New(core).Sugar())
	require.Nil(t, err)

	messages := []string{}
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "Creating new database in "+DbFilePath(dbRootDir))
	assert.Contains(t, messages, "Inserting seed data into 'JobStatus'")

	sqlDB, err := db.DB()
	require.Nil(t, err)
	require.Nil(t, sqlDB.Close())

	logs.TakeAll()
	db, err = Open(TEST_PASS_PHRASE, dbRootDir, zap.New(core).Sugar())
	require.Nil(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	assert.Zero(t, logs.Len(), "Reopening an existing db should not log creation or seeding")
}
