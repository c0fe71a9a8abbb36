package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/HomerusJa/mail-rememberer/models"
)

// newTestDB opens a private in-memory SQLite database with foreign keys
// enforced, named after the test so parallel tests don't share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Message{}, &models.Task{}))
	return db
}

func mustNewMessage(t *testing.T, text string) *models.Message {
	t.Helper()
	msg, err := models.NewMessage(text)
	require.NoError(t, err)
	return msg
}

func TestMessageRepository_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	msg := mustNewMessage(t, "Fix the car's brakes")
	persisted, err := repo.Insert(msg)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.NotZero(t, persisted.ID)
	assert.Equal(t, uint(0), msg.ID, "insert must not mutate the caller's entity")

	fetched, err := repo.GetByID(persisted.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, persisted, fetched, "a persisted message must round-trip unchanged")
}

func TestMessageRepository_InsertAlreadyPersisted(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	persisted, err := repo.Insert(mustNewMessage(t, "first"))
	require.NoError(t, err)

	_, err = repo.Insert(persisted)
	require.ErrorIs(t, err, ErrAlreadyPersisted)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "a failed precondition must leave the store unchanged")
}

func TestMessageRepository_GetMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	fetched, err := repo.GetByID(999)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestTaskRepository_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	messages := NewMessageRepository(db)
	tasks := NewTaskRepository(db)

	msg, err := messages.Insert(mustNewMessage(t, "Fix the car's brakes"))
	require.NoError(t, err)

	scheduledFor := models.NewDate(2026, 9, 1)
	comment := "before the road trip"
	task := &models.Task{
		AddedAt:             models.Today(),
		LastModifiedAt:      models.Today(),
		ScheduledFor:        &scheduledFor,
		ScheduledForComment: &comment,
		Description:         "Fix the car's brakes",
		Status:              models.TaskStatusRunning,
		Comment:             "parts ordered",
		FromMessage:         &msg.ID,
	}

	persisted, err := tasks.Insert(task)
	require.NoError(t, err)
	assert.NotZero(t, persisted.ID)
	assert.Equal(t, uint(0), task.ID, "insert must not mutate the caller's entity")

	fetched, err := tasks.GetByID(persisted.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, persisted, fetched, "a persisted task must round-trip unchanged")
}

func TestTaskRepository_FromDescriptionScenario(t *testing.T) {
	db := newTestDB(t)
	messages := NewMessageRepository(db)
	tasks := NewTaskRepository(db)

	msg, err := messages.Insert(mustNewMessage(t, "Fix the car's brakes"))
	require.NoError(t, err)

	task, err := models.NewTask("Fix the car's brakes", &msg.ID)
	require.NoError(t, err)

	persisted, err := tasks.Insert(task)
	require.NoError(t, err)

	fetched, err := tasks.GetByID(persisted.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, models.TaskStatusPending, fetched.Status)
	assert.Equal(t, "", fetched.Comment)
	assert.Nil(t, fetched.ScheduledFor)
	require.NotNil(t, fetched.FromMessage)
	assert.Equal(t, msg.ID, *fetched.FromMessage)
}

func TestTaskRepository_InsertWithoutMessage(t *testing.T) {
	db := newTestDB(t)
	tasks := NewTaskRepository(db)

	task, err := models.NewTask("Standalone chore", nil)
	require.NoError(t, err)

	persisted, err := tasks.Insert(task)
	require.NoError(t, err)

	fetched, err := tasks.GetByID(persisted.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Nil(t, fetched.FromMessage)
}

func TestTaskRepository_DanglingReference(t *testing.T) {
	db := newTestDB(t)
	tasks := NewTaskRepository(db)

	missing := uint(999)
	task, err := models.NewTask("Orphaned task", &missing)
	require.NoError(t, err)

	persisted, err := tasks.Insert(task)
	assert.Nil(t, persisted)
	require.ErrorIs(t, err, gorm.ErrForeignKeyViolated)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "the row must not be created")
}

func TestTaskRepository_InsertAlreadyPersisted(t *testing.T) {
	db := newTestDB(t)
	tasks := NewTaskRepository(db)

	task, err := models.NewTask("Buy groceries", nil)
	require.NoError(t, err)
	persisted, err := tasks.Insert(task)
	require.NoError(t, err)

	_, err = tasks.Insert(persisted)
	require.ErrorIs(t, err, ErrAlreadyPersisted)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTaskRepository_GetMissing(t *testing.T) {
	db := newTestDB(t)
	tasks := NewTaskRepository(db)

	fetched, err := tasks.GetByID(123)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}
