package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/HomerusJa/mail-rememberer/models"
)

// TaskRepository defines the interface for persisting and retrieving tasks.
type TaskRepository interface {
	// Insert persists a new task and returns the persisted copy carrying the
	// assigned id. The argument is not mutated. Fails with
	// ErrAlreadyPersisted if the task already has an id, and with
	// gorm.ErrForeignKeyViolated if FromMessage references a message that
	// does not exist.
	Insert(task *models.Task) (*models.Task, error)
	// GetByID retrieves a task by id. Returns (nil, nil) when no row matches.
	GetByID(id uint) (*models.Task, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Insert(task *models.Task) (*models.Task, error) {
	if task == nil {
		log.Printf("ERROR: [TaskRepository] Insert: task cannot be nil")
		return nil, errors.New("task cannot be nil")
	}
	if task.ID != 0 {
		log.Printf("ERROR: [TaskRepository] Insert: task already has id %d.", task.ID)
		return nil, fmt.Errorf("task %d: %w", task.ID, ErrAlreadyPersisted)
	}

	persisted := *task
	if err := r.db.Create(&persisted).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) && task.FromMessage != nil {
			log.Printf("ERROR: [TaskRepository] Task references missing message %d: %v", *task.FromMessage, err)
			return nil, fmt.Errorf("task references missing message %d: %w", *task.FromMessage, err)
		}
		log.Printf("ERROR: [TaskRepository] Failed to insert task %q: %v", task.Description, err)
		return nil, fmt.Errorf("failed to insert task %q: %w", task.Description, err)
	}
	log.Printf("INFO: [TaskRepository] Successfully inserted task ID %d (%q).", persisted.ID, persisted.Description)
	return &persisted, nil
}

func (r *taskRepository) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	err := r.db.First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [TaskRepository] Task with ID %d not found.", id)
			return nil, nil // Not found
		}
		log.Printf("ERROR: [TaskRepository] Failed to retrieve task ID %d: %v", id, err)
		return nil, fmt.Errorf("failed to retrieve task ID %d: %w", id, err)
	}
	return &task, nil
}
