package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/HomerusJa/mail-rememberer/models"
)

// MessageRepository defines the interface for persisting and retrieving messages.
type MessageRepository interface {
	// Insert persists a new message and returns the persisted copy carrying
	// the assigned id. The argument is not mutated. Fails with
	// ErrAlreadyPersisted if the message already has an id.
	Insert(msg *models.Message) (*models.Message, error)
	// GetByID retrieves a message by id. Returns (nil, nil) when no row matches.
	GetByID(id uint) (*models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Insert(msg *models.Message) (*models.Message, error) {
	if msg == nil {
		log.Printf("ERROR: [MessageRepository] Insert: message cannot be nil")
		return nil, errors.New("message cannot be nil")
	}
	if msg.ID != 0 {
		log.Printf("ERROR: [MessageRepository] Insert: message already has id %d.", msg.ID)
		return nil, fmt.Errorf("message %d: %w", msg.ID, ErrAlreadyPersisted)
	}

	persisted := *msg
	if err := r.db.Create(&persisted).Error; err != nil {
		log.Printf("ERROR: [MessageRepository] Failed to insert message: %v", err)
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	log.Printf("INFO: [MessageRepository] Successfully inserted message ID %d.", persisted.ID)
	return &persisted, nil
}

func (r *messageRepository) GetByID(id uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("INFO: [MessageRepository] Message with ID %d not found.", id)
			return nil, nil // Not found
		}
		log.Printf("ERROR: [MessageRepository] Failed to retrieve message ID %d: %v", id, err)
		return nil, fmt.Errorf("failed to retrieve message ID %d: %w", id, err)
	}
	return &msg, nil
}
