package services

import (
	"context"
	"fmt"
	"log"

	"github.com/HomerusJa/mail-rememberer/models"
	"github.com/HomerusJa/mail-rememberer/repository"
)

// PipelineService composes persistence and extraction into the end-to-end
// flow: persist the incoming message, extract tasks from it, link each task
// back to the message, persist the tasks.
type PipelineService interface {
	// ProcessMessage runs the full pipeline for one message. If the message
	// insert fails, no tasks are attempted and the error is returned. Task
	// inserts are best-effort: a failure inserting one task is logged and
	// skipped without rolling back the message or sibling tasks. An
	// extraction failure is treated as zero tasks extracted, so the message
	// is still persisted.
	ProcessMessage(ctx context.Context, text string) (*models.Message, []*models.Task, error)
}

type pipelineService struct {
	messages  repository.MessageRepository
	tasks     repository.TaskRepository
	extractor ExtractionService
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(messages repository.MessageRepository, tasks repository.TaskRepository, extractor ExtractionService) PipelineService {
	return &pipelineService{
		messages:  messages,
		tasks:     tasks,
		extractor: extractor,
	}
}

func (s *pipelineService) ProcessMessage(ctx context.Context, text string) (*models.Message, []*models.Task, error) {
	msg, err := models.NewMessage(text)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid message: %w", err)
	}

	persisted, err := s.messages.Insert(msg)
	if err != nil {
		log.Printf("ERROR: [Pipeline] Failed to insert message: %v", err)
		return nil, nil, fmt.Errorf("failed to insert message: %w", err)
	}

	extracted, err := s.extractor.ExtractTasks(ctx, persisted.Body)
	if err != nil {
		log.Printf("WARN: [Pipeline] Task extraction failed for message %d, continuing with zero tasks: %v", persisted.ID, err)
		extracted = nil
	}

	var saved []*models.Task
	for _, task := range extracted {
		// The extraction protocol never sets FromMessage; linking the task
		// to its originating message happens here.
		messageID := persisted.ID
		task.FromMessage = &messageID

		persistedTask, err := s.tasks.Insert(task)
		if err != nil {
			log.Printf("ERROR: [Pipeline] Failed to insert extracted task %q for message %d: %v", task.Description, persisted.ID, err)
			continue
		}
		saved = append(saved, persistedTask)
	}

	log.Printf("INFO: [Pipeline] Processed message %d, persisted %d of %d extracted tasks.", persisted.ID, len(saved), len(extracted))
	return persisted, saved, nil
}
