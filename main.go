package main

import (
	"context"
	"log"
	"strings"

	"github.com/HomerusJa/mail-rememberer/config"
	"github.com/HomerusJa/mail-rememberer/database"
	"github.com/HomerusJa/mail-rememberer/mail"
	"github.com/HomerusJa/mail-rememberer/models"
	"github.com/HomerusJa/mail-rememberer/repository"
	"github.com/HomerusJa/mail-rememberer/services"
)

func main() {
	// Load application configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to load configuration: %v", err)
	}

	if cfg.IsDev() {
		log.Println("INFO: [Main] Running in development mode.")
	} else {
		log.Println("INFO: [Main] Running in production mode.")
	}

	// Initialize database connection
	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	// Development mode drops both tables before migrating, exactly once,
	// never implicitly in production.
	if cfg.IsDev() {
		if err := database.Reset(db); err != nil {
			log.Fatalf("FATAL: [Main] Failed to reset database: %v", err)
		}
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("FATAL: [Main] Failed to migrate database: %v", err)
	}

	// Initialize repositories and services
	messageRepo := repository.NewMessageRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	extractor := services.NewExtractionService(cfg)
	pipeline := services.NewPipelineService(messageRepo, taskRepo, extractor)
	log.Println("INFO: [Main] Repositories and services initialized.")

	ctx := context.Background()

	// Ask the model for a sample message containing several tasks and run
	// the full pipeline on it.
	text, err := extractor.GenerateSampleMessage(ctx)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to generate sample message: %v", err)
	}

	msg, tasks, err := pipeline.ProcessMessage(ctx, text)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to process message: %v", err)
	}
	log.Printf("INFO: [Main] Stored message %d with %d extracted tasks.", msg.ID, len(tasks))

	// Mail the digest when delivery is configured.
	if cfg.ReceiverMail == "" || cfg.PostmarkServerToken == "" {
		log.Println("INFO: [Main] Mail delivery not configured, skipping digest.")
		return
	}
	from := cfg.SenderMail
	if from == "" {
		from = cfg.ReceiverMail
	}
	sender := mail.NewPostmarkSender(cfg.PostmarkServerToken, from)
	if err := sender.Send(ctx, cfg.ReceiverMail, "Your extracted tasks", digestBody(msg, tasks)); err != nil {
		log.Printf("ERROR: [Main] Failed to send digest mail: %v", err)
		return
	}
	log.Printf("INFO: [Main] Sent digest mail to %s.", cfg.ReceiverMail)
}

// digestBody renders the processed message and its tasks as a plain-text
// mail body.
func digestBody(msg *models.Message, tasks []*models.Task) string {
	var b strings.Builder
	b.WriteString(msg.String())
	b.WriteString("\n")
	for _, task := range tasks {
		b.WriteString("\n")
		b.WriteString(task.String())
		b.WriteString("\n")
	}
	return b.String()
}
