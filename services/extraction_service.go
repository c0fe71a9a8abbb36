package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/HomerusJa/mail-rememberer/config"
	"github.com/HomerusJa/mail-rememberer/models"
)

const insertTaskToolName = "insert_task"

const (
	llmRequestTimeout = 60 * time.Second
	llmMaxRetries     = 1
	llmRetryBackoff   = 2 * time.Second
)

// chatCompleter is the slice of the OpenAI-compatible client the extraction
// service actually uses. Narrowing it keeps the model mockable in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ExtractionService turns free-text messages into validated tasks using a
// tool-calling capable language model.
type ExtractionService interface {
	// ExtractTasks asks the model to extract all tasks found in message and
	// returns the successfully validated ones in the order the model emitted
	// them. Malformed tool calls are logged and dropped individually; they
	// never abort the batch. The returned slice may be empty.
	ExtractTasks(ctx context.Context, message string) ([]*models.Task, error)
	// GenerateSampleMessage asks the model for a short message containing
	// several tasks at different stages of completion. Development helper.
	GenerateSampleMessage(ctx context.Context) (string, error)
}

type extractionService struct {
	client       chatCompleter
	model        string
	timeout      time.Duration
	retryBackoff time.Duration
}

// NewExtractionService creates an ExtractionService backed by an
// OpenAI-compatible chat endpoint (Mistral's API by default).
func NewExtractionService(cfg *config.Config) ExtractionService {
	clientConfig := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientConfig.BaseURL = cfg.LLMBaseURL
	}
	return newExtractionService(openai.NewClientWithConfig(clientConfig), cfg.LLMModel)
}

func newExtractionService(client chatCompleter, model string) *extractionService {
	return &extractionService{
		client:       client,
		model:        model,
		timeout:      llmRequestTimeout,
		retryBackoff: llmRetryBackoff,
	}
}

// insertTaskTool declares the single tool the model is allowed to call. The
// field descriptions are part of the wire contract with the model and are
// kept deliberately explicit.
func insertTaskTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        insertTaskToolName,
			Description: "Insert a new task into the database",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"description": {
						Type:        jsonschema.String,
						Description: "A concise description of the task.",
					},
					"comment": {
						Type: jsonschema.String,
						Description: "An optional comment about how the task seems to be going, " +
							"if he is interested and everything else that did not fit in the " +
							"other fields. It will be passed to you the next time you ask for " +
							"this function.",
					},
					"status": {
						Type: jsonschema.String,
						Enum: []string{
							string(models.TaskStatusPending),
							string(models.TaskStatusRunning),
							string(models.TaskStatusCompleted),
							string(models.TaskStatusFailed),
						},
						Description: "The status of the task. Only use the ones listed. Don't use " +
							"percentages or any other measure. If you need to supply additional " +
							"information, use the comment field.",
					},
					"scheduled_for": {
						Type:        jsonschema.String,
						Description: "The date when the task is scheduled to be completed, as an ISO-8601 date (YYYY-MM-DD).",
					},
					"scheduled_for_comment": {
						Type: jsonschema.String,
						Description: "An optional comment about the scheduled date. Use this when " +
							"there is either no specific date, they talk about a range, or " +
							"something else that is important.",
					},
				},
				Required: []string{"description", "status"},
			},
		},
	}
}

func (s *extractionService) ExtractTasks(ctx context.Context, message string) ([]*models.Task, error) {
	prompt := "Extract multiple tasks from the message at the end of this prompt " +
		"and insert them into the database using the insert_task function.\n" +
		"Message: " + message

	request := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools:             []openai.Tool{insertTaskTool()},
		ToolChoice:        "required",
		ParallelToolCalls: true,
	}

	response, err := s.complete(ctx, request)
	if err != nil {
		log.Printf("ERROR: [Extraction] Chat completion failed: %v", err)
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	var tasks []*models.Task
	for _, choice := range response.Choices {
		if choice.FinishReason != openai.FinishReasonToolCalls {
			log.Printf("WARN: [Extraction] Unexpected finish reason %q, choice contributes no tasks.", choice.FinishReason)
			continue
		}
		for _, call := range choice.Message.ToolCalls {
			if call.Function.Name != insertTaskToolName {
				log.Printf("WARN: [Extraction] Unknown tool call %q, skipping.", call.Function.Name)
				continue
			}
			log.Printf("INFO: [Extraction] Extracted task arguments: %s", call.Function.Arguments)

			var args map[string]interface{}
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				log.Printf("ERROR: [Extraction] Failed to decode tool call arguments %q: %v", call.Function.Arguments, err)
				continue
			}
			task, err := models.TaskFromToolCall(args)
			if err != nil {
				log.Printf("ERROR: [Extraction] The extracted task could not be validated: %v (arguments: %s)", err, call.Function.Arguments)
				continue
			}
			tasks = append(tasks, task)
		}
	}
	log.Printf("INFO: [Extraction] Extracted %d valid tasks.", len(tasks))
	return tasks, nil
}

func (s *extractionService) GenerateSampleMessage(ctx context.Context) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a message that includes multiple tasks at different stages of completion. Today's date is %s.",
		models.Today(),
	)
	request := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 150,
	}

	response, err := s.complete(ctx, request)
	if err != nil {
		return "", fmt.Errorf("sample message generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("sample message generation returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// complete issues the request with a per-call timeout and a single retry on
// transient failures.
func (s *extractionService) complete(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= llmMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryBackoff):
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		response, err := s.client.CreateChatCompletion(callCtx, request)
		cancel()
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isTransient(err) {
			return openai.ChatCompletionResponse{}, err
		}
		log.Printf("WARN: [Extraction] Transient completion failure (attempt %d): %v", attempt+1, err)
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("completion failed after %d attempts: %w", llmMaxRetries+1, lastErr)
}

// isTransient reports whether a completion error is worth one retry. API
// errors are retried only on rate limiting or server-side failures;
// everything without an HTTP status (network-level failures) is considered
// transient.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
