package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrSuggestionsUnavailable = errors.New("task suggestion service is not configured")
	ErrNoSuggestions          = errors.New("no task drafts could be extracted from the text")
)

// SuggestionService turns free-form text into task drafts using an LLM. The
// drafts are suggestions only; nothing is persisted until the client submits
// them through the normal create-task flow.
type SuggestionService struct {
	client *openai.Client
}

// TaskDraft is a suggested task extracted from text.
type TaskDraft struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     *time.Time          `json:"due_date"`
	Priority    models.TaskPriority `json:"priority"`
	JellyPoints int                 `json:"jelly_points"`
}

func NewSuggestionService(apiKey string) *SuggestionService {
	return &SuggestionService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestTasks extracts task drafts from text and discards drafts that could
// never pass task validation (blank titles, past due dates).
func (s *SuggestionService) SuggestTasks(ctx context.Context, text string) ([]TaskDraft, error) {
	if s == nil || s.client == nil {
		return nil, ErrSuggestionsUnavailable
	}

	now := time.Now()
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete tasks from the text below.

Current time: %s

Text:
%s

Respond with a JSON array of task drafts:
[
  {
    "title": "short task title, 3-50 characters",
    "description": "task description, 10-500 characters",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when not stated",
    "priority": "HIGH, MEDIUM or LOW",
    "jelly_points": "an integer effort score between 1 and 50"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") into concrete dates
- Return only JSON, no prose`, now.Format("2006-01-02 15:04:05"), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoSuggestions
	}

	var drafts []TaskDraft
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
	}

	valid := make([]TaskDraft, 0, len(drafts))
	for _, draft := range drafts {
		if strings.TrimSpace(draft.Title) == "" {
			continue
		}
		if draft.DueDate != nil && draft.DueDate.Before(now) {
			draft.DueDate = nil
		}
		if draft.JellyPoints < constants.MinTaskJellyPoints {
			draft.JellyPoints = constants.MinTaskJellyPoints
		}
		if draft.JellyPoints > constants.MaxTaskJellyPoints {
			draft.JellyPoints = constants.MaxTaskJellyPoints
		}
		switch draft.Priority {
		case models.TaskPriorityHigh, models.TaskPriorityMedium, models.TaskPriorityLow:
		default:
			draft.Priority = models.TaskPriorityMedium
		}

		valid = append(valid, draft)
		if len(valid) == constants.MaxSuggestedTasks {
			break
		}
	}

	if len(valid) == 0 {
		return nil, ErrNoSuggestions
	}

	return valid, nil
}
