package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Turn is one message of a conversation.  Role is "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// Conversation is the hosted thread service consumed by the chat flow.
// Run executes the assistant over the thread and returns the full
// transcript newest-first; the dispatcher relies on that order to pick the
// most recent command instead of replaying one from history.
type Conversation interface {
	Start(ctx context.Context) (string, error)
	Append(ctx context.Context, threadID, text string) error
	Run(ctx context.Context, threadID string) ([]Turn, error)
}

// ThreadsClient implements Conversation on the OpenAI Assistants threads
// API.  The assistant itself (model, tools) is configured server-side and
// referenced by id.
type ThreadsClient struct {
	client       *openai.Client
	assistantID  string
	seedMessages []string
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger
}

// ThreadsConfig configures a ThreadsClient.
type ThreadsConfig struct {
	APIKey       string
	AssistantID  string
	BaseURL      string   // override for tests; empty means the public API
	SeedMessages []string // injected as the first user messages of every thread
	PollInterval time.Duration
	PollTimeout  time.Duration
	Logger       *slog.Logger
}

// NewThreadsClient constructs an OpenAI-backed conversation client.
func NewThreadsClient(cfg ThreadsConfig) (*ThreadsClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: API key is required")
	}
	if strings.TrimSpace(cfg.AssistantID) == "" {
		return nil, errors.New("llm: assistant id is required")
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 90 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &ThreadsClient{
		client:       openai.NewClientWithConfig(clientConfig),
		assistantID:  cfg.AssistantID,
		seedMessages: cfg.SeedMessages,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		logger:       logger,
	}, nil
}

// Start creates a new thread seeded with the configured opening messages and
// returns its id.
func (c *ThreadsClient) Start(ctx context.Context) (string, error) {
	seed := make([]openai.ThreadMessage, 0, len(c.seedMessages))
	for _, m := range c.seedMessages {
		seed = append(seed, openai.ThreadMessage{
			Role:    openai.ThreadMessageRoleUser,
			Content: m,
		})
	}
	thread, err := c.client.CreateThread(ctx, openai.ThreadRequest{Messages: seed})
	if err != nil {
		return "", fmt.Errorf("llm: create thread: %w", err)
	}
	c.logger.Info("thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// Append adds a user message to the thread.
func (c *ThreadsClient) Append(ctx context.Context, threadID, text string) error {
	_, err := c.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("llm: append message: %w", err)
	}
	return nil
}

// Run executes the assistant over the thread, waits for the run to settle
// and returns the transcript newest-first.
func (c *ThreadsClient) Run(ctx context.Context, threadID string) ([]Turn, error) {
	run, err := c.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: c.assistantID})
	if err != nil {
		return nil, fmt.Errorf("llm: create run: %w", err)
	}
	if err := c.waitForRun(ctx, threadID, run.ID); err != nil {
		return nil, err
	}
	list, err := c.client.ListMessage(ctx, threadID, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("llm: list messages: %w", err)
	}
	// The API lists messages newest-first already; keep that order.
	turns := make([]Turn, 0, len(list.Messages))
	for _, m := range list.Messages {
		turns = append(turns, Turn{Role: m.Role, Content: joinContent(m)})
	}
	return turns, nil
}

// waitForRun polls until the run reaches a terminal status or the poll
// timeout elapses.  requires_action is terminal here: no tool endpoint is
// served, the function-call JSON arrives as ordinary message content.
func (c *ThreadsClient) waitForRun(ctx context.Context, threadID, runID string) error {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		run, err := c.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("llm: retrieve run: %w", err)
		}
		switch run.Status {
		case openai.RunStatusQueued, openai.RunStatusInProgress:
			// keep polling
		case openai.RunStatusCompleted:
			return nil
		case openai.RunStatusRequiresAction:
			c.logger.Warn("run requires action, no tool server is attached", "run_id", runID)
			return nil
		default:
			return fmt.Errorf("llm: run %s ended with status %s", runID, run.Status)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("llm: run %s still %s after %s", runID, run.Status, c.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// joinContent concatenates the text parts of a message.  Non-text parts
// (images) are skipped.
func joinContent(m openai.Message) string {
	var parts []string
	for _, c := range m.Content {
		if c.Text != nil && c.Text.Value != "" {
			parts = append(parts, c.Text.Value)
		}
	}
	return strings.Join(parts, "\n")
}
