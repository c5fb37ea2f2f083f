package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"argo-assistant/internal/llm"
	"argo-assistant/pkg"

	"github.com/google/uuid"
)

// ReportRenderer produces the pre/post report PDF for a parsed command.
type ReportRenderer interface {
	Render(patientName string, patientAge int, metrics []pkg.MetricResult) ([]byte, error)
}

// ChatService orchestrates one user turn: it relays the message to the
// hosted thread, inspects the assistant's replies for an embedded command
// and dispatches it.
type ChatService struct {
	Conv    llm.Conversation
	Booking *BookingService
	Reports ReportRenderer
	Log     *slog.Logger

	Now func() time.Time
}

// NewChatService wires a ChatService with the real clock.
func NewChatService(conv llm.Conversation, booking *BookingService, reports ReportRenderer, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{
		Conv:    conv,
		Booking: booking,
		Reports: reports,
		Log:     log,
		Now:     time.Now,
	}
}

// ChatResult is the outcome of one user turn.
type ChatResult struct {
	ThreadID string
	Answer   string
	PDF      []byte
}

// HandleMessage runs one request/response cycle.  threadID may be empty, in
// which case a new thread is started and its id returned for subsequent
// turns.  The returned error covers conversation-service failures only;
// command side effects degrade to user-facing answers.
func (s *ChatService) HandleMessage(ctx context.Context, threadID, userMsg string) (*ChatResult, error) {
	reqID := uuid.NewString()
	log := s.Log.With("request_id", reqID, "thread_id", threadID)

	fresh := false
	if threadID == "" {
		id, err := s.Conv.Start(ctx)
		if err != nil {
			return nil, err
		}
		threadID = id
		fresh = true
		log = s.Log.With("request_id", reqID, "thread_id", threadID)
	}

	msg := strings.TrimSpace(userMsg)
	if msg == "" && fresh {
		msg = DefaultOpening
	}
	if msg == "" {
		return &ChatResult{ThreadID: threadID, Answer: Greeting}, nil
	}
	if err := s.Conv.Append(ctx, threadID, msg); err != nil {
		return nil, err
	}

	turns, err := s.Conv.Run(ctx, threadID)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{ThreadID: threadID, Answer: newestAssistantText(turns)}

	// Scan assistant turns newest-first so a command from an earlier, already
	// handled turn is never replayed.
	now := s.Now()
	for _, turn := range turns {
		if turn.Role != "assistant" {
			continue
		}
		cmd, ok := ParseCommand(turn.Content, now)
		if !ok {
			continue
		}
		s.dispatch(ctx, log, cmd, result)
		break
	}
	return result, nil
}

// AttachDocument appends extracted document text to the thread as context
// for subsequent turns.  threadID may be empty; the (possibly new) id is
// returned.
func (s *ChatService) AttachDocument(ctx context.Context, threadID, filename, text string) (string, error) {
	if threadID == "" {
		id, err := s.Conv.Start(ctx)
		if err != nil {
			return "", err
		}
		threadID = id
	}
	body := fmt.Sprintf("Contenido del documento %q:\n\n%s", filename, text)
	if err := s.Conv.Append(ctx, threadID, body); err != nil {
		return "", err
	}
	return threadID, nil
}

func (s *ChatService) dispatch(ctx context.Context, log *slog.Logger, cmd Command, result *ChatResult) {
	switch c := cmd.(type) {
	case GenerateReport:
		pdf, err := s.Reports.Render(c.PatientName, c.PatientAge, c.Metrics)
		if err != nil {
			log.Error("report rendering failed", "patient", c.PatientName, "error", err)
			result.Answer = GenericErrorReply
			return
		}
		log.Info("report generated", "patient", c.PatientName, "metrics", len(c.Metrics))
		result.PDF = pdf
		result.Answer = fmt.Sprintf(reportReadyText, c.PatientName, c.PatientAge)

	case ScheduleAppointment:
		answer, err := s.Booking.Book(ctx, c)
		switch {
		case errors.Is(err, ErrNeedsContact):
			result.Answer = NeedContactPrompt
		case errors.Is(err, ErrBadDateTime):
			result.Answer = BadDateTimePrompt
		case err != nil:
			log.Error("booking failed", "patient", c.PatientName, "error", err)
			result.Answer = GenericErrorReply
		default:
			result.Answer = answer
		}
	}
}

func newestAssistantText(turns []llm.Turn) string {
	for _, t := range turns {
		if t.Role == "assistant" && t.Content != "" {
			return t.Content
		}
	}
	return ""
}
