package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"argo-assistant/internal/config"
	"argo-assistant/internal/core"
	"argo-assistant/internal/db"
	"argo-assistant/internal/extract"
	httpserver "argo-assistant/internal/http"
	"argo-assistant/internal/llm"
	"argo-assistant/internal/notify"
	"argo-assistant/internal/report"
	"argo-assistant/internal/schedule"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	for name, v := range map[string]string{
		"DATABASE_URL":           cfg.DatabaseURL,
		"OPENAI_API_KEY":         cfg.OpenAIAPIKey,
		"OPENAI_ASSISTANT_ID":    cfg.OpenAIAssistantID,
		"TWILIO_ACCOUNT_SID":     cfg.TwilioAccountSID,
		"TWILIO_AUTH_TOKEN":      cfg.TwilioAuthToken,
		"TWILIO_WHATSAPP_NUMBER": cfg.TwilioWhatsAppNumber,
	} {
		if v == "" {
			logger.Error("missing required environment variable", "name", name)
			os.Exit(1)
		}
	}

	// Open database connection
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	repo := db.NewRepository(dbConn)

	whatsapp, err := notify.New(notify.Config{
		AccountSID:     cfg.TwilioAccountSID,
		AuthToken:      cfg.TwilioAuthToken,
		WhatsAppNumber: cfg.TwilioWhatsAppNumber,
		MaxAttempts:    cfg.NotifyMaxAttempts,
		RetryDelay:     cfg.NotifyRetryDelay,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to construct whatsapp client", "error", err)
		os.Exit(1)
	}

	// Reminder jobs deliver through the same gateway; a lost reminder is
	// logged, never retried at the job level.
	engine := schedule.NewEngine(func(ctx context.Context, message, to string) {
		if _, err := whatsapp.Send(ctx, message, to); err != nil {
			logger.Error("reminder delivery failed", "to", to, "error", err)
		}
	}, logger)
	defer engine.Stop()

	conv, err := llm.NewThreadsClient(llm.ThreadsConfig{
		APIKey:       cfg.OpenAIAPIKey,
		AssistantID:  cfg.OpenAIAssistantID,
		SeedMessages: []string{core.SystemInstructions, core.Greeting},
		PollInterval: cfg.RunPollInterval,
		PollTimeout:  cfg.RunPollTimeout,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("failed to construct conversation client", "error", err)
		os.Exit(1)
	}

	booking := core.NewBookingService(repo, whatsapp, engine, logger)
	chat := core.NewChatService(conv, booking, report.NewGenerator(), logger)
	srv := httpserver.NewServer(chat, extract.PlainText{}, logger)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
