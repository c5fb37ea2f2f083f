package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port              string
	DatabaseURL       string
	OpenAIAPIKey      string
	OpenAIAssistantID string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string

	NotifyMaxAttempts int
	NotifyRetryDelay  time.Duration

	RunPollInterval time.Duration
	RunPollTimeout  time.Duration
}

// Load reads configuration from environment variables, applying defaults for
// everything that is optional.  Required values are validated in main so the
// process can report all of them at once.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIAssistantID: os.Getenv("OPENAI_ASSISTANT_ID"),

		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),

		NotifyMaxAttempts: getInt("NOTIFY_MAX_ATTEMPTS", 3),
		NotifyRetryDelay:  getDuration("NOTIFY_RETRY_DELAY", 2*time.Second),

		RunPollInterval: getDuration("RUN_POLL_INTERVAL", 500*time.Millisecond),
		RunPollTimeout:  getDuration("RUN_POLL_TIMEOUT", 90*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
