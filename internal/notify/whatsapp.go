// Package notify sends outbound WhatsApp messages through the Twilio REST
// API.  Sends are synchronous with a fixed bounded retry; callers are
// expected to log a final failure and carry on, a lost notification must
// never abort a booking.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// Config controls how the WhatsApp client behaves.
type Config struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string // sender, E.164 without the whatsapp: prefix
	BaseURL        string
	MaxAttempts    int
	RetryDelay     time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client wraps the Twilio Messages endpoint for WhatsApp delivery.
type Client struct {
	accountSID  string
	authToken   string
	from        string
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" || strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("notify: account SID and auth token are required")
	}
	if strings.TrimSpace(cfg.WhatsAppNumber) == "" {
		return nil, errors.New("notify: sender WhatsApp number is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accountSID:  cfg.AccountSID,
		authToken:   cfg.AuthToken,
		from:        cfg.WhatsAppNumber,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Send delivers message to the given WhatsApp destination and returns the
// gateway message SID.  It retries up to MaxAttempts times with a fixed
// delay between attempts and returns the last error once they are exhausted.
func (c *Client) Send(ctx context.Context, message, to string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		sid, err := c.post(ctx, message, to)
		if err == nil {
			c.logger.Info("whatsapp message sent", "to", to, "sid", sid)
			return sid, nil
		}
		lastErr = err
		c.logger.Warn("whatsapp send failed",
			"to", to,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)
		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("notify: send to %s failed after %d attempts: %w", to, c.maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, message, to string) (string, error) {
	form := url.Values{}
	form.Set("From", whatsAppAddress(c.from))
	form.Set("To", whatsAppAddress(to))
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("notify: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify: http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("notify: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("notify: gateway status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	var body struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("notify: decode response: %w", err)
	}
	return body.SID, nil
}

func (c *Client) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
