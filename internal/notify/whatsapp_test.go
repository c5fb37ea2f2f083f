package notify

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server, maxAttempts int) *Client {
	t.Helper()
	client, err := New(Config{
		AccountSID:     "AC123",
		AuthToken:      "secret",
		WhatsAppNumber: "+14155238886",
		BaseURL:        server.URL,
		MaxAttempts:    maxAttempts,
		RetryDelay:     5 * time.Millisecond,
		HTTPClient:     server.Client(),
		Logger:         slog.Default(),
	})
	require.NoError(t, err)
	return client
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Messages.json", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "whatsapp:+5491100000000", r.PostForm.Get("To"))
		assert.Equal(t, "hola Mia", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	sid, err := client.Send(context.Background(), "hola Mia", "+5491100000000")
	require.NoError(t, err)
	assert.Equal(t, "SM123", sid)
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream error", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"sid":"SM456"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	sid, err := client.Send(context.Background(), "hola", "+549")
	require.NoError(t, err)
	assert.Equal(t, "SM456", sid)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	_, err := client.Send(context.Background(), "hola", "+549")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendKeepsExistingWhatsAppPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+549", r.PostForm.Get("To"))
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	_, err := client.Send(context.Background(), "hola", "whatsapp:+549")
	require.NoError(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{AuthToken: "x", WhatsAppNumber: "+1"})
	assert.Error(t, err)
	_, err = New(Config{AccountSID: "AC", AuthToken: "x"})
	assert.Error(t, err)
}
