package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/mihari/internal/model"
)

func TestWebhookDeliversJSON(t *testing.T) {
	var got Notification
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, 5*time.Second)
	n := testNotification()
	require.NoError(t, ch.Notify(context.Background(), n))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, n.AlertID, got.AlertID)
	assert.Equal(t, n.MetricValue, got.MetricValue)
}

func TestWebhookNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, 5*time.Second)
	err := ch.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestWebhookUnreachableTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // deliberately dead

	ch := NewWebhookChannel(srv.URL, time.Second)
	assert.Error(t, ch.Notify(context.Background(), testNotification()))
}

func TestDashboardSubscribeAndBroadcast(t *testing.T) {
	ch := NewDashboardChannel()
	sub := ch.Subscribe()
	defer ch.Unsubscribe(sub)

	n := testNotification()
	require.NoError(t, ch.Notify(context.Background(), n))

	select {
	case payload := <-sub:
		var got Notification
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, n.AlertID, got.AlertID)
	case <-time.After(time.Second):
		t.Fatal("no payload received")
	}
}

func TestDashboardDropsWhenSubscriberFull(t *testing.T) {
	ch := NewDashboardChannel()
	sub := ch.Subscribe()
	defer ch.Unsubscribe(sub)

	// Fill the subscriber buffer and keep going; Notify must not block.
	for i := 0; i < 70; i++ {
		require.NoError(t, ch.Notify(context.Background(), testNotification()))
	}
	assert.Len(t, sub, 64)
}

func TestDashboardUnsubscribeClosesChannel(t *testing.T) {
	ch := NewDashboardChannel()
	sub := ch.Subscribe()
	ch.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)
}

func TestEmailDevModeWithoutSMTPHost(t *testing.T) {
	ch := NewEmailChannel(slog.Default(), EmailConfig{})
	assert.NoError(t, ch.Notify(context.Background(), testNotification()))
}

func TestEmailRequiresRecipients(t *testing.T) {
	ch := NewEmailChannel(slog.Default(), EmailConfig{Host: "smtp.example.com", Port: 587})
	err := ch.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}

func TestLogChannelAlwaysSucceeds(t *testing.T) {
	ch := NewLogChannel(slog.Default())
	n := testNotification()
	for _, sev := range []string{"critical", "error", "warning", "info"} {
		n.Severity = model.Severity(sev)
		assert.NoError(t, ch.Notify(context.Background(), n))
	}
}
