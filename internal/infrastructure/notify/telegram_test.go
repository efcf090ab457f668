package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/entities"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChannelRepository struct {
	channel *entities.Channel
}

func (m *mockChannelRepository) GetPayoutChannel(_ context.Context) (*entities.Channel, error) {
	if m.channel == nil {
		return nil, errs.ErrNotFound
	}
	return m.channel, nil
}

type sentMessage struct {
	path string
	body map[string]any
}

func newTestNotifier(t *testing.T, channel *entities.Channel, token string) (*TelegramNotifier, chan sentMessage) {
	t.Helper()

	received := make(chan sentMessage, 8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- sentMessage{path: r.URL.Path, body: body}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Telegram.BotToken = token
	cfg.Telegram.APIBase = srv.URL
	cfg.Telegram.Timeout = time.Second
	cfg.Telegram.SendInterval = time.Millisecond
	cfg.Telegram.Burst = 10

	notifier, err := NewTelegramNotifier(&mockChannelRepository{channel: channel}, cfg, logger.NewNop())
	require.NoError(t, err)

	return notifier, received
}

func waitForMessage(t *testing.T, received chan sentMessage) sentMessage {
	t.Helper()

	select {
	case msg := <-received:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return sentMessage{}
	}
}

func TestTelegramNotifier_NotifyUser(t *testing.T) {
	notifier, received := newTestNotifier(t, nil, "test-token")

	notifier.NotifyUser(context.Background(), 42, "Your withdrawal request was approved.")

	msg := waitForMessage(t, received)
	assert.Equal(t, "/bottest-token/sendMessage", msg.path)
	assert.Equal(t, float64(42), msg.body["chat_id"])
	assert.Equal(t, "Your withdrawal request was approved.", msg.body["text"])
}

func TestTelegramNotifier_NotifyPayoutChannel(t *testing.T) {
	channel := &entities.Channel{
		ID:       1,
		ChatID:   -1001234567890,
		Type:     entities.ChannelPayouts,
		IsActive: true,
	}
	notifier, received := newTestNotifier(t, channel, "test-token")

	notifier.NotifyPayoutChannel(context.Background(), "New withdrawal request #7")

	msg := waitForMessage(t, received)
	assert.Equal(t, float64(-1001234567890), msg.body["chat_id"])
	assert.Equal(t, "New withdrawal request #7", msg.body["text"])
}

func TestTelegramNotifier_NoPayoutChannelConfigured(t *testing.T) {
	notifier, received := newTestNotifier(t, nil, "test-token")

	notifier.NotifyPayoutChannel(context.Background(), "New withdrawal request #7")

	select {
	case msg := <-received:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTelegramNotifier_SendThrottlesOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.APIBase = srv.URL
	cfg.Telegram.Timeout = time.Second
	cfg.Telegram.SendInterval = time.Millisecond
	cfg.Telegram.Burst = 10

	notifier, err := NewTelegramNotifier(&mockChannelRepository{}, cfg, logger.NewNop())
	require.NoError(t, err)

	err = notifier.send(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	// The limiter is down to one send per 30 seconds now. The single
	// remaining token drains on the first wait, then sends block past
	// any short deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, notifier.limiter.Wait(ctx))
	assert.Error(t, notifier.limiter.Wait(ctx))
}

func TestTelegramNotifier_EmptyTokenDisablesDelivery(t *testing.T) {
	notifier, received := newTestNotifier(t, nil, "")

	notifier.NotifyUser(context.Background(), 42, "hello")

	select {
	case msg := <-received:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
