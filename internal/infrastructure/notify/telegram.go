// Package notify delivers outbound Telegram messages on a best-effort
// basis. Delivery failures are logged and counted, never surfaced to
// the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ovozbot/finance-service/internal/application/interfaces"
	"github.com/ovozbot/finance-service/internal/config"
	"github.com/ovozbot/finance-service/internal/domain/repositories"
	"github.com/ovozbot/finance-service/internal/metrics"
	"github.com/ovozbot/finance-service/internal/models/errs"
	"github.com/ovozbot/finance-service/pkg/limiter"
	"github.com/ovozbot/finance-service/pkg/logger"
)

// TelegramNotifier sends messages through the Bot API sendMessage
// method. Sends run in their own goroutine with a detached context so
// a request rollback or timeout never cancels an already decided
// notification.
type TelegramNotifier struct {
	channelRepo  repositories.ChannelRepository
	client       *http.Client
	limiter      *limiter.DynamicRateLimiter
	logger       logger.Logger
	apiBase      string
	token        string
	timeout      time.Duration
	sendInterval time.Duration
	burst        int
}

func NewTelegramNotifier(
	channelRepo repositories.ChannelRepository,
	cfg *config.Config,
	logger logger.Logger,
) (*TelegramNotifier, error) {
	if channelRepo == nil {
		return nil, errors.New("nil dependency: channel repository")
	}
	if cfg == nil {
		return nil, errors.New("nil dependency: config")
	}

	return &TelegramNotifier{
		channelRepo:  channelRepo,
		client:       &http.Client{Timeout: cfg.Telegram.Timeout},
		limiter:      limiter.NewDynamicRateLimiter(cfg.Telegram.SendInterval, cfg.Telegram.Burst),
		logger:       logger,
		apiBase:      cfg.Telegram.APIBase,
		token:        cfg.Telegram.BotToken,
		timeout:      cfg.Telegram.Timeout,
		sendInterval: cfg.Telegram.SendInterval,
		burst:        cfg.Telegram.Burst,
	}, nil
}

var _ interfaces.Notifier = (*TelegramNotifier)(nil)

// NotifyUser sends a direct message to the user's private chat. User
// IDs double as chat IDs for private conversations.
func (n *TelegramNotifier) NotifyUser(ctx context.Context, userID int64, text string) {
	n.dispatch(userID, text)
}

// NotifyPayoutChannel posts to the active payouts channel, if one is
// configured.
func (n *TelegramNotifier) NotifyPayoutChannel(ctx context.Context, text string) {
	channel, err := n.channelRepo.GetPayoutChannel(ctx)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			n.logger.Errorf("resolve payout channel: %s", err)
		}
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return
	}

	n.dispatch(channel.ChatID, text)
}

func (n *TelegramNotifier) dispatch(chatID int64, text string) {
	if n.token == "" {
		metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*n.timeout)
		defer cancel()

		if err := n.limiter.Wait(ctx); err != nil {
			n.logger.Errorf("telegram rate limiter: %s", err)
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			return
		}

		if err := n.send(ctx, chatID, text); err != nil {
			n.logger.Errorf("telegram send to chat %d: %s", chatID, err)
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			return
		}

		metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	}()
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		n.slowDown(retryAfterDelay(resp.Header))
		return fmt.Errorf("rate limited, retry after %s", resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// slowDown throttles outbound sends to one per delay and schedules a
// restore of the configured pace once the penalty window passes.
func (n *TelegramNotifier) slowDown(delay time.Duration) {
	n.limiter.Update(delay, 1)
	time.AfterFunc(delay, func() {
		n.limiter.Update(n.sendInterval, n.burst)
	})
}

// retryAfterDelay reads the Retry-After header, which the Bot API sets
// in whole seconds. Falls back to one second when absent or malformed.
func retryAfterDelay(h http.Header) time.Duration {
	seconds, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return time.Second
	}
	return time.Duration(seconds) * time.Second
}
