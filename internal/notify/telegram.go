package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/job-recommender/internal/rendering"
)

// DefaultTelegramDelay keeps bursts under Telegram's per-chat rate limit.
const DefaultTelegramDelay = 500 * time.Millisecond

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a summary followed by one message per job.
type TelegramNotifier struct {
	api     messageSender
	chatID  int64
	maxJobs int
	delay   time.Duration
}

// NewTelegramNotifier authenticates the bot token and targets chatID.
func NewTelegramNotifier(token string, chatID int64, maxJobs int) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, maxJobs, DefaultTelegramDelay), nil
}

func newTelegramNotifier(api messageSender, chatID int64, maxJobs int, delay time.Duration) *TelegramNotifier {
	if maxJobs <= 0 {
		maxJobs = 10
	}
	return &TelegramNotifier{api: api, chatID: chatID, maxJobs: maxJobs, delay: delay}
}

// Name implements Notifier.
func (t *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the summary, then the top jobs. A failed job message is
// logged and does not stop the rest.
func (t *TelegramNotifier) Notify(ctx context.Context, d Digest) error {
	summary := tgbotapi.NewMessage(t.chatID, rendering.TelegramSummary(d.Ranked, d.Preferences, d.GeneratedAt))
	summary.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := t.api.Send(summary); err != nil {
		return &Error{Channel: t.Name(), Message: "failed to send summary", Cause: err}
	}

	n := min(len(d.Ranked), t.maxJobs)
	failed := 0
	for i, p := range d.Ranked[:n] {
		if err := wait(ctx, t.delay); err != nil {
			return &Error{Channel: t.Name(), Message: "cancelled", Cause: err}
		}

		msg := tgbotapi.NewMessage(t.chatID, rendering.TelegramJob(i+1, p, d.GeneratedAt))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableWebPagePreview = true
		if p.URL != "" {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", p.URL)),
			)
		}
		if _, err := t.api.Send(msg); err != nil {
			failed++
			log.Printf("[NOTIFY] Telegram message for %q failed: %v", p.Title, err)
		}
	}

	if n > 0 && failed == n {
		return &Error{Channel: t.Name(), Message: fmt.Sprintf("all %d job messages failed", n)}
	}
	log.Printf("[NOTIFY] Sent %d/%d recommendations to Telegram", n-failed, n)
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
