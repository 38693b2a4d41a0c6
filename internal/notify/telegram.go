package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/notisync/notisync/internal/sync"
)

// Telegram pushes pass outcomes to a chat
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram creates a notifier for the given bot token and chat
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// SendSummary reports the outcome of one pass
func (t *Telegram) SendSummary(summary sync.Summary) error {
	var sb strings.Builder
	if summary.DryRun {
		sb.WriteString("Calendar sync (dry-run): ")
	} else {
		sb.WriteString("Calendar sync: ")
	}
	sb.WriteString(summary.String())

	for _, f := range summary.Failures {
		sb.WriteString(fmt.Sprintf("\n%s %s: %v", f.Action, f.Identity, f.Err))
	}

	return t.send(sb.String())
}

// SendError reports a pass-level failure
func (t *Telegram) SendError(err error) error {
	return t.send(fmt.Sprintf("Calendar sync failed: %v", err))
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	_, err := t.api.Send(msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
