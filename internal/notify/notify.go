package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// Notifier delivers operator alerts. Alerts cover conditions that need a
// human decision, like a deposit with no tier to map to.
type Notifier interface {
	Alert(ctx context.Context, subject, body string) error
}

var _ Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends alerts to the operator chat.
type TelegramNotifier struct {
	bot         *bot.Bot
	adminChatId int64
}

func NewTelegramNotifier(token string, adminChatId int64) (*TelegramNotifier, error) {
	tgBot, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:         tgBot,
		adminChatId: adminChatId,
	}, nil
}

func (n *TelegramNotifier) Alert(ctx context.Context, subject, body string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.adminChatId,
		Text:   fmt.Sprintf("⚠️ %s\n\n%s", subject, body),
	})
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier is the fallback when no bot token is configured: alerts land
// in the log where the operator can still grep for them.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Alert(ctx context.Context, subject, body string) error {
	zap.L().Warn("Operator alert",
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
