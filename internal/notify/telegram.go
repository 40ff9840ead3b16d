package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/SignalEngine/internal/performance"
	"github.com/Alias1177/SignalEngine/models"
)

// Notifier pushes accepted signals and resolutions to a Telegram chat.
// Delivery is best effort: failures are logged and never block the pipeline.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a notifier. An empty token disables it: the returned nil
// Notifier is safe to call.
func New(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notifier").Logger(),
	}, nil
}

// SignalAccepted announces a newly accepted signal.
func (n *Notifier) SignalAccepted(signal models.PersistedSignal) {
	if n == nil {
		return
	}

	emoji := "🟢"
	if signal.Type == models.SignalSell {
		emoji = "🔴"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s %s*\n", emoji, signal.Pair, signal.Type)
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", signal.Confidence*100)
	fmt.Fprintf(&b, "Entry: %.6g\n", signal.Entry)
	fmt.Fprintf(&b, "Stop Loss: %.6g\n", signal.StopLoss)
	fmt.Fprintf(&b, "Take Profit: %.6g\n", signal.TakeProfit)
	fmt.Fprintf(&b, "Risk/Reward: %.2f\n", signal.RiskReward)
	if len(signal.Patterns) > 0 {
		fmt.Fprintf(&b, "Patterns: %s\n", strings.Join(signal.Patterns, ", "))
	}
	n.send(b.String())
}

// SignalResolved announces a tracked signal's outcome.
func (n *Notifier) SignalResolved(res performance.Resolution) {
	if n == nil {
		return
	}

	emoji := "✅"
	if res.Outcome == models.OutcomeLoss {
		emoji = "❌"
	}
	msg := fmt.Sprintf("%s *%s* %s %s (%.2f%%)",
		emoji, res.Pair, res.Status, res.Outcome, res.ActualReturn)
	n.send(msg)
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send telegram notification")
	}
}
