package escalation

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink notifies the on-call counselor chat about escalations.
// Only NOTIFY_COUNSELOR and TRIGGER_CRISIS_PROTOCOL events are sent;
// softer actions would flood the channel.
type TelegramSink struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	return &TelegramSink{api: api, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Deliver(_ context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	if ev.Action != ActionNotifyCounselor && ev.Action != ActionTriggerCrisisProtocol {
		return nil
	}

	var b strings.Builder
	if ev.Action == ActionTriggerCrisisProtocol {
		b.WriteString("🚨 CRISIS PROTOCOL\n")
	} else {
		b.WriteString("⚠️ Counselor attention requested\n")
	}
	fmt.Fprintf(&b, "Tier: %s (score %.1f)\n", ev.Tier, ev.Score)
	if len(ev.Categories) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(ev.Categories, ", "))
	}
	if ev.Excerpt != "" {
		fmt.Fprintf(&b, "Excerpt: %s\n", ev.Excerpt)
	}
	fmt.Fprintf(&b, "Event: %s", ev.ID)

	msg := tgbotapi.NewMessage(s.chatID, b.String())
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram notification: %w", err)
	}
	return nil
}

func (s *TelegramSink) Close(context.Context) error {
	s.api.StopReceivingUpdates()
	return nil
}
