// File: internal/infra/telegram/notifier.go
package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"voicebridge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AdminNotifier = (*AdminNotifier)(nil)

// AdminNotifier sends operational alerts to the configured admins over
// Telegram. Delivery is best-effort; one failing admin does not block
// the others.
type AdminNotifier struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64
	log      *zerolog.Logger
}

func NewAdminNotifier(token string, adminIDs []string, logger *zerolog.Logger) (*AdminNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(adminIDs))
	for _, s := range adminIDs {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			logger.Warn().Str("admin_id", s).Msg("non-numeric admin id skipped for notifications")
			continue
		}
		ids = append(ids, id)
	}
	return &AdminNotifier{bot: bot, adminIDs: ids, log: logger}, nil
}

func (n *AdminNotifier) NotifyAdmins(ctx context.Context, text string) error {
	var lastErr error
	for _, id := range n.adminIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := tgbotapi.NewMessage(id, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Error().Err(err).Int64("admin_id", id).Msg("admin notification send failed")
			lastErr = err
		}
	}
	return lastErr
}
