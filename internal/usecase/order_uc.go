package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
)

var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	// Relay confirms a storefront order to its sender and forwards it to the
	// admin. A payload that is not JSON yields domain.ErrMalformedPayload
	// after the sender has been told.
	Relay(ctx context.Context, chatID, senderID int64, payload string) error
}

type orderUC struct {
	bot     adapter.TelegramBotAdapter
	tr      *i18n.Translator
	adminID int64
	log     *zerolog.Logger
}

func NewOrderUseCase(bot adapter.TelegramBotAdapter, tr *i18n.Translator, adminID int64, logger *zerolog.Logger) *orderUC {
	l := logger.With().Str("component", "order").Logger()
	return &orderUC{bot: bot, tr: tr, adminID: adminID, log: &l}
}

func (uc *orderUC) Relay(ctx context.Context, chatID, senderID int64, payload string) error {
	defer logging.TraceDuration(uc.log, "OrderUC.Relay")()
	log := logging.With(ctx, uc.log)

	if strings.TrimSpace(payload) == "" || !json.Valid([]byte(payload)) {
		metrics.IncOrder("malformed")
		log.Warn().Int("payload_len", len(payload)).Msg("malformed web app payload")
		if err := uc.send(ctx, chatID, uc.tr.T("order.failed")); err != nil {
			return err
		}
		return domain.ErrMalformedPayload
	}

	if err := uc.send(ctx, chatID, uc.tr.T("order.accepted", payload)); err != nil {
		metrics.IncOrder("error")
		return err
	}
	if err := uc.send(ctx, uc.adminID, uc.tr.T("order.admin_notice", senderID, payload)); err != nil {
		log.Error().Err(err).Msg("failed to forward order to admin")
	}
	metrics.IncOrder("accepted")
	return nil
}

func (uc *orderUC) send(ctx context.Context, chatID int64, text string) error {
	if err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
