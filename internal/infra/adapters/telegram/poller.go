package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
	red "telegram-storefront-bot/internal/infra/redis"
)

const (
	pollLimit     = 100
	pollBackoff   = 3 * time.Second
	senderBacklog = 64
)

var allowedUpdates = []string{"message"}

// StartPolling reads updates until ctx is cancelled. Each sender's messages
// are handled in order, different senders run in parallel up to cfg.Workers
// handlers, and the read loop itself never waits on a handler.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, h UpdateHandler) error {
	in := newInbox(ctx, r.cfg.Workers, senderBacklog, func(msg model.Message) {
		r.dispatch(ctx, h, msg)
	})
	defer in.wait()

	r.log.Info().Int("workers", r.cfg.Workers).Msg("polling started")
	offset := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		batch, err := r.fetch(offset)
		if err != nil {
			r.log.Error().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollBackoff):
			}
			continue
		}
		for _, u := range batch {
			if u.update.UpdateID >= offset {
				offset = u.update.UpdateID + 1
			}
			msg, ok := toMessage(u)
			if !ok {
				continue
			}
			if !in.push(msg) {
				r.log.Warn().Int64("tg_id", msg.SenderID).Str("kind", msg.Kind()).Msg("sender backlog full, message dropped")
			}
		}
	}
}

func (r *RealTelegramBotAdapter) fetch(offset int) ([]inbound, error) {
	resp, err := r.api.Request(tgbotapi.UpdateConfig{
		Offset:         offset,
		Limit:          pollLimit,
		Timeout:        r.cfg.PollTime,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, fmt.Errorf("telegram error %d: %s", resp.ErrorCode, resp.Description)
	}
	return decodeUpdates(json.RawMessage(resp.Result))
}

// dispatch runs one message through the handler with its own trace id.
// Handler errors end here: they are logged and the worker moves on.
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, h UpdateHandler, msg model.Message) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithTgID(ctx, msg.SenderID)
	log := logging.With(ctx, r.log)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("update handler panicked")
		}
	}()

	if !r.allow(ctx, msg) {
		return
	}
	if err := h.Handle(ctx, msg); err != nil {
		log.Error().Err(err).Str("kind", msg.Kind()).Msg("failed to handle update")
	}
}

func (r *RealTelegramBotAdapter) allow(ctx context.Context, msg model.Message) bool {
	if r.rateLimiter == nil || msg.SenderID == r.cfg.AdminID {
		return true
	}
	allowed, first, err := r.rateLimiter.Take(ctx, red.UserCommandKey(msg.SenderID, msg.LimitScope()), r.perMinute, time.Minute)
	if err != nil {
		// fail open
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if allowed {
		return true
	}
	metrics.IncRateLimitTriggered()
	if first && r.tr != nil {
		_ = r.SendMessage(ctx, adapter.SendMessageParams{ChatID: msg.ChatID, Text: r.tr.T("rate_limited")})
	}
	return false
}
