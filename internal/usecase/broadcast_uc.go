package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
)

var _ BroadcastUseCase = (*broadcastUC)(nil)

type BroadcastKind string

const (
	BroadcastText  BroadcastKind = "text"
	BroadcastPhoto BroadcastKind = "photo"
	BroadcastVideo BroadcastKind = "video"
)

// BroadcastRequest carries already stripped text; FileID is set for media.
type BroadcastRequest struct {
	Kind   BroadcastKind
	Text   string
	FileID string
}

type BroadcastReport struct {
	Attempted int
	Succeeded int
	Failed    int
}

type BroadcastUseCase interface {
	// Broadcast delivers req once to every registered user and replies to
	// adminChatID with a summary. Delivery failures are counted, not returned.
	Broadcast(ctx context.Context, adminChatID int64, req BroadcastRequest) (BroadcastReport, error)
}

type broadcastUC struct {
	users    repository.UserRepository
	bot      adapter.TelegramBotAdapter
	tr       *i18n.Translator
	locker   repository.JobLocker
	interval time.Duration
	log      *zerolog.Logger
}

// NewBroadcastUseCase builds the job. locker may be nil. ratePerSecond of 0
// sends back to back.
func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	locker repository.JobLocker,
	ratePerSecond int,
	logger *zerolog.Logger,
) *broadcastUC {
	var interval time.Duration
	if ratePerSecond > 0 {
		interval = time.Second / time.Duration(ratePerSecond)
	}
	l := logger.With().Str("component", "broadcast").Logger()
	return &broadcastUC{
		users:    users,
		bot:      bot,
		tr:       tr,
		locker:   locker,
		interval: interval,
		log:      &l,
	}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, adminChatID int64, req BroadcastRequest) (BroadcastReport, error) {
	defer logging.TraceDuration(uc.log, "BroadcastUC.Broadcast")()

	req.Text = strings.TrimSpace(req.Text)
	if req.Kind == BroadcastText && req.Text == "" {
		return BroadcastReport{}, uc.reply(ctx, adminChatID, uc.tr.T("broadcast.usage"))
	}

	var rep BroadcastReport
	err := runExclusive(ctx, uc.locker, broadcastLockKey, uc.log, func() error {
		var err error
		rep, err = uc.deliver(ctx, req)
		return err
	})
	if errors.Is(err, domain.ErrLocked) {
		return rep, uc.reply(ctx, adminChatID, uc.tr.T("job.busy"))
	}
	if err != nil {
		return rep, err
	}

	logging.With(ctx, uc.log).Info().
		Str("kind", string(req.Kind)).
		Int("attempted", rep.Attempted).
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Msg("broadcast finished")
	return rep, uc.reply(ctx, adminChatID, uc.tr.T("broadcast."+string(req.Kind)+"_done", rep.Succeeded, rep.Failed))
}

func (uc *broadcastUC) deliver(ctx context.Context, req BroadcastRequest) (BroadcastReport, error) {
	var rep BroadcastReport
	ids, err := uc.users.ListRegisteredIDs(ctx)
	if err != nil {
		return rep, fmt.Errorf("list recipients: %w", err)
	}

	var tick <-chan time.Time
	if uc.interval > 0 {
		t := time.NewTicker(uc.interval)
		defer t.Stop()
		tick = t.C
	}

	for i, id := range ids {
		if tick != nil && i > 0 {
			select {
			case <-tick:
			case <-ctx.Done():
				return rep, ctx.Err()
			}
		}
		rep.Attempted++
		if err := uc.sendOne(ctx, id, req); err != nil {
			rep.Failed++
			metrics.IncBroadcastDelivery(string(req.Kind), false)
			uc.log.Warn().Err(err).Int64("tg_id", id).Msg("broadcast delivery failed")
			continue
		}
		rep.Succeeded++
		metrics.IncBroadcastDelivery(string(req.Kind), true)
	}
	return rep, nil
}

func (uc *broadcastUC) sendOne(ctx context.Context, chatID int64, req BroadcastRequest) error {
	switch req.Kind {
	case BroadcastPhoto:
		return uc.bot.SendPhoto(ctx, adapter.SendMediaParams{ChatID: chatID, FileID: req.FileID, Caption: req.Text})
	case BroadcastVideo:
		return uc.bot.SendVideo(ctx, adapter.SendMediaParams{ChatID: chatID, FileID: req.FileID, Caption: req.Text})
	default:
		return uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: req.Text})
	}
}

func (uc *broadcastUC) reply(ctx context.Context, chatID int64, text string) error {
	if err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
