package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/export"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
	"telegram-storefront-bot/internal/infra/worker"
)

var _ ExportUseCase = (*exportUC)(nil)

type ExportReport struct {
	Rows     int
	Resolved int
	Degraded int
	NoData   int
}

type ExportUseCase interface {
	Export(ctx context.Context, chatID int64, onlyRegistered bool) (ExportReport, error)
}

type ExportOptions struct {
	Dir     string
	Workers int
}

type exportUC struct {
	users  repository.UserRepository
	geo    adapter.Geocoder
	bot    adapter.TelegramBotAdapter
	tr     *i18n.Translator
	locker repository.JobLocker
	opts   ExportOptions
	log    *zerolog.Logger
}

func NewExportUseCase(
	users repository.UserRepository,
	geo adapter.Geocoder,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	locker repository.JobLocker,
	opts ExportOptions,
	logger *zerolog.Logger,
) *exportUC {
	l := logger.With().Str("component", "export").Logger()
	return &exportUC{users: users, geo: geo, bot: bot, tr: tr, locker: locker, opts: opts, log: &l}
}

func scopeOf(onlyRegistered bool) string {
	if onlyRegistered {
		return "registered"
	}
	return "all"
}

func (uc *exportUC) Export(ctx context.Context, chatID int64, onlyRegistered bool) (ExportReport, error) {
	defer logging.TraceDuration(uc.log, "ExportUC.Export")()
	scope := scopeOf(onlyRegistered)

	var rep ExportReport
	err := runExclusive(ctx, uc.locker, exportLockKey, uc.log, func() error {
		var err error
		rep, err = uc.run(ctx, chatID, onlyRegistered)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrLocked):
		metrics.IncExportJob(scope, "busy")
		return rep, uc.reply(ctx, chatID, uc.tr.T("job.busy"))
	case err != nil:
		metrics.IncExportJob(scope, "error")
		return rep, err
	case rep.Rows == 0:
		metrics.IncExportJob(scope, "empty")
	default:
		metrics.IncExportJob(scope, "ok")
		metrics.AddExportRows(rep.Rows)
	}
	return rep, nil
}

func (uc *exportUC) run(ctx context.Context, chatID int64, onlyRegistered bool) (ExportReport, error) {
	var rep ExportReport
	users, err := uc.users.ListForExport(ctx, onlyRegistered)
	if err != nil {
		return rep, fmt.Errorf("load export snapshot: %w", err)
	}
	if len(users) == 0 {
		return rep, uc.reply(ctx, chatID, uc.tr.T("export.empty"))
	}

	results := worker.Map(ctx, worker.Width(uc.opts.Workers), users, func(ctx context.Context, u *model.User) model.GeocodeResult {
		return uc.geo.Reverse(ctx, u.Latitude, u.Longitude)
	})
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	rows := make([]export.Row, len(users))
	for i, u := range users {
		rows[i] = export.Row{User: u, Address: results[i].Address}
		switch results[i].Status {
		case model.GeocodeResolved:
			rep.Resolved++
		case model.GeocodeDegraded:
			rep.Degraded++
		default:
			rep.NoData++
		}
	}
	rep.Rows = len(rows)

	path, err := export.WriteFile(uc.opts.Dir, rows)
	if err != nil {
		return rep, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			uc.log.Debug().Err(err).Str("path", path).Msg("failed to remove export file")
		}
	}()

	err = uc.bot.SendDocument(ctx, adapter.SendDocumentParams{
		ChatID:   chatID,
		Path:     path,
		FileName: export.FileName,
		Caption:  uc.tr.T("export.caption"),
	})
	if err != nil {
		return rep, fmt.Errorf("send export document: %w", err)
	}

	logging.With(ctx, uc.log).Info().
		Int("rows", rep.Rows).
		Int("resolved", rep.Resolved).
		Int("degraded", rep.Degraded).
		Int("no_data", rep.NoData).
		Msg("export delivered")
	return rep, nil
}

func (uc *exportUC) reply(ctx context.Context, chatID int64, text string) error {
	if err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}
