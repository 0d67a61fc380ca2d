package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes the admin's user statistics.
type UserUseCase interface {
	CountRegistered(ctx context.Context) (int, error)
	ReportRegisteredCount(ctx context.Context, chatID int64) error
}

type userUC struct {
	users repository.UserRepository
	bot   adapter.TelegramBotAdapter
	tr    *i18n.Translator
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, bot adapter.TelegramBotAdapter, tr *i18n.Translator, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		bot:   bot,
		tr:    tr,
		log:   logger,
	}
}

func (u *userUC) CountRegistered(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.CountRegistered")()
	n, err := u.users.CountRegistered(ctx)
	if err != nil {
		return 0, fmt.Errorf("count registered: %w", err)
	}
	return n, nil
}

func (u *userUC) ReportRegisteredCount(ctx context.Context, chatID int64) error {
	n, err := u.CountRegistered(ctx)
	if err != nil {
		return err
	}
	if err := u.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: u.tr.T("users.count", n)}); err != nil {
		return fmt.Errorf("send count: %w", err)
	}
	return nil
}
