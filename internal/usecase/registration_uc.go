package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/domain/ports/repository"
	"telegram-storefront-bot/internal/infra/i18n"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
)

// Compile-time check
var _ RegistrationUseCase = (*registrationUC)(nil)

// RegistrationUseCase drives the phone then location onboarding funnel.
type RegistrationUseCase interface {
	Start(ctx context.Context, chatID, userID int64) error
	SharePhone(ctx context.Context, chatID, userID int64, phone string) error
	ShareLocation(ctx context.Context, chatID, userID int64, lat, lon float64) error
	Fallback(ctx context.Context, chatID, userID int64) error
	State(ctx context.Context, userID int64) (model.FunnelState, error)
}

type registrationUC struct {
	users     repository.UserRepository
	pending   repository.PendingRegistrations
	bot       adapter.TelegramBotAdapter
	tr        *i18n.Translator
	webAppURL string
	timeout   time.Duration
	log       *zerolog.Logger
}

func NewRegistrationUseCase(
	users repository.UserRepository,
	pending repository.PendingRegistrations,
	bot adapter.TelegramBotAdapter,
	tr *i18n.Translator,
	webAppURL string,
	timeout time.Duration,
	logger *zerolog.Logger,
) *registrationUC {
	l := logger.With().Str("component", "registration").Logger()
	return &registrationUC{
		users:     users,
		pending:   pending,
		bot:       bot,
		tr:        tr,
		webAppURL: webAppURL,
		timeout:   timeout,
		log:       &l,
	}
}

// State derives the funnel position. A pending entry counts as HAS_PHONE even
// before the phone write is visible to readers.
func (uc *registrationUC) State(ctx context.Context, userID int64) (model.FunnelState, error) {
	ok, err := uc.users.IsRegistered(ctx, userID)
	if err != nil {
		return model.StateAnonymous, fmt.Errorf("check registered: %w", err)
	}
	if ok {
		return model.StateRegistered, nil
	}
	if uc.pending.IsPending(userID) {
		return model.StateHasPhone, nil
	}
	u, err := uc.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return model.StateAnonymous, nil
	}
	if err != nil {
		return model.StateAnonymous, fmt.Errorf("load user: %w", err)
	}
	return u.State(), nil
}

func (uc *registrationUC) Start(ctx context.Context, chatID, userID int64) error {
	defer logging.TraceDuration(uc.log, "RegistrationUC.Start")()

	state, err := uc.State(ctx, userID)
	if err != nil {
		return err
	}
	switch state {
	case model.StateRegistered:
		return uc.send(ctx, chatID, uc.tr.T("start.welcome_back"), uc.shopButton())
	case model.StateHasPhone:
		return uc.send(ctx, chatID, uc.tr.T("start.ask_location"), adapter.LocationKeyboard(uc.tr.T("button.share_location")))
	default:
		return uc.send(ctx, chatID, uc.tr.T("start.ask_phone"), adapter.ContactKeyboard(uc.tr.T("button.share_phone")))
	}
}

func (uc *registrationUC) SharePhone(ctx context.Context, chatID, userID int64, phone string) error {
	defer logging.TraceDuration(uc.log, "RegistrationUC.SharePhone")()

	if err := uc.users.Upsert(ctx, userID, model.PhonePatch(phone)); err != nil {
		return fmt.Errorf("save phone: %w", err)
	}
	if err := uc.send(ctx, chatID, uc.tr.T("registration.phone_accepted"), adapter.LocationKeyboard(uc.tr.T("button.share_location"))); err != nil {
		return err
	}

	// The timer outlives this update, so it gets a context that is not
	// cancelled when the handler returns.
	bg := context.WithoutCancel(ctx)
	uc.pending.Arm(userID, uc.timeout, func() { uc.onTimeout(bg, chatID, userID) })
	uc.log.Debug().
		Int64("tg_id", userID).
		Str("phone", logging.Redact(phone, false)).
		Dur("timeout", uc.timeout).
		Msg("location timer armed")
	return nil
}

// onTimeout runs only if the entry armed by the matching contact share was
// still pending. A stored registration is re-checked before notifying.
func (uc *registrationUC) onTimeout(ctx context.Context, chatID, userID int64) {
	log := logging.With(ctx, uc.log)
	ok, err := uc.users.IsRegistered(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("registered check on timeout failed")
	}
	if ok {
		return
	}
	metrics.IncRegistrationTimeout()
	if err := uc.send(ctx, chatID, uc.tr.T("registration.location_timeout"), nil); err != nil {
		log.Warn().Err(err).Msg("failed to send location timeout notice")
	}
}

func (uc *registrationUC) ShareLocation(ctx context.Context, chatID, userID int64, lat, lon float64) error {
	defer logging.TraceDuration(uc.log, "RegistrationUC.ShareLocation")()

	if err := uc.users.Upsert(ctx, userID, model.LocationPatch(lat, lon)); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	uc.pending.Clear(userID)
	metrics.IncUsersRegistered()

	if err := uc.send(ctx, chatID, uc.tr.T("registration.completed"), adapter.RemoveKeyboard()); err != nil {
		return err
	}
	return uc.send(ctx, chatID, uc.tr.T("registration.shop_welcome"), uc.shopButton())
}

func (uc *registrationUC) Fallback(ctx context.Context, chatID, userID int64) error {
	state, err := uc.State(ctx, userID)
	if err != nil {
		return err
	}
	switch state {
	case model.StateRegistered:
		return uc.send(ctx, chatID, uc.tr.T("fallback.registered"), uc.shopButton())
	case model.StateHasPhone:
		return uc.send(ctx, chatID, uc.tr.T("start.ask_phone"), adapter.ContactKeyboard(uc.tr.T("button.share_phone")))
	default:
		return uc.send(ctx, chatID, uc.tr.T("fallback.anonymous"), nil)
	}
}

func (uc *registrationUC) shopButton() *adapter.Keyboard {
	return adapter.WebAppKeyboard(uc.tr.T("button.open_shop"), uc.webAppURL)
}

func (uc *registrationUC) send(ctx context.Context, chatID int64, text string, kb *adapter.Keyboard) error {
	err := uc.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text, Keyboard: kb})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
