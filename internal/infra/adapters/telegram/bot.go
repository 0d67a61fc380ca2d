package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/config"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/domain/ports/adapter"
	"telegram-storefront-bot/internal/infra/i18n"
	red "telegram-storefront-bot/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UpdateHandler consumes one inbound message.
type UpdateHandler interface {
	Handle(ctx context.Context, msg model.Message) error
}

// RealTelegramBotAdapter long-polls Telegram and sends replies through tgbotapi.
type RealTelegramBotAdapter struct {
	api         botAPI
	cfg         config.BotConfig
	rateLimiter *red.RateLimiter
	perMinute   int
	tr          *i18n.Translator
	log         *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	l := logger.With().Str("component", "telegram").Str("bot", api.Self.UserName).Logger()
	return newAdapter(api, cfg, &l), nil
}

func newAdapter(api botAPI, cfg config.BotConfig, logger *zerolog.Logger) *RealTelegramBotAdapter {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &RealTelegramBotAdapter{api: api, cfg: cfg, log: logger}
}

// WithRateLimiter enables per-user limiting of inbound messages. The admin is
// never limited. Limited users get tr's "rate_limited" notice once per window.
func (r *RealTelegramBotAdapter) WithRateLimiter(rl *red.RateLimiter, perMinute int, tr *i18n.Translator) *RealTelegramBotAdapter {
	r.rateLimiter = rl
	r.perMinute = perMinute
	r.tr = tr
	return r
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	if markup := replyMarkup(params.Keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := r.api.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, params adapter.SendMediaParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := tgbotapi.NewPhoto(params.ChatID, tgbotapi.FileID(params.FileID))
	p.Caption = params.Caption
	_, err := r.api.Send(p)
	return err
}

func (r *RealTelegramBotAdapter) SendVideo(ctx context.Context, params adapter.SendMediaParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v := tgbotapi.NewVideo(params.ChatID, tgbotapi.FileID(params.FileID))
	v.Caption = params.Caption
	_, err := r.api.Send(v)
	return err
}

// SendDocument uploads the file at params.Path under params.FileName.
func (r *RealTelegramBotAdapter) SendDocument(ctx context.Context, params adapter.SendDocumentParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(params.Path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	name := params.FileName
	if name == "" {
		name = f.Name()
	}
	doc := tgbotapi.NewDocument(params.ChatID, tgbotapi.FileReader{Name: name, Reader: f})
	doc.Caption = params.Caption
	_, err = r.api.Send(doc)
	return err
}

// tgbotapi v5.5 predates web apps, so the inline button is marshalled from
// our own types. ReplyMarkup accepts any JSON-encodable value.
type webAppInfo struct {
	URL string `json:"url"`
}

type webAppButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app"`
}

type webAppMarkup struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

func replyMarkup(kb *adapter.Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	switch kb.Kind {
	case adapter.KeyboardWebApp:
		return webAppMarkup{InlineKeyboard: [][]webAppButton{{{Text: kb.Text, WebApp: &webAppInfo{URL: kb.URL}}}}}
	case adapter.KeyboardRequestContact:
		m := tgbotapi.NewOneTimeReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(kb.Text)))
		m.ResizeKeyboard = true
		return m
	case adapter.KeyboardRequestLocation:
		m := tgbotapi.NewOneTimeReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(kb.Text)))
		m.ResizeKeyboard = true
		return m
	case adapter.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(false)
	default:
		return nil
	}
}
