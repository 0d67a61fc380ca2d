package application

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/domain"
	"telegram-storefront-bot/internal/domain/model"
	"telegram-storefront-bot/internal/infra/logging"
	"telegram-storefront-bot/internal/infra/metrics"
	"telegram-storefront-bot/internal/usecase"
)

const (
	captionBroadcastPhoto = "/broadcast_photo"
	captionBroadcastVideo = "/broadcast_video"
)

type commandHandler func(ctx context.Context, msg model.Message, args string) error

// Router sends every inbound message to exactly one handler. Rules are
// checked in a fixed order and the first match wins.
type Router struct {
	adminID   int64
	reg       usecase.RegistrationUseCase
	broadcast usecase.BroadcastUseCase
	export    usecase.ExportUseCase
	orders    usecase.OrderUseCase
	users     usecase.UserUseCase
	log       *zerolog.Logger

	admin map[string]commandHandler
}

func NewRouter(
	adminID int64,
	reg usecase.RegistrationUseCase,
	broadcast usecase.BroadcastUseCase,
	export usecase.ExportUseCase,
	orders usecase.OrderUseCase,
	users usecase.UserUseCase,
	logger *zerolog.Logger,
) *Router {
	l := logger.With().Str("component", "router").Logger()
	r := &Router{
		adminID:   adminID,
		reg:       reg,
		broadcast: broadcast,
		export:    export,
		orders:    orders,
		users:     users,
		log:       &l,
	}
	r.admin = map[string]commandHandler{
		"broadcast":        r.handleBroadcastText,
		"users":            r.handleUsers,
		"export_users_ok":  r.handleExport(true),
		"export_users_all": r.handleExport(false),
	}
	return r
}

func (r *Router) isAdmin(msg model.Message) bool { return msg.SenderID == r.adminID }

func (r *Router) Handle(ctx context.Context, msg model.Message) error {
	metrics.IncTelegramUpdate(msg.Kind())
	ctx = logging.WithUpdateKind(ctx, msg.Kind())

	// Media broadcasts are matched on the caption before anything else.
	if msg.HasPhoto() {
		if rest, ok := cutCaptionCommand(msg.Caption, captionBroadcastPhoto); ok {
			return r.adminOnly(ctx, msg, captionBroadcastPhoto, func() error {
				_, err := r.broadcast.Broadcast(ctx, msg.ChatID, usecase.BroadcastRequest{
					Kind: usecase.BroadcastPhoto, Text: rest, FileID: msg.PhotoFileID,
				})
				return err
			})
		}
	}
	if msg.HasVideo() {
		if rest, ok := cutCaptionCommand(msg.Caption, captionBroadcastVideo); ok {
			return r.adminOnly(ctx, msg, captionBroadcastVideo, func() error {
				_, err := r.broadcast.Broadcast(ctx, msg.ChatID, usecase.BroadcastRequest{
					Kind: usecase.BroadcastVideo, Text: rest, FileID: msg.VideoFileID,
				})
				return err
			})
		}
	}

	if msg.WebAppData != nil {
		err := r.orders.Relay(ctx, msg.ChatID, msg.SenderID, *msg.WebAppData)
		if errors.Is(err, domain.ErrMalformedPayload) {
			// the buyer has already been told
			return nil
		}
		return err
	}

	cmd, args := parseCommand(msg.Text)
	if cmd == "start" {
		return r.reg.Start(ctx, msg.ChatID, msg.SenderID)
	}
	if msg.Contact != nil {
		return r.reg.SharePhone(ctx, msg.ChatID, msg.SenderID, msg.Contact.PhoneNumber)
	}
	if msg.Location != nil {
		return r.reg.ShareLocation(ctx, msg.ChatID, msg.SenderID, msg.Location.Latitude, msg.Location.Longitude)
	}

	if h, ok := r.admin[cmd]; ok {
		return r.adminOnly(ctx, msg, "/"+cmd, func() error { return h(ctx, msg, args) })
	}
	return r.reg.Fallback(ctx, msg.ChatID, msg.SenderID)
}

// adminOnly runs fn for the admin. Anyone else gets no reply at all.
func (r *Router) adminOnly(ctx context.Context, msg model.Message, command string, fn func() error) error {
	if !r.isAdmin(msg) {
		metrics.IncAdminCommand(command, "ignored")
		logging.With(ctx, r.log).Debug().Str("command", command).Msg("admin command from non-admin ignored")
		return nil
	}
	err := fn()
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncAdminCommand(command, status)
	return err
}

func (r *Router) handleBroadcastText(ctx context.Context, msg model.Message, args string) error {
	_, err := r.broadcast.Broadcast(ctx, msg.ChatID, usecase.BroadcastRequest{Kind: usecase.BroadcastText, Text: args})
	return err
}

func (r *Router) handleUsers(ctx context.Context, msg model.Message, _ string) error {
	return r.users.ReportRegisteredCount(ctx, msg.ChatID)
}

func (r *Router) handleExport(onlyRegistered bool) commandHandler {
	return func(ctx context.Context, msg model.Message, _ string) error {
		_, err := r.export.Export(ctx, msg.ChatID, onlyRegistered)
		return err
	}
}

// parseCommand splits "/cmd@bot rest" into ("cmd", "rest"). Text that is not
// a command yields an empty name.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	name, _, _ := strings.Cut(head[1:], "@")
	return name, strings.TrimSpace(rest)
}

// cutCaptionCommand reports whether caption starts with command, ignoring
// case, and returns the remaining text with any @bot mention dropped.
func cutCaptionCommand(caption, command string) (string, bool) {
	c := strings.TrimSpace(caption)
	if len(c) < len(command) || !strings.EqualFold(c[:len(command)], command) {
		return "", false
	}
	rest := c[len(command):]
	if strings.HasPrefix(rest, "@") {
		_, rest, _ = strings.Cut(rest, " ")
	}
	return strings.TrimSpace(rest), true
}
