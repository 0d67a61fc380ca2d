package adapter

import "context"

type KeyboardKind int

const (
	KeyboardNone KeyboardKind = iota
	KeyboardWebApp
	KeyboardRequestContact
	KeyboardRequestLocation
	KeyboardRemove
)

// Keyboard describes the markup attached to an outgoing message.
type Keyboard struct {
	Kind KeyboardKind
	Text string
	URL  string
}

func WebAppKeyboard(text, url string) *Keyboard {
	return &Keyboard{Kind: KeyboardWebApp, Text: text, URL: url}
}

func ContactKeyboard(text string) *Keyboard {
	return &Keyboard{Kind: KeyboardRequestContact, Text: text}
}

func LocationKeyboard(text string) *Keyboard {
	return &Keyboard{Kind: KeyboardRequestLocation, Text: text}
}

func RemoveKeyboard() *Keyboard {
	return &Keyboard{Kind: KeyboardRemove}
}

type SendMessageParams struct {
	ChatID   int64
	Text     string
	Keyboard *Keyboard
}

// SendMediaParams relays an already uploaded photo or video by file id.
type SendMediaParams struct {
	ChatID  int64
	FileID  string
	Caption string
}

// SendDocumentParams uploads a local file under FileName.
type SendDocumentParams struct {
	ChatID   int64
	Path     string
	FileName string
	Caption  string
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	SendPhoto(ctx context.Context, params SendMediaParams) error
	SendVideo(ctx context.Context, params SendMediaParams) error
	SendDocument(ctx context.Context, params SendDocumentParams) error
}
