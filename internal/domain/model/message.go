package model

import "strings"

// Message is the platform-neutral view of one inbound chat message.
type Message struct {
	ChatID   int64
	SenderID int64
	Text     string
	Caption  string

	Contact  *Contact
	Location *Location

	// PhotoFileID is the largest available size of an attached photo.
	PhotoFileID string
	VideoFileID string

	// WebAppData is set when the message carries a storefront payload.
	WebAppData *string
}

type Contact struct {
	PhoneNumber string
	UserID      int64
}

type Location struct {
	Latitude  float64
	Longitude float64
}

func (m Message) HasPhoto() bool { return m.PhotoFileID != "" }
func (m Message) HasVideo() bool { return m.VideoFileID != "" }

// Kind names the content type for metrics and logs.
func (m Message) Kind() string {
	switch {
	case m.WebAppData != nil:
		return "web_app_data"
	case m.HasPhoto():
		return "photo"
	case m.HasVideo():
		return "video"
	case m.Contact != nil:
		return "contact"
	case m.Location != nil:
		return "location"
	case m.Text != "":
		return "text"
	default:
		return "other"
	}
}

// Command returns the lower-cased bot command that starts the text or the
// caption, without the slash or an @bot suffix. It is empty for plain content.
func (m Message) Command() string {
	src := strings.TrimSpace(m.Text)
	if src == "" {
		src = strings.TrimSpace(m.Caption)
	}
	if !strings.HasPrefix(src, "/") {
		return ""
	}
	head := strings.FieldsFunc(src[1:], func(r rune) bool { return r == ' ' || r == '\n' || r == '\t' })
	if len(head) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(head[0], "@")
	return strings.ToLower(name)
}

// LimitScope names what a per-user rate limit counts: the command when there
// is one, otherwise the content kind.
func (m Message) LimitScope() string {
	if c := m.Command(); c != "" {
		return c
	}
	return m.Kind()
}
