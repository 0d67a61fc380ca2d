package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-storefront-bot/internal/domain/model"
)

// webAppEnvelope picks message.web_app_data out of a raw update, a field
// tgbotapi.Message does not carry.
type webAppEnvelope struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		WebAppData *struct {
			Data       string `json:"data"`
			ButtonText string `json:"button_text"`
		} `json:"web_app_data"`
	} `json:"message"`
}

// inbound is one decoded update with its optional web app payload.
type inbound struct {
	update     tgbotapi.Update
	webAppData *string
}

// decodeUpdates parses a getUpdates result twice: once into tgbotapi types
// and once for the web app payloads.
func decodeUpdates(raw json.RawMessage) ([]inbound, error) {
	var updates []tgbotapi.Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	var envs []webAppEnvelope
	if err := json.Unmarshal(raw, &envs); err != nil {
		return nil, fmt.Errorf("decode web app data: %w", err)
	}

	out := make([]inbound, len(updates))
	for i, u := range updates {
		out[i].update = u
		if i < len(envs) && envs[i].UpdateID == u.UpdateID {
			if m := envs[i].Message; m != nil && m.WebAppData != nil {
				data := m.WebAppData.Data
				out[i].webAppData = &data
			}
		}
	}
	return out, nil
}

// toMessage converts an update to the router's view. Updates without a
// regular message or a sender are skipped.
func toMessage(in inbound) (model.Message, bool) {
	m := in.update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return model.Message{}, false
	}
	msg := model.Message{
		ChatID:     m.Chat.ID,
		SenderID:   m.From.ID,
		Text:       m.Text,
		Caption:    m.Caption,
		WebAppData: in.webAppData,
	}
	if m.Contact != nil {
		msg.Contact = &model.Contact{PhoneNumber: m.Contact.PhoneNumber, UserID: m.Contact.UserID}
	}
	if m.Location != nil {
		msg.Location = &model.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	}
	if n := len(m.Photo); n > 0 {
		// sizes are ascending
		msg.PhotoFileID = m.Photo[n-1].FileID
	}
	if m.Video != nil {
		msg.VideoFileID = m.Video.FileID
	}
	return msg, true
}
