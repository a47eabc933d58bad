package discordipc

import (
	"encoding/json"
	"fmt"

	"oadiscord/internal/domain"
)

type request struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args,omitempty"`
	Evt   string `json:"evt,omitempty"`
	Nonce string `json:"nonce"`
}

type response struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

type handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

type readyData struct {
	User domain.User `json:"user"`
}

type authorizeData struct {
	Code string `json:"code"`
}

type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RemoteError is an error reply from Discord to a command.
type RemoteError struct {
	Command string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("discord %s error %d: %s", e.Command, e.Code, e.Message)
}

func (r response) isError() bool {
	return r.Evt == domain.EventError
}

func (r response) remoteError() *RemoteError {
	var data errorData
	_ = json.Unmarshal(r.Data, &data)
	return &RemoteError{Command: r.Cmd, Code: data.Code, Message: data.Message}
}

// decodeItem maps a frame onto the inbound item the session consumes.
func decodeItem(r response) domain.Item {
	if r.isError() {
		remote := r.remoteError()
		return domain.Item{
			Kind:    domain.ItemEvent,
			Event:   domain.EventError,
			Command: r.Cmd,
			Error:   &domain.RemoteError{Code: remote.Code, Message: remote.Message},
		}
	}

	if r.Cmd == domain.CommandDispatch {
		item := domain.Item{Kind: domain.ItemEvent, Event: r.Evt}
		if r.Evt == domain.EventVoiceSettingsUpdate {
			item.Voice = decodeVoice(r.Data)
		}
		return item
	}

	item := domain.Item{Kind: domain.ItemCommand, Command: r.Cmd}
	switch r.Cmd {
	case domain.CommandAuthorize:
		var data authorizeData
		if err := json.Unmarshal(r.Data, &data); err == nil {
			item.Code = data.Code
		}
	case domain.CommandGetVoiceSettings:
		item.Voice = decodeVoice(r.Data)
	}
	return item
}

func decodeVoice(raw json.RawMessage) *domain.VoiceSettings {
	var voice domain.VoiceSettings
	if err := json.Unmarshal(raw, &voice); err != nil {
		return nil
	}
	return &voice
}
