package openaction

import "encoding/json"

// Inbound event names.
const (
	EventKeyDown                  = "keyDown"
	EventKeyUp                    = "keyUp"
	EventWillAppear               = "willAppear"
	EventWillDisappear            = "willDisappear"
	EventDidReceiveGlobalSettings = "didReceiveGlobalSettings"
)

// Outbound event names.
const (
	eventSetState          = "setState"
	eventShowAlert         = "showAlert"
	eventSetGlobalSettings = "setGlobalSettings"
	eventGetGlobalSettings = "getGlobalSettings"
)

type inboundEvent struct {
	Event   string          `json:"event"`
	Action  string          `json:"action"`
	Context string          `json:"context"`
	Device  string          `json:"device"`
	Payload json.RawMessage `json:"payload"`
}

type actionPayload struct {
	Settings json.RawMessage `json:"settings"`
	State    *int            `json:"state"`
}

type globalSettingsPayload struct {
	Settings json.RawMessage `json:"settings"`
}

type outboundEvent struct {
	Event   string `json:"event"`
	Context string `json:"context,omitempty"`
	UUID    string `json:"uuid,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type statePayload struct {
	State int `json:"state"`
}

func decodeActionPayload(raw json.RawMessage) actionPayload {
	var payload actionPayload
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}
	return payload
}
