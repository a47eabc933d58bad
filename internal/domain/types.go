package domain

import "encoding/json"

// Action identifiers registered with the control-surface host.
const (
	ActionToggleMute   = "me.amankhanna.oadiscord.togglemute"
	ActionToggleDeafen = "me.amankhanna.oadiscord.toggledeafen"
	ActionPushToMute   = "me.amankhanna.oadiscord.pushtomute"
	ActionPushToTalk   = "me.amankhanna.oadiscord.pushtotalk"
)

// AuthorizeScopes are the OAuth scopes requested during the authorization handshake.
var AuthorizeScopes = []string{"rpc", "identify"}

// Visual states shown on a control-surface instance.
const (
	StateInactive = 0
	StateActive   = 1
)

// Settings is the credential triple persisted by the host, plus the last user-visible error.
type Settings struct {
	ClientID     string  `json:"clientId"`
	ClientSecret string  `json:"clientSecret"`
	AccessToken  string  `json:"accessToken"`
	Error        *string `json:"error"`
}

// SameCredentials reports whether both values carry the same credential triple. Error is ignored.
func (s Settings) SameCredentials(other Settings) bool {
	return s.ClientID == other.ClientID &&
		s.ClientSecret == other.ClientSecret &&
		s.AccessToken == other.AccessToken
}

// Complete reports whether every credential field is set.
func (s Settings) Complete() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.AccessToken != ""
}

// ErrorText returns the recorded error or an empty string.
func (s Settings) ErrorText() string {
	if s.Error == nil {
		return ""
	}
	return *s.Error
}

// ParseSettings decodes a host settings object. Absent or malformed fields default to empty.
func ParseSettings(raw json.RawMessage) Settings {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Settings{}
	}

	settings := Settings{
		ClientID:     stringField(fields, "clientId"),
		ClientSecret: stringField(fields, "clientSecret"),
		AccessToken:  stringField(fields, "accessToken"),
	}
	if value, ok := fields["error"]; ok {
		var text *string
		if err := json.Unmarshal(value, &text); err == nil {
			settings.Error = text
		}
	}
	return settings
}

func stringField(fields map[string]json.RawMessage, key string) string {
	value, ok := fields[key]
	if !ok {
		return ""
	}
	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return ""
	}
	return text
}

// VoiceSettings is the subset of the remote voice settings this plugin reads and writes.
// Nil fields are left untouched on writes and read as false.
type VoiceSettings struct {
	Mute *bool `json:"mute,omitempty"`
	Deaf *bool `json:"deaf,omitempty"`
}

// VoiceField selects one attribute of VoiceSettings.
type VoiceField string

const (
	VoiceFieldMute VoiceField = "mute"
	VoiceFieldDeaf VoiceField = "deaf"
)

// With returns a copy of v with the selected field set.
func (v VoiceSettings) With(field VoiceField, value bool) VoiceSettings {
	switch field {
	case VoiceFieldMute:
		v.Mute = &value
	case VoiceFieldDeaf:
		v.Deaf = &value
	}
	return v
}

// Muted returns the mute flag, defaulting to false.
func (v VoiceSettings) Muted() bool { return v.Mute != nil && *v.Mute }

// Deafened returns the deaf flag, defaulting to false.
func (v VoiceSettings) Deafened() bool { return v.Deaf != nil && *v.Deaf }

// User is the remote identity announced during the IPC handshake.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// ItemKind classifies an inbound item from the remote process.
type ItemKind string

const (
	ItemEvent   ItemKind = "event"
	ItemCommand ItemKind = "command"
	ItemClosed  ItemKind = "closed"
)

// Remote command and event names.
const (
	CommandAuthorize        = "AUTHORIZE"
	CommandAuthenticate     = "AUTHENTICATE"
	CommandSubscribe        = "SUBSCRIBE"
	CommandGetVoiceSettings = "GET_VOICE_SETTINGS"
	CommandSetVoiceSettings = "SET_VOICE_SETTINGS"
	CommandDispatch         = "DISPATCH"

	EventReady               = "READY"
	EventError               = "ERROR"
	EventVoiceSettingsUpdate = "VOICE_SETTINGS_UPDATE"
)

// InvalidCredentialCode is the remote error code that invalidates the stored access token.
const InvalidCredentialCode = 4006

// RemoteError is an error event raised by the remote process.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Item is one decoded inbound message: a push event, a command response or the closed signal.
type Item struct {
	Kind    ItemKind
	Command string
	Event   string

	Error *RemoteError
	Voice *VoiceSettings
	Code  string
}

// SessionState is the sub-state of a live connection.
type SessionState string

const (
	SessionConnecting  SessionState = "connecting"
	SessionAuthorizing SessionState = "authorizing"
	SessionReady       SessionState = "ready"
	SessionClosed      SessionState = "closed"
)

// ErrorCode identifies the failure classes surfaced by the plugin.
type ErrorCode string

const (
	ErrorCodeMissingCredentials ErrorCode = "missing_credentials"
	ErrorCodeChannelUnavailable ErrorCode = "channel_unavailable"
	ErrorCodeAuthentication     ErrorCode = "authentication_failed"
	ErrorCodeAuthorization      ErrorCode = "authorization_handshake_failed"
	ErrorCodeRemoteProtocol     ErrorCode = "remote_protocol_error"
	ErrorCodeCommandSend        ErrorCode = "command_send_failed"
)
