package gateway

import (
	"time"

	"github.com/jcnm/meeshy-sub009/translation"
)

// Frame type discriminants for the live-connection surface. Every frame
// is a JSON object carrying its type in a "type" field.
const (
	FrameAuth                = "auth"
	FrameSendMessage         = "send_message"
	FrameMessageSent         = "message_sent"
	FrameNewMessage          = "new_message"
	FrameTranslationRequest  = "translation_request"
	FrameTranslationResponse = "translation_response"
	FrameTranslationError    = "translation_error"
	FramePreferenceUpdate    = "preference_update"
	FrameError               = "error"
)

// AuthFrame registers the connection under a pre-validated identity.
type AuthFrame struct {
	Type       string                         `json:"type"`
	Identity   string                         `json:"identity"`
	Preference translation.LanguagePreference `json:"languagePreference"`
}

// SendMessageFrame asks the gateway to route one message to every
// participant of a conversation.
type SendMessageFrame struct {
	Type           string   `json:"type"`
	JobID          string   `json:"jobId"`
	Text           string   `json:"text"`
	ConversationID string   `json:"conversationId"`
	SenderID       string   `json:"senderId"`
	SourceLang     string   `json:"sourceLanguage,omitempty"`
	Participants   []string `json:"participants"`
}

// MessageSentFrame acknowledges a SendMessageFrame to the sender only.
type MessageSentFrame struct {
	Type    string `json:"type"`
	JobID   string `json:"jobId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewMessageFrame is pushed to each recipient, carrying the variant in
// that recipient's own target language.
type NewMessageFrame struct {
	Type               string    `json:"type"`
	JobID              string    `json:"jobId"`
	Text               string    `json:"text"`
	OriginalText       string    `json:"originalText"`
	ConversationID     string    `json:"conversationId"`
	SenderID           string    `json:"senderId"`
	TargetLang         string    `json:"targetLanguage"`
	DetectedSourceLang string    `json:"detectedSourceLanguage"`
	Timestamp          time.Time `json:"timestamp"`
}

// TranslationRequestFrame is a direct translation that bypasses fan-out;
// the response goes back on the same connection only.
type TranslationRequestFrame struct {
	Type       string `json:"type"`
	JobID      string `json:"jobId"`
	Text       string `json:"text"`
	TargetLang string `json:"targetLanguage"`
	SourceLang string `json:"sourceLanguage,omitempty"`
	ModelHint  string `json:"modelHint,omitempty"`
}

// TranslationResponseFrame answers a TranslationRequestFrame.
type TranslationResponseFrame struct {
	Type               string  `json:"type"`
	JobID              string  `json:"jobId"`
	TranslatedText     string  `json:"translatedText"`
	DetectedSourceLang string  `json:"detectedSourceLanguage"`
	Confidence         float64 `json:"confidenceScore"`
	FromCache          bool    `json:"fromCache"`
}

// TranslationErrorFrame reports a failed TranslationRequestFrame.
type TranslationErrorFrame struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
	Error string `json:"error"`
}

// PreferenceUpdateFrame changes the connection's cached language
// preference without reconnecting.
type PreferenceUpdateFrame struct {
	Type       string                         `json:"type"`
	Preference translation.LanguagePreference `json:"languagePreference"`
}

// ErrorFrame reports a protocol-level problem with the caller's own
// frame. A participant never receives an error frame for someone else's
// failure.
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
