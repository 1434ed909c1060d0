// Package event defines the wire-level contract between the page-side
// shim, the interaction detectors, and the session tracker. Signals
// carry structure only, never message content.
package event

import "time"

// SignalKind identifies the raw page event a signal describes.
type SignalKind string

const (
	SignalDOMAdded       SignalKind = "dom_added"
	SignalAttrChanged    SignalKind = "attr_changed"
	SignalInput          SignalKind = "input"
	SignalClick          SignalKind = "click"
	SignalSubmit         SignalKind = "submit"
	SignalKeydown        SignalKind = "keydown"
	SignalNetworkRequest SignalKind = "network_request"
)

// InteractionKind classifies a detected user interaction.
type InteractionKind string

const (
	InputStart       InteractionKind = "input_start"
	MessageSent      InteractionKind = "message_sent"
	ResponseReceived InteractionKind = "response_received"
	FeatureUsed      InteractionKind = "feature_used"
)

// Valid reports whether k is one of the known interaction kinds.
func (k InteractionKind) Valid() bool {
	switch k {
	case InputStart, MessageSent, ResponseReceived, FeatureUsed:
		return true
	}
	return false
}

// Node describes a DOM element by its stable attributes. Text content
// is deliberately absent.
type Node struct {
	Tag         string `json:"tag,omitempty"`
	Role        string `json:"role,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	TestID      string `json:"testId,omitempty"`
	Class       string `json:"class,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AuthorRole  string `json:"authorRole,omitempty"`
	Type        string `json:"type,omitempty"`
	Key         string `json:"key,omitempty"`
}

// Signal is one raw page event forwarded by the shim.
type Signal struct {
	TabID  int        `json:"tabId"`
	URL    string     `json:"url"`
	Kind   SignalKind `json:"kind"`
	Node   Node       `json:"node,omitempty"`
	Method string     `json:"method,omitempty"`
	ReqURL string     `json:"reqUrl,omitempty"`
	At     time.Time  `json:"at,omitempty"`
}

// Interaction is a classified interaction event consumed by the
// session tracker.
type Interaction struct {
	TabID int             `json:"tabId"`
	Kind  InteractionKind `json:"kind"`
	URL   string          `json:"url"`
	At    time.Time       `json:"at"`
	// Network marks interactions observed on the request side channel
	// rather than in the DOM; these persist immediately.
	Network bool `json:"network,omitempty"`
}
