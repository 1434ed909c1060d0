package detector

import (
	"strings"

	"github.com/EdwardH92/CliffDive/internal/event"
)

// geminiDetector is deliberately loose. Gemini rewrites its DOM
// between releases, so it matches on fuzzy class and test-id
// substrings plus the in-page API side channel.
type geminiDetector struct{}

func (geminiDetector) Name() string { return "Gemini" }

func (geminiDetector) Classify(sig event.Signal) (event.InteractionKind, bool) {
	n := sig.Node

	switch sig.Kind {
	case event.SignalDOMAdded:
		if containsFold(n.Class, "response") || containsFold(n.Class, "message") ||
			containsFold(n.TestID, "response") || containsFold(n.TestID, "message") {
			return event.ResponseReceived, true
		}

	case event.SignalInput:
		if !strings.EqualFold(n.Tag, "textarea") {
			return "", false
		}
		if containsFold(n.Placeholder, "message") ||
			containsFold(n.Placeholder, "ask") ||
			containsFold(n.Placeholder, "type") ||
			containsFold(n.AriaLabel, "input") ||
			containsFold(n.TestID, "input") {
			return event.InputStart, true
		}

	case event.SignalClick:
		if isSendControl(n) {
			return event.MessageSent, true
		}

	case event.SignalSubmit:
		return event.MessageSent, true

	case event.SignalKeydown:
		if n.Key == "Enter" && strings.EqualFold(n.Tag, "textarea") {
			return event.MessageSent, true
		}

	case event.SignalNetworkRequest:
		if isAPICall(sig) {
			return event.MessageSent, true
		}
	}

	return "", false
}
