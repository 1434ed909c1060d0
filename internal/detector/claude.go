package detector

import (
	"strings"

	"github.com/EdwardH92/CliffDive/internal/event"
)

// claudeDetector keys on the message-input composer and the
// message-content blocks rendered for replies.
type claudeDetector struct{}

func (claudeDetector) Name() string { return "Claude" }

func (claudeDetector) Classify(sig event.Signal) (event.InteractionKind, bool) {
	n := sig.Node

	switch sig.Kind {
	case event.SignalDOMAdded:
		if containsFold(n.Class, "claude-message") ||
			containsFold(n.Class, "message-content") ||
			n.TestID == "message" ||
			n.AuthorRole == "assistant" {
			return event.ResponseReceived, true
		}

	case event.SignalInput:
		if strings.EqualFold(n.Tag, "textarea") &&
			(containsFold(n.Placeholder, "message") || n.TestID == "message-input") {
			return event.InputStart, true
		}
		// Claude's composer is a contenteditable div
		if n.Type == "contenteditable" {
			return event.InputStart, true
		}

	case event.SignalClick:
		if isSendControl(n) {
			return event.MessageSent, true
		}

	case event.SignalSubmit:
		return event.MessageSent, true

	case event.SignalKeydown:
		if n.Key == "Enter" &&
			(strings.EqualFold(n.Tag, "textarea") || n.Type == "contenteditable") {
			return event.MessageSent, true
		}
	}

	return "", false
}
