package detector

import (
	"strings"

	"github.com/EdwardH92/CliffDive/internal/event"
)

// chatGPTDetector keys on the conversation-turn structure: list items
// carry a User/Assistant aria label and message elements expose a
// data-message-author-role attribute.
type chatGPTDetector struct{}

func (chatGPTDetector) Name() string { return "ChatGPT" }

func (chatGPTDetector) Classify(sig event.Signal) (event.InteractionKind, bool) {
	n := sig.Node

	switch sig.Kind {
	case event.SignalDOMAdded:
		if n.AuthorRole == "assistant" ||
			n.TestID == "conversation-turn-assistant" ||
			containsFold(n.Class, "markdown") ||
			containsFold(n.Class, "prose") {
			return event.ResponseReceived, true
		}
		if n.AuthorRole == "user" {
			return event.MessageSent, true
		}
		if n.Role == "listitem" || n.TestID == "conversation-turn" {
			if n.AriaLabel == "Assistant" {
				return event.ResponseReceived, true
			}
			return event.MessageSent, true
		}

	case event.SignalAttrChanged:
		if n.Role != "listitem" {
			return "", false
		}
		switch n.AriaLabel {
		case "User":
			return event.MessageSent, true
		case "Assistant":
			return event.ResponseReceived, true
		}

	case event.SignalInput:
		if strings.EqualFold(n.Tag, "textarea") &&
			(containsFold(n.Placeholder, "message") || n.TestID == "chat-input") {
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
