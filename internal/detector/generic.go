package detector

import "github.com/EdwardH92/CliffDive/internal/event"

// aiKeywords flag elements that belong to an embedded AI feature on
// platforms without a dedicated detector.
var aiKeywords = []string{"ai", "magic", "smart", "assistant", "generate"}

// genericDetector covers tier-2 platforms: embedded assistants,
// writing aids and design tools where usage shows up as feature
// clicks rather than a chat transcript.
type genericDetector struct {
	name string
}

func (d genericDetector) Name() string { return d.name }

func (d genericDetector) Classify(sig event.Signal) (event.InteractionKind, bool) {
	n := sig.Node

	switch sig.Kind {
	case event.SignalInput:
		if n.Type == "contenteditable" ||
			containsFold(n.Placeholder, "message") ||
			containsFold(n.Placeholder, "ai") {
			return event.InputStart, true
		}

	case event.SignalKeydown:
		if n.Key == "Enter" &&
			(n.Type == "contenteditable" || containsFold(n.Placeholder, "message")) {
			return event.MessageSent, true
		}

	case event.SignalClick, event.SignalDOMAdded, event.SignalAttrChanged:
		if looksLikeAIFeature(n) {
			return event.FeatureUsed, true
		}
	}

	return "", false
}

func looksLikeAIFeature(n event.Node) bool {
	for _, kw := range aiKeywords {
		if containsFold(n.AriaLabel, kw) ||
			containsFold(n.Class, kw) ||
			containsFold(n.TestID, kw) {
			return true
		}
	}
	return false
}
