// Package detector classifies raw page signals into interaction
// events. Each platform gets its own heuristic set keyed on stable
// DOM anchors (roles, aria labels, test ids) rather than text content.
package detector

import (
	"strings"

	"github.com/EdwardH92/CliffDive/internal/event"
)

// Detector classifies one signal for a single platform.
type Detector interface {
	Name() string
	Classify(sig event.Signal) (event.InteractionKind, bool)
}

// registry maps platform names to their dedicated detector
// constructors. New platforms register here.
var registry = map[string]func() Detector{
	"ChatGPT": func() Detector { return chatGPTDetector{} },
	"Claude":  func() Detector { return claudeDetector{} },
	"Gemini":  func() Detector { return geminiDetector{} },
}

// ForPlatform returns the detector for a platform name. Platforms
// without a registered detector fall back to the generic heuristics.
func ForPlatform(name string) Detector {
	if newDetector, ok := registry[name]; ok {
		return newDetector()
	}
	return genericDetector{name: name}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// isSendControl matches buttons that submit a chat message.
func isSendControl(n event.Node) bool {
	if n.Tag != "" && !strings.EqualFold(n.Tag, "button") {
		return false
	}
	return containsFold(n.AriaLabel, "send") ||
		containsFold(n.TestID, "send") ||
		n.Type == "submit"
}

// isAPICall matches in-page POST requests to a platform API endpoint.
func isAPICall(sig event.Signal) bool {
	return sig.Kind == event.SignalNetworkRequest &&
		strings.EqualFold(sig.Method, "POST") &&
		strings.Contains(sig.ReqURL, "/api/")
}
