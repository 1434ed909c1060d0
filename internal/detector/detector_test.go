package detector

import (
	"testing"

	"github.com/EdwardH92/CliffDive/internal/event"
)

func TestForPlatformDispatch(t *testing.T) {
	tests := []struct {
		platform string
		generic  bool
	}{
		{"ChatGPT", false},
		{"Claude", false},
		{"Gemini", false},
		{"Notion AI", true},
		{"", true},
	}

	for _, tt := range tests {
		det := ForPlatform(tt.platform)
		if det.Name() != tt.platform {
			t.Errorf("ForPlatform(%q).Name() = %q", tt.platform, det.Name())
		}
		if _, generic := det.(genericDetector); generic != tt.generic {
			t.Errorf("ForPlatform(%q): generic = %v, want %v", tt.platform, generic, tt.generic)
		}
	}
}

func TestChatGPTClassify(t *testing.T) {
	det := ForPlatform("ChatGPT")
	if det.Name() != "ChatGPT" {
		t.Fatalf("expected ChatGPT detector, got %s", det.Name())
	}

	tests := []struct {
		name string
		sig  event.Signal
		want event.InteractionKind
		ok   bool
	}{
		{
			name: "assistant turn added",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{AuthorRole: "assistant"},
			},
			want: event.ResponseReceived,
			ok:   true,
		},
		{
			name: "markdown block added",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{Tag: "div", Class: "markdown prose-invert"},
			},
			want: event.ResponseReceived,
			ok:   true,
		},
		{
			name: "user turn added",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{AuthorRole: "user"},
			},
			want: event.MessageSent,
			ok:   true,
		},
		{
			name: "listitem aria relabeled assistant",
			sig: event.Signal{
				Kind: event.SignalAttrChanged,
				Node: event.Node{Role: "listitem", AriaLabel: "Assistant"},
			},
			want: event.ResponseReceived,
			ok:   true,
		},
		{
			name: "composer input",
			sig: event.Signal{
				Kind: event.SignalInput,
				Node: event.Node{Tag: "textarea", Placeholder: "Message ChatGPT"},
			},
			want: event.InputStart,
			ok:   true,
		},
		{
			name: "send button click",
			sig: event.Signal{
				Kind: event.SignalClick,
				Node: event.Node{Tag: "button", TestID: "send-button"},
			},
			want: event.MessageSent,
			ok:   true,
		},
		{
			name: "enter in composer",
			sig: event.Signal{
				Kind: event.SignalKeydown,
				Node: event.Node{Tag: "textarea", Key: "Enter"},
			},
			want: event.MessageSent,
			ok:   true,
		},
		{
			name: "api post",
			sig: event.Signal{
				Kind:   event.SignalNetworkRequest,
				Method: "POST",
				ReqURL: "https://chatgpt.com/api/conversation",
			},
			want: event.MessageSent,
			ok:   true,
		},
		{
			name: "api get ignored",
			sig: event.Signal{
				Kind:   event.SignalNetworkRequest,
				Method: "GET",
				ReqURL: "https://chatgpt.com/api/conversation",
			},
			ok: false,
		},
		{
			name: "unrelated div ignored",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{Tag: "div", Class: "sidebar"},
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := det.Classify(tt.sig)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClaudeClassify(t *testing.T) {
	det := ForPlatform("Claude")

	tests := []struct {
		name string
		sig  event.Signal
		want event.InteractionKind
		ok   bool
	}{
		{
			name: "message content added",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{Tag: "div", Class: "message-content"},
			},
			want: event.ResponseReceived,
			ok:   true,
		},
		{
			name: "contenteditable composer",
			sig: event.Signal{
				Kind: event.SignalInput,
				Node: event.Node{Tag: "div", Type: "contenteditable"},
			},
			want: event.InputStart,
			ok:   true,
		},
		{
			name: "send aria label",
			sig: event.Signal{
				Kind: event.SignalClick,
				Node: event.Node{Tag: "button", AriaLabel: "Send message"},
			},
			want: event.MessageSent,
			ok:   true,
		},
		{
			name: "plain div ignored",
			sig: event.Signal{
				Kind: event.SignalDOMAdded,
				Node: event.Node{Tag: "div", Class: "toolbar"},
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := det.Classify(tt.sig)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGeminiClassify(t *testing.T) {
	det := ForPlatform("Gemini")

	if got, ok := det.Classify(event.Signal{
		Kind: event.SignalInput,
		Node: event.Node{Tag: "textarea", Placeholder: "Ask Gemini"},
	}); !ok || got != event.InputStart {
		t.Errorf("ask placeholder: got %s ok=%v", got, ok)
	}

	if got, ok := det.Classify(event.Signal{
		Kind: event.SignalDOMAdded,
		Node: event.Node{Tag: "div", TestID: "response-container"},
	}); !ok || got != event.ResponseReceived {
		t.Errorf("response testid: got %s ok=%v", got, ok)
	}

	if got, ok := det.Classify(event.Signal{
		Kind:   event.SignalNetworkRequest,
		Method: "POST",
		ReqURL: "https://gemini.google.com/api/generate",
	}); !ok || got != event.MessageSent {
		t.Errorf("api post: got %s ok=%v", got, ok)
	}
}

func TestGenericClassify(t *testing.T) {
	det := ForPlatform("Notion AI")
	if det.Name() != "Notion AI" {
		t.Fatalf("generic detector keeps platform name, got %s", det.Name())
	}

	if got, ok := det.Classify(event.Signal{
		Kind: event.SignalClick,
		Node: event.Node{Tag: "button", AriaLabel: "Ask AI"},
	}); !ok || got != event.FeatureUsed {
		t.Errorf("ai button: got %s ok=%v", got, ok)
	}

	if got, ok := det.Classify(event.Signal{
		Kind: event.SignalDOMAdded,
		Node: event.Node{Tag: "div", Class: "magic-button"},
	}); !ok || got != event.FeatureUsed {
		t.Errorf("magic class: got %s ok=%v", got, ok)
	}

	if _, ok := det.Classify(event.Signal{
		Kind: event.SignalClick,
		Node: event.Node{Tag: "button", AriaLabel: "Close"},
	}); ok {
		t.Error("plain button should not classify")
	}
}
