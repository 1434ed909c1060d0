package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/rs/zerolog"
)

var testMonitorOpts = MonitorOptions{
	Debounce:       150 * time.Millisecond,
	Cooldown:       time.Second,
	HealthInterval: 5 * time.Second,
}

func testClock() *clock.TestClock {
	return &clock.TestClock{CurrentTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func assistantTurn() event.Signal {
	return event.Signal{
		TabID: 1,
		URL:   "https://chatgpt.com/",
		Kind:  event.SignalDOMAdded,
		Node:  event.Node{AuthorRole: "assistant"},
	}
}

func sendClick() event.Signal {
	return event.Signal{
		TabID: 1,
		URL:   "https://chatgpt.com/",
		Kind:  event.SignalClick,
		Node:  event.Node{Tag: "button", TestID: "send-button"},
	}
}

func TestMonitorDebouncesMutationBursts(t *testing.T) {
	clk := testClock()
	mon := NewMonitor(1, ForPlatform("ChatGPT"), clk, testMonitorOpts)

	if _, ok := mon.Observe(assistantTurn()); !ok {
		t.Fatal("first mutation should classify")
	}

	// Burst arrives inside the debounce window
	clk.Advance(50 * time.Millisecond)
	if _, ok := mon.Observe(assistantTurn()); ok {
		t.Error("mutation inside debounce window should coalesce")
	}

	// A burst keeps extending the window
	clk.Advance(100 * time.Millisecond)
	if _, ok := mon.Observe(assistantTurn()); ok {
		t.Error("burst continuation should still coalesce")
	}

	// Quiet period passes, cooldown too
	clk.Advance(2 * time.Second)
	if _, ok := mon.Observe(assistantTurn()); !ok {
		t.Error("mutation after quiet period should classify")
	}
}

func TestMonitorCooldownBetweenInteractions(t *testing.T) {
	clk := testClock()
	mon := NewMonitor(1, ForPlatform("ChatGPT"), clk, testMonitorOpts)

	if _, ok := mon.Observe(sendClick()); !ok {
		t.Fatal("first click should classify")
	}

	clk.Advance(500 * time.Millisecond)
	if _, ok := mon.Observe(sendClick()); ok {
		t.Error("click inside cooldown should be suppressed")
	}

	clk.Advance(600 * time.Millisecond)
	it, ok := mon.Observe(sendClick())
	if !ok {
		t.Fatal("click after cooldown should classify")
	}
	if it.Kind != event.MessageSent {
		t.Errorf("expected message_sent, got %s", it.Kind)
	}
	if it.TabID != 1 {
		t.Errorf("expected tab 1, got %d", it.TabID)
	}
}

func TestMonitorHealthCheckRearms(t *testing.T) {
	clk := testClock()
	mon := NewMonitor(1, ForPlatform("ChatGPT"), clk, testMonitorOpts)

	if _, ok := mon.Observe(sendClick()); !ok {
		t.Fatal("first click should classify")
	}

	if !mon.HealthCheck() {
		t.Error("fresh monitor should be healthy")
	}

	clk.Advance(6 * time.Second)
	if mon.HealthCheck() {
		t.Error("quiet monitor should report unhealthy")
	}

	// Re-armed: a click right after the sweep emits despite the
	// cooldown state that preceded it
	if _, ok := mon.Observe(sendClick()); !ok {
		t.Error("re-armed monitor should classify immediately")
	}
}

func TestBufferDropsOldestWhenFull(t *testing.T) {
	buf := NewBuffer(3)
	for i := 0; i < 5; i++ {
		buf.Push(event.Interaction{TabID: i})
	}

	if buf.Len() != 3 {
		t.Fatalf("expected 3 buffered, got %d", buf.Len())
	}
	items := buf.Drain()
	if items[0].TabID != 2 || items[2].TabID != 4 {
		t.Errorf("expected tabs 2..4 after eviction, got %+v", items)
	}
	if buf.Len() != 0 {
		t.Errorf("drain should empty the buffer, got %d", buf.Len())
	}
}

func testManagerConfig() config.DetectorConfig {
	return config.DetectorConfig{
		Debounce:            "150ms",
		ResponseCooldown:    "1s",
		HealthCheckInterval: "5s",
		BufferSize:          100,
		FlushInterval:       "60s",
		MonitorCacheSize:    16,
		MonitorTTL:          "10m",
	}
}

func TestManagerDeliversInteractions(t *testing.T) {
	var delivered []event.Interaction
	sink := func(_ context.Context, it event.Interaction) error {
		delivered = append(delivered, it)
		return nil
	}

	mgr, err := NewManager(testManagerConfig(), testClock(), zerolog.Nop(), sink)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	mgr.Handle(context.Background(), sendClick(), "ChatGPT")
	if len(delivered) != 1 {
		t.Fatalf("expected 1 delivered interaction, got %d", len(delivered))
	}
	if delivered[0].Kind != event.MessageSent {
		t.Errorf("expected message_sent, got %s", delivered[0].Kind)
	}
}

func TestManagerReplacesMonitorOnPlatformChange(t *testing.T) {
	clk := testClock()
	var delivered []event.Interaction
	sink := func(_ context.Context, it event.Interaction) error {
		delivered = append(delivered, it)
		return nil
	}

	mgr, err := NewManager(testManagerConfig(), clk, zerolog.Nop(), sink)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	mgr.Handle(context.Background(), sendClick(), "ChatGPT")

	// Same tab navigates to Claude; the fresh monitor carries no
	// cooldown state from the previous platform
	claudeClick := event.Signal{
		TabID: 1,
		URL:   "https://claude.ai/chat",
		Kind:  event.SignalClick,
		Node:  event.Node{Tag: "button", AriaLabel: "Send message"},
	}
	mgr.Handle(context.Background(), claudeClick, "Claude")

	if len(delivered) != 2 {
		t.Fatalf("expected 2 delivered interactions, got %d", len(delivered))
	}
}

func TestManagerBuffersFailedDeliveries(t *testing.T) {
	clk := testClock()
	failing := true
	var delivered []event.Interaction
	sink := func(_ context.Context, it event.Interaction) error {
		if failing {
			return errors.New("tracker unavailable")
		}
		delivered = append(delivered, it)
		return nil
	}

	mgr, err := NewManager(testManagerConfig(), clk, zerolog.Nop(), sink)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	mgr.Handle(context.Background(), sendClick(), "ChatGPT")
	if mgr.Pending() != 1 {
		t.Fatalf("expected 1 pending interaction, got %d", mgr.Pending())
	}

	failing = false
	mgr.Flush(context.Background())
	if mgr.Pending() != 0 {
		t.Errorf("expected empty retry buffer after flush, got %d", mgr.Pending())
	}
	if len(delivered) != 1 {
		t.Errorf("expected 1 redelivered interaction, got %d", len(delivered))
	}
}
