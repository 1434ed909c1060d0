package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/EdwardH92/CliffDive/internal/metrics"
	"github.com/EdwardH92/CliffDive/internal/platform"
	"github.com/EdwardH92/CliffDive/internal/tracker"
)

// Envelope is the extension message envelope. Fields beyond type,
// tabId and url are populated per message type.
type Envelope struct {
	Type     string                 `json:"type"`
	TabID    int                    `json:"tabId"`
	URL      string                 `json:"url,omitempty"`
	Subtype  string                 `json:"subtype,omitempty"`
	Platform string                 `json:"platform,omitempty"`
	Settings *tracker.PrivacyPatch  `json:"settings,omitempty"`
	Signal   *event.Signal          `json:"signal,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Analytics())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "malformed message envelope",
		})
		return
	}

	if !s.limiter.Allow(env.TabID) {
		metrics.RateLimitedMessages.Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"success": false,
			"error":   "rate limit exceeded",
		})
		return
	}

	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.MessagesTotal.WithLabelValues(env.Type, outcome).Inc()
		metrics.MessageDuration.WithLabelValues(env.Type).Observe(time.Since(start).Seconds())
	}()

	ctx := r.Context()

	switch env.Type {
	case "AI_INTERACTION":
		kind := event.InteractionKind(env.Subtype)
		if !kind.Valid() {
			outcome = "error"
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"error":   "unknown interaction subtype",
			})
			return
		}
		updated, err := s.tracker.Record(ctx, event.Interaction{
			TabID: env.TabID,
			Kind:  kind,
			URL:   env.URL,
			At:    s.clk.Now(),
		})
		if err != nil {
			outcome = "error"
			s.logger.Error().Err(err).Str("request_id", requestIDFrom(ctx)).Msg("Interaction record failed")
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":        err == nil,
			"sessionUpdated": updated,
		})

	case "GET_ANALYTICS":
		writeJSON(w, http.StatusOK, s.tracker.Analytics())

	case "PLATFORM_DETECTED":
		s.tracker.EnsureSession(ctx, env.TabID, env.URL)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "UPDATE_PRIVACY_SETTINGS":
		if env.Settings == nil {
			outcome = "error"
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"error":   "missing settings",
			})
			return
		}
		settings, err := s.tracker.UpdatePrivacy(ctx, *env.Settings)
		if err != nil {
			outcome = "error"
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"settings": settings,
		})

	case "FORCE_END_SESSIONS":
		n := s.tracker.ForceEndAll()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"sessionsEnded": n,
		})

	case "CLEAR_DATA":
		if err := s.tracker.ClearData(ctx); err != nil {
			outcome = "error"
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "TAB_CLOSED":
		s.tracker.TabClosed(ctx, env.TabID)
		s.manager.Forget(env.TabID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "TAB_FOCUSED":
		s.tracker.TabFocused(env.TabID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "PAGE_SIGNAL":
		if env.Signal == nil {
			outcome = "error"
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"error":   "missing signal",
			})
			return
		}
		sig := *env.Signal
		if sig.TabID == 0 {
			sig.TabID = env.TabID
		}
		if sig.URL == "" {
			sig.URL = env.URL
		}
		name := env.Platform
		if name == "" {
			match, ok := platform.Detect(sig.URL)
			if !ok {
				writeJSON(w, http.StatusOK, map[string]any{"success": true})
				return
			}
			name = match.Name
		}
		s.manager.Handle(ctx, sig, name)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		outcome = "unknown"
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "Unknown message type",
		})
	}
}
