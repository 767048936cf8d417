package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posecoach/internal/server/api"
	"github.com/ayusman/posecoach/internal/session"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Live message types.
const (
	msgFrame       = "frame"
	msgFinish      = "finish"
	msgCancel      = "cancel"
	msgFrameResult = "frame_result"
	msgProgress    = "progress"
	msgSummary     = "summary"
	msgError       = "error"
)

// liveMessage is sent by the client. Type defaults to "frame".
type liveMessage struct {
	Type string `json:"type"`
	api.FrameRequest
}

// liveEvent is sent to the client.
type liveEvent struct {
	Type     string               `json:"type"`
	Result   *session.FrameRecord `json:"result,omitempty"`
	Progress *session.Progress    `json:"progress,omitempty"`
	Session  *session.Record      `json:"session,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// LiveHandler streams frames of one session over a WebSocket and replies with
// per-frame results and periodic progress.
type LiveHandler struct {
	manager *session.Manager
	logger  *slog.Logger
}

// NewLiveHandler creates a new LiveHandler for sessions of the given manager.
func NewLiveHandler(m *session.Manager, logger *slog.Logger) *LiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{manager: m, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests on /api/sessions/{id}/live.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/live")
	s, err := h.manager.Get(id)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if s.Status().Closed() {
		http.Error(w, "Session closed", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "err", err)
		return
	}
	defer conn.Close()

	h.logger.Debug("live client connected", "session", id)

	// Cancel sessions abandoned by their client; the partial aggregate is kept
	defer func() {
		if !s.Status().Closed() {
			if _, err := s.Cancel(); err == nil {
				h.logger.Info("live client disconnected, session cancelled", "session", id)
			}
		}
	}()

	interval := h.manager.ProgressInterval()
	lastReported := 0

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !h.send(conn, liveEvent{Type: msgError, Error: "invalid message: " + err.Error()}) {
				return
			}
			continue
		}

		switch msg.Type {
		case "", msgFrame:
			rec, err := s.Submit(msg.Frame, msg.Timestamp, msg.Landmarks)
			if err != nil {
				if !h.send(conn, liveEvent{Type: msgError, Error: err.Error()}) {
					return
				}
				continue
			}
			if !h.send(conn, liveEvent{Type: msgFrameResult, Result: &rec}) {
				return
			}

			p := s.Progress()
			if p.Processed/interval > lastReported/interval {
				lastReported = p.Processed
				if !h.send(conn, liveEvent{Type: msgProgress, Progress: &p}) {
					return
				}
			}

		case msgFinish, msgCancel:
			op := s.Finish
			if msg.Type == msgCancel {
				op = s.Cancel
			}
			rec, err := op()
			if err != nil {
				h.send(conn, liveEvent{Type: msgError, Error: err.Error()})
				return
			}
			h.send(conn, liveEvent{Type: msgSummary, Session: &rec})
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(rec.Status)),
				time.Now().Add(writeWait))
			return

		default:
			if !h.send(conn, liveEvent{Type: msgError, Error: "unknown message type " + msg.Type}) {
				return
			}
		}
	}
}

// send writes one event and reports whether the connection is still usable.
func (h *LiveHandler) send(conn *websocket.Conn, ev liveEvent) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("live write failed", "err", err)
		return false
	}
	return true
}
