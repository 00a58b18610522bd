package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/pose"
	"github.com/ayusman/repcoach/internal/segment"
)

const (
	// maxFrameBytes bounds one incoming pose message.
	maxFrameBytes = 64 << 10

	// control frame payloads are limited to 125 bytes, two of which hold the code
	maxCloseReason = 123
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveHandler scores poses streamed over a WebSocket.
//
// Each text message from the client is one pose JSON object. The server
// answers every frame with a liveMessage carrying either the report or the
// error of that frame.
//
// Query parameters: smart=true enables re-anchoring, mode selects the scale
// mode, width and height give the screen size.
type LiveHandler struct {
	app *app.App
	log *slog.Logger
}

// NewLiveHandler creates a LiveHandler over a.
func NewLiveHandler(a *app.App, log *slog.Logger) *LiveHandler {
	return &LiveHandler{app: a, log: log}
}

type liveMessage struct {
	Report *app.Report `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// wsSource reads poses from a WebSocket connection.
type wsSource struct {
	conn *websocket.Conn
}

func (s *wsSource) Next() (pose.Pose, bool, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return pose.Pose{}, false, nil
		}
		return pose.Pose{}, false, err
	}

	var p pose.Pose
	if err := json.Unmarshal(data, &p); err != nil {
		return pose.Pose{}, false, err
	}
	return p, true, nil
}

func (s *wsSource) Close() error {
	return s.conn.Close()
}

func parseStreamOptions(r *http.Request, defaultMode segment.ScaleMode) (app.StreamOptions, error) {
	q := r.URL.Query()
	opts := app.StreamOptions{Mode: defaultMode}

	if v := q.Get("smart"); v != "" {
		smart, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("smart must be a boolean")
		}
		opts.Smart = smart
	}
	if v := q.Get("mode"); v != "" {
		mode, err := segment.ParseScaleMode(v)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	for key, dst := range map[string]*float64{"width": &opts.ScreenWidth, "height": &opts.ScreenHeight} {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, errors.New(key + " must be a number")
			}
			*dst = f
		}
	}
	return opts, nil
}

// ServeHTTP upgrades the request and scores frames until the client disconnects.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.app.Session(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	opts, err := parseStreamOptions(r, h.app.ScaleMode())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	src := &wsSource{conn: conn}
	defer src.Close()

	emit := func(report app.Report, frameErr error) error {
		msg := liveMessage{Report: &report}
		if frameErr != nil {
			msg = liveMessage{Error: frameErr.Error()}
		}
		return conn.WriteJSON(msg)
	}

	if err := h.app.Stream(r.Context(), id, src, opts, emit); err != nil {
		h.log.Debug("live stream closed", "session", id, "error", err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, closeReason(err.Error())))
	}
}

// closeReason truncates reason to fit a close frame without splitting a rune.
func closeReason(reason string) string {
	if len(reason) <= maxCloseReason {
		return reason
	}
	n := maxCloseReason
	for n > 0 && !utf8.RuneStart(reason[n]) {
		n--
	}
	return reason[:n]
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
