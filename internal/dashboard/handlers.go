package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"botdash/internal/backend"
	"botdash/internal/control"
	"botdash/internal/model"
	"botdash/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type commandResponse struct {
	OK      bool          `json:"ok"`
	Level   control.Level `json:"level,omitempty"`
	Message string        `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, commandResponse{OK: false, Level: control.LevelError, Message: msg})
}

// decodeRequest reads and validates a JSON body, answering 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeCommandResult maps a dispatcher outcome to a status code. The body
// carries the notice the dispatcher produced, if any.
func writeCommandResult(w http.ResponseWriter, rec *control.Recorder, err error) {
	resp := commandResponse{OK: err == nil, Level: rec.Last.Level, Message: rec.Last.Message}

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, control.ErrBotRunning), backend.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, control.ErrResetDeclined):
		status = http.StatusPreconditionFailed
		resp.Message = "Reset requires confirmation."
	default:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "page", s.payload(s.source.Snapshot()))
}

func (s *Server) handlePartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, "dashboard", s.payload(s.source.Snapshot()))
}

func (s *Server) render(w http.ResponseWriter, name string, p statePayload) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.ExecuteTemplate(w, name, p); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render dashboard")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.payload(s.source.Snapshot()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	var (
		records []storage.CommandRecord
		err     error
	)
	q := r.URL.Query()
	if q.Has("from") || q.Has("to") {
		start, end, perr := parseRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		records, err = s.prefs.CommandsInRange(start, end)
	} else {
		records, err = s.prefs.RecentCommands(50)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read command journal.")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// parseRange reads RFC 3339 bounds. A missing from means the epoch and a
// missing to means now.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, end := time.Unix(0, 0), time.Now()
	var err error
	if from != "" {
		if start, err = time.Parse(time.RFC3339, from); err != nil {
			return start, end, fmt.Errorf("invalid from %q: want RFC 3339", from)
		}
	}
	if to != "" {
		if end, err = time.Parse(time.RFC3339, to); err != nil {
			return start, end, fmt.Errorf("invalid to %q: want RFC 3339", to)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("from must not be after to")
	}
	return start, end, nil
}

type configRequest struct {
	SelectedSymbol string `json:"selectedSymbol" validate:"required"`
	TradingMode    string `json:"tradingMode" validate:"required,oneof=TRADING TRAINING"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	mode, err := model.ParseTradingMode(req.TradingMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !slices.Contains(s.symbols, req.SelectedSymbol) {
		writeError(w, http.StatusBadRequest, "Unknown symbol "+req.SelectedSymbol+".")
		return
	}

	snap := s.source.Snapshot()
	if !snap.HasConfig {
		writeError(w, http.StatusServiceUnavailable, "Bot status not loaded yet.")
		return
	}

	draft := control.Draft{Symbol: req.SelectedSymbol, Mode: mode}
	if !snap.Config.IsRunning() {
		s.setDraft(draft)
	}

	rec := &control.Recorder{}
	err = s.dispatcher.WithNotifier(rec).UpdateConfig(r.Context(), snap.Config, draft)
	writeCommandResult(w, rec, err)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	rec := &control.Recorder{}
	err := s.dispatcher.WithNotifier(rec).Start(r.Context(), snap.Config, snap.Interval)
	writeCommandResult(w, rec, err)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	rec := &control.Recorder{}
	err := s.dispatcher.WithNotifier(rec).Stop(r.Context())
	writeCommandResult(w, rec, err)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	if !snap.HasConfig {
		writeError(w, http.StatusServiceUnavailable, "Bot status not loaded yet.")
		return
	}
	rec := &control.Recorder{}
	err := s.dispatcher.WithNotifier(rec).Toggle(r.Context(), snap.Config, snap.Interval)
	writeCommandResult(w, rec, err)
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
	}
	snap := s.source.Snapshot()
	switch {
	case snap.HasConfig && !snap.Config.IsTraining():
		writeError(w, http.StatusConflict, "Reset is only available in "+string(model.ModeTraining)+" mode.")
		return
	case snap.Config.IsRunning():
		writeError(w, http.StatusConflict, "Stop the bot before resetting its data.")
		return
	}
	rec := &control.Recorder{}
	err := s.dispatcher.WithNotifier(rec).Reset(r.Context(), control.Confirmed(req.Confirm))
	writeCommandResult(w, rec, err)
}

type intervalRequest struct {
	Interval string `json:"interval" validate:"required"`
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	iv, err := model.ParseInterval(req.Interval)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.source.SetInterval(iv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{OK: true, Level: control.LevelSuccess, Message: "Chart interval set to " + iv.Label() + "."})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	c := &client{conn: conn}
	s.addClient(c)
	defer s.removeClient(c)

	// Send initial state
	if data, err := json.Marshal(s.payload(s.source.Snapshot())); err == nil {
		if err := c.write(data); err != nil {
			return
		}
	}

	// Keep connection alive until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
