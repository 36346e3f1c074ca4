// Package dashboard serves the browser dashboard: a server-rendered page,
// a JSON state API, WebSocket push of every new snapshot and the control
// endpoints that forward operator actions to the dispatcher.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"botdash/internal/control"
	"botdash/internal/model"
	"botdash/internal/storage"
	"botdash/internal/synchronizer"
	"botdash/internal/view"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Source is the read side of the synchronizer.
type Source interface {
	Snapshot() synchronizer.Snapshot
	Subscribe() (<-chan synchronizer.Snapshot, func())
	SetInterval(iv model.Interval) error
}

// Preferences persists the control panel draft and reads the command journal.
type Preferences interface {
	LoadPreferences() (storage.Preferences, error)
	SaveDraft(symbol string, mode model.TradingMode) error
	RecentCommands(limit int) ([]storage.CommandRecord, error)
	CommandsInRange(start, end time.Time) ([]storage.CommandRecord, error)
}

type ClientObserver interface {
	ClientsChanged(n int)
}

// client serialises writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Server is the web dashboard.
type Server struct {
	source     Source
	dispatcher *control.Dispatcher
	prefs      Preferences
	observer   ClientObserver
	symbols    []string

	server   *http.Server
	router   *mux.Router
	upgrader websocket.Upgrader

	clients   map[*client]bool
	clientsMu sync.RWMutex

	draftMu sync.Mutex
	draft   control.Draft

	stopChannel chan struct{}
	isRunning   bool
	mu          sync.Mutex
}

// New builds the dashboard and its routes. symbols are the choices offered
// by the control panel.
func New(source Source, dispatcher *control.Dispatcher, symbols []string, port int) *Server {
	s := &Server{
		source:      source,
		dispatcher:  dispatcher,
		symbols:     symbols,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:     make(map[*client]bool),
		stopChannel: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/partials/dashboard", s.handlePartial).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/commands", s.handleCommands).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/control/config", s.handleConfig).Methods(http.MethodPost)
	api.HandleFunc("/control/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/control/stop", s.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/control/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/control/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/interval", s.handleInterval).Methods(http.MethodPost)

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// SetPreferences restores the saved draft and persists later edits to p.
func (s *Server) SetPreferences(p Preferences) {
	s.prefs = p
	if p == nil {
		return
	}
	saved, err := p.LoadPreferences()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load saved preferences")
		return
	}
	s.draftMu.Lock()
	s.draft = control.Draft{Symbol: saved.Symbol, Mode: saved.Mode}
	s.draftMu.Unlock()
}

func (s *Server) SetObserver(o ClientObserver) {
	s.observer = o
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and pushing snapshots to WebSocket clients.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	updates, unsubscribe := s.source.Subscribe()
	go s.clientBroadcaster(updates, unsubscribe)

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	return nil
}

// Stop closes every client and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)

	s.clientsMu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]bool)
	s.clientsMu.Unlock()
	s.clientsChanged()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

func (s *Server) clientBroadcaster(updates <-chan synchronizer.Snapshot, unsubscribe func()) {
	defer unsubscribe()
	for {
		select {
		case snap := <-updates:
			s.broadcast(s.payload(snap))
		case <-s.stopChannel:
			return
		}
	}
}

func (s *Server) broadcast(p statePayload) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal state for broadcast")
		return
	}

	s.clientsMu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			log.Debug().Err(err).Msg("Dropping WebSocket client")
			s.removeClient(c)
		}
	}
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()
	s.clientsChanged()
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()
	if ok {
		c.conn.Close()
		s.clientsChanged()
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) clientsChanged() {
	if s.observer != nil {
		s.observer.ClientsChanged(s.ClientCount())
	}
}

type intervalOption struct {
	Code     model.Interval `json:"code"`
	Label    string         `json:"label"`
	Selected bool           `json:"selected"`
}

type draftPayload struct {
	Symbol string            `json:"selectedSymbol"`
	Mode   model.TradingMode `json:"tradingMode"`
}

type statePayload struct {
	Dashboard view.Dashboard   `json:"dashboard"`
	Draft     draftPayload     `json:"draft"`
	Symbols   []string         `json:"symbols"`
	Modes     []modeOption     `json:"modes"`
	Intervals []intervalOption `json:"intervals"`
}

type modeOption struct {
	Code  model.TradingMode `json:"code"`
	Label string            `json:"label"`
}

func (s *Server) payload(snap synchronizer.Snapshot) statePayload {
	p := statePayload{
		Dashboard: view.Build(snap),
		Draft:     s.currentDraft(snap),
		Symbols:   s.symbols,
		Modes: []modeOption{
			{Code: model.ModeTrading, Label: model.ModeTrading.Label()},
			{Code: model.ModeTraining, Label: model.ModeTraining.Label()},
		},
	}
	for _, iv := range model.PanelIntervals {
		p.Intervals = append(p.Intervals, intervalOption{Code: iv, Label: iv.Label(), Selected: iv == snap.Interval})
	}
	return p
}

// currentDraft fills unset draft fields from the backend config.
func (s *Server) currentDraft(snap synchronizer.Snapshot) draftPayload {
	s.draftMu.Lock()
	d := s.draft
	s.draftMu.Unlock()

	if d.Symbol == "" {
		d.Symbol = snap.Config.SelectedSymbol
	}
	if d.Mode == "" {
		d.Mode = snap.Config.TradingMode
	}
	return draftPayload{Symbol: d.Symbol, Mode: d.Mode}
}

func (s *Server) setDraft(d control.Draft) {
	s.draftMu.Lock()
	s.draft = d
	s.draftMu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SaveDraft(d.Symbol, d.Mode); err != nil {
			log.Warn().Err(err).Msg("Failed to persist config draft")
		}
	}
}
