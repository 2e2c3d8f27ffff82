package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/commercekit/chrome/pkg/analytics"
	"github.com/commercekit/chrome/pkg/search"
)

// Server exposes the search engine over HTTP and WebSocket.
type Server struct {
	engine    *search.Engine
	analytics *analytics.Store
	registry  *prometheus.Registry
	logger    *zap.Logger

	wsUpgrader websocket.Upgrader
}

// APIResponse is the envelope for every JSON endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer wires the HTTP layer over the engine and analytics store.
func NewServer(engine *search.Engine, store *analytics.Store, registry *prometheus.Registry, logger *zap.Logger) *Server {
	return &Server{
		engine:    engine,
		analytics: store,
		registry:  registry,
		logger:    logger,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The dashboard fronts this service behind its own origin.
				return true
			},
		},
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/groups", s.handleGroups).Methods("GET")
	api.HandleFunc("/visit", s.handleVisit).Methods("POST")
	api.HandleFunc("/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/ws", s.handleWebSocket)

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	if s.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return router
}

// handleSearch runs one synchronous search, bypassing the debounce store.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	groups := search.GroupResults(s.engine.Aggregator().Search(ctx, query))
	s.sendJSON(w, APIResponse{Success: true, Data: groups})
}

// handleGroups returns the store's last computed groups.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.engine.Store().Groups()
	if groups == nil {
		groups = []search.Group{}
	}
	s.sendJSON(w, APIResponse{Success: true, Data: groups})
}

type visitRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (s *Server) handleVisit(w http.ResponseWriter, r *http.Request) {
	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.sendError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := s.analytics.RecordVisit(analytics.PageVisit{URL: req.URL, Title: req.Title, At: time.Now()}); err != nil {
		s.logger.Error("record visit failed", zap.String("url", req.URL), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "could not record visit")
		return
	}
	s.sendJSON(w, APIResponse{Success: true})
}

type loginRequest struct {
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	URL          string `json:"url"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MerchantID == "" {
		s.sendError(w, http.StatusBadRequest, "merchant_id is required")
		return
	}
	login := analytics.Login{
		MerchantID:   req.MerchantID,
		MerchantName: req.MerchantName,
		URL:          req.URL,
		At:           time.Now(),
	}
	if err := s.analytics.RecordLogin(login); err != nil {
		s.logger.Error("record login failed", zap.String("merchant_id", req.MerchantID), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "could not record login")
		return
	}
	s.sendJSON(w, APIResponse{Success: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, APIResponse{Success: true, Data: map[string]int{
		"indexed_docs": int(s.engine.Index().DocCount()),
	}})
}

// wsQueryMessage is what the dashboard sends per keystroke.
type wsQueryMessage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// wsGroupsMessage streams fresh result groups back.
type wsGroupsMessage struct {
	Type   string         `json:"type"`
	Query  string         `json:"query"`
	Groups []search.Group `json:"groups"`
}

// handleWebSocket streams keystrokes into the reactive store and pushes
// recomputed groups back. One goroutine reads, the store's subscriber
// callback writes; a mutex serializes writes on the shared connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session := uuid.New().String()
	logger := s.logger.With(zap.String("ws_session", session))
	logger.Debug("websocket connected")

	var (
		writeMu sync.Mutex
		closed  bool
	)
	store := s.engine.Store()
	unsubscribe := store.Subscribe(func(groups []search.Group) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if closed {
			return
		}
		msg := wsGroupsMessage{Type: "groups", Query: store.Query(), Groups: groups}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			closed = true
		}
	})
	defer func() {
		unsubscribe()
		writeMu.Lock()
		closed = true
		writeMu.Unlock()
	}()

	for {
		var msg wsQueryMessage
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Debug("websocket closed", zap.Error(err))
			return
		}
		if msg.Type == "query" {
			store.SetRawQuery(msg.Value)
		}
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encoding failed", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: msg})
}
