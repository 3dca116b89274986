// Package tuning serves live atmosphere parameter edits over a websocket.
package tuning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sky/internal/atmosphere"
	"github.com/Faultbox/midgard-sky/internal/config"
)

// Message types.
const (
	TypeGet    = "get"
	TypeUpdate = "update"
	TypeParams = "params"
	TypeAck    = "ack"
	TypeError  = "error"
)

// Error kinds reported to clients.
const (
	KindInvalidParameters = "invalid_parameters"
	KindStaticMode        = "static_mode"
	KindBadRequest        = "bad_request"
)

// Request is a client message.
type Request struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"` // Partial atmosphere settings
}

// Response is a server message.
type Response struct {
	Type       string                   `json:"type"`
	Atmosphere *config.AtmosphereConfig `json:"atmosphere,omitempty"`
	Kind       string                   `json:"kind,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

// Server accepts parameter updates and queues them on a scheduler.
type Server struct {
	sched *atmosphere.Scheduler
	log   *zap.Logger

	upgrader websocket.Upgrader

	mu   sync.Mutex // Serializes read-modify-submit
	base config.AtmosphereConfig

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex
}

// New creates a server. base supplies the settings that parameters alone
// do not describe, such as the mode and day cycle.
func New(sched *atmosphere.Scheduler, base config.AtmosphereConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		sched: sched,
		log:   log,
		base:  base,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler returns the HTTP routes: /ws for the websocket and /params for
// a one-shot JSON read of the current settings.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/params", s.handleParams)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tuning listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.log.Info("tuning server listening", zap.String("addr", ln.Addr().String()))
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

// Current returns the settings the next frame will render with.
func (s *Server) Current() config.AtmosphereConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Server) currentLocked() config.AtmosphereConfig {
	cfg := s.base
	cfg.FromParameters(s.sched.Latest())
	return cfg
}

// Apply merges a partial JSON settings object onto the current settings
// and queues the result for the next frame.
func (s *Server) Apply(partial json.RawMessage) (config.AtmosphereConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.currentLocked()
	if len(partial) > 0 {
		if err := json.Unmarshal(partial, &cfg); err != nil {
			return config.AtmosphereConfig{}, fmt.Errorf("decode params: %w", err)
		}
	}
	// The mode is fixed for the lifetime of the model.
	cfg.Mode = s.base.Mode
	params, err := cfg.Parameters()
	if err != nil {
		return config.AtmosphereConfig{}, err
	}
	if err := s.sched.Submit(params); err != nil {
		return config.AtmosphereConfig{}, err
	}
	s.base.DayCycle = cfg.DayCycle
	return cfg, nil
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := s.Current()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	s.log.Debug("tuning client connected", zap.String("remote", r.RemoteAddr))

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.send(conn, errorResponse(KindBadRequest, err))
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("tuning client read failed", zap.Error(err))
			}
			return
		}
		s.handleRequest(conn, req)
	}
}

func (s *Server) handleRequest(conn *websocket.Conn, req Request) {
	switch req.Type {
	case TypeGet:
		cfg := s.Current()
		s.send(conn, Response{Type: TypeParams, Atmosphere: &cfg})

	case TypeUpdate:
		cfg, err := s.Apply(req.Params)
		if err != nil {
			s.log.Info("tuning update rejected", zap.Error(err))
			s.send(conn, errorResponse(errorKind(err), err))
			return
		}
		s.send(conn, Response{Type: TypeAck, Atmosphere: &cfg})
		s.broadcast(conn, Response{Type: TypeParams, Atmosphere: &cfg})

	default:
		s.send(conn, errorResponse(KindBadRequest, fmt.Errorf("unknown message type %q", req.Type)))
	}
}

func (s *Server) send(conn *websocket.Conn, resp Response) {
	s.clientsMu.RLock()
	mu, ok := s.clients[conn]
	s.clientsMu.RUnlock()
	if !ok {
		return
	}

	mu.Lock()
	err := conn.WriteJSON(resp)
	mu.Unlock()
	if err != nil {
		s.log.Debug("tuning write failed", zap.Error(err))
	}
}

// broadcast sends resp to every client except skip.
func (s *Server) broadcast(skip *websocket.Conn, resp Response) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for conn, mu := range s.clients {
		if conn == skip {
			continue
		}
		mu.Lock()
		err := conn.WriteJSON(resp)
		mu.Unlock()
		if err != nil {
			s.log.Debug("tuning broadcast failed", zap.Error(err))
		}
	}
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for conn := range s.clients {
		conn.Close()
	}
}

func errorResponse(kind string, err error) Response {
	return Response{Type: TypeError, Kind: kind, Message: err.Error()}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, atmosphere.ErrStaticModeViolation):
		return KindStaticMode
	case errors.Is(err, atmosphere.ErrInvalidParameters):
		return KindInvalidParameters
	default:
		return KindBadRequest
	}
}
