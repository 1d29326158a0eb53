//go:build !ios && !android && (amd64 || arm64)

// Package live pushes diagnostic records to browser or tool clients over
// websockets as they are produced.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/showinfo"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10

	// queueSize bounds the records waiting for broadcast. When it is full
	// new records are dropped and counted.
	queueSize = 256
)

// Message is the JSON form of a record sent to clients.
type Message struct {
	Type          string    `json:"type"`
	N             uint64    `json:"n"`
	PTS           int64     `json:"pts"`
	PTSTime       float64   `json:"pts_time"`
	Pos           int64     `json:"pos"`
	Format        string    `json:"fmt"`
	SAR           string    `json:"sar"`
	Width         int       `json:"w"`
	Height        int       `json:"h"`
	Interlace     string    `json:"i"`
	KeyFrame      bool      `json:"iskey"`
	PictureType   string    `json:"type_char"`
	Checksum      uint32    `json:"checksum"`
	PlaneChecksum [4]uint32 `json:"plane_checksum"`
	Description   string    `json:"desc,omitempty"`
	Instance      string    `json:"instance,omitempty"`
	Line          string    `json:"line"`
}

// NewMessage converts a record to its JSON form.
func NewMessage(rec *showinfo.Record) Message {
	m := Message{
		Type:          "frame",
		N:             rec.N,
		PTS:           rec.PTS,
		PTSTime:       rec.PTSTime,
		Pos:           rec.Pos,
		Format:        rec.Format,
		SAR:           rec.SAR.String(),
		Width:         rec.Width,
		Height:        rec.Height,
		Interlace:     string(rec.Interlace),
		KeyFrame:      rec.KeyFrame,
		PictureType:   string(rec.PictureType),
		Checksum:      rec.Checksum,
		PlaneChecksum: rec.PlaneChecksums,
		Instance:      rec.Instance,
		Line:          rec.String(),
	}
	if rec.Description != nil {
		m.Description = *rec.Description
	}
	return m
}

// Server broadcasts records to websocket clients on /ws and reports its
// state on /healthz and /status.
type Server struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger
	statusFn func() map[string]any

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex

	queue   chan []byte
	done    chan struct{}
	closeMu sync.Once

	statsMu sync.Mutex
	sent    uint64
	dropped uint64
	last    *Message
}

// NewServer returns a server and starts its broadcast loop. statusFn, if
// set, contributes extra fields to /status.
func NewServer(logger *zap.Logger, statusFn func() map[string]any) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		statusFn: statusFn,
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		queue:    make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
	go s.broadcast()
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("live view listening", zap.String("addr", ln.Addr().String()))
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// EmitRecord queues rec for broadcast. It never blocks; records are
// dropped when clients cannot keep up.
func (s *Server) EmitRecord(rec *showinfo.Record) error {
	msg := NewMessage(rec)
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.statsMu.Lock()
	s.last = &msg
	s.statsMu.Unlock()

	select {
	case <-s.done:
		return errors.New("live: server closed")
	default:
	}
	select {
	case s.queue <- payload:
	default:
		s.statsMu.Lock()
		s.dropped++
		s.statsMu.Unlock()
	}
	return nil
}

// Close stops the broadcast loop and disconnects every client.
func (s *Server) Close() error {
	s.closeMu.Do(func() {
		close(s.done)
		s.mu.Lock()
		for conn := range s.clients {
			conn.Close()
		}
		s.clients = make(map[*websocket.Conn]*sync.Mutex)
		s.mu.Unlock()
	})
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = writeMu
	s.mu.Unlock()
	s.logger.Debug("live client connected", zap.String("remote", r.RemoteAddr))

	_ = s.writeJSON(conn, writeMu, map[string]any{"type": "hello", "status": s.status()})

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			// Clients only send control frames; anything else is ignored.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

func (s *Server) status() map[string]any {
	payload := map[string]any{}
	if s.statusFn != nil {
		if extra := s.statusFn(); extra != nil {
			for k, v := range extra {
				payload[k] = v
			}
		}
	}
	s.statsMu.Lock()
	payload["sent"] = s.sent
	payload["dropped"] = s.dropped
	if s.last != nil {
		payload["last"] = *s.last
	}
	s.statsMu.Unlock()
	payload["ws_clients"] = s.clientCount()
	return payload
}

func (s *Server) broadcast() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.queue:
			var stale []*websocket.Conn
			s.mu.Lock()
			for conn, writeMu := range s.clients {
				if err := s.writeMessage(conn, writeMu, websocket.TextMessage, payload); err != nil {
					stale = append(stale, conn)
				}
			}
			s.mu.Unlock()
			for _, conn := range stale {
				s.removeClient(conn)
			}
			s.statsMu.Lock()
			s.sent++
			s.statsMu.Unlock()
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}
