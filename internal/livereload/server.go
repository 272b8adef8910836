// Package livereload implements a LiveReload protocol 7 server: browsers
// connect over a websocket and are told to reload when outputs change.
package livereload

import (
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultAddr is the port browser extensions connect to.
	DefaultAddr = ":35729"

	protocolV7 = "http://livereload.com/protocols/official-7"
	serverName = "assetpipe"

	handshakeTimeout = 3 * time.Second
	readBufferSize   = 4_000
	writeBufferSize  = 4_000
	writeWait        = 5 * time.Second
	sendQueue        = 16
)

//go:embed client/livereload.js
var clientScript []byte

// message is the union of all protocol messages.
type message struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols,omitempty"`
	ServerName string   `json:"serverName,omitempty"`
	Path       string   `json:"path,omitempty"`
	LiveCSS    bool     `json:"liveCSS,omitempty"`
	URL        string   `json:"url,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server tracks connected browsers and broadcasts reload commands.
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// New creates a server. A nil logger disables logging.
func New(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log: log.Named("livereload"),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: handshakeTimeout,
			ReadBufferSize:   readBufferSize,
			WriteBufferSize:  writeBufferSize,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP surface of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWelcome)
	mux.HandleFunc("/livereload", s.handleSocket)
	mux.HandleFunc("/livereload.js", s.handleScript)
	mux.HandleFunc("/changed", s.handleChanged)
	return mux
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then disconnects all clients.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: handshakeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every client. Later connections are refused.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Reload tells every connected browser that paths changed. CSS files are
// swapped in place by the client; anything else reloads the page.
func (s *Server) Reload(paths ...string) {
	for _, p := range paths {
		data, err := json.Marshal(message{Command: "reload", Path: p, LiveCSS: true})
		if err != nil {
			s.log.Error("encode reload", zap.Error(err))
			continue
		}
		s.broadcast(data)
		s.log.Debug("reload", zap.String("path", p))
	}
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.log.Warn("client is not keeping up, dropping message",
				zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	if !s.register(c) {
		_ = conn.Close()
		return
	}
	s.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer s.unregister(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			s.log.Debug("client disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("ignoring malformed message", zap.Error(err))
			continue
		}
		switch msg.Command {
		case "hello":
			reply, _ := json.Marshal(message{
				Command:    "hello",
				Protocols:  []string{protocolV7},
				ServerName: serverName,
			})
			s.mu.Lock()
			if _, ok := s.clients[c]; ok {
				select {
				case c.send <- reply:
				default:
				}
			}
			s.mu.Unlock()
		case "info":
			s.log.Debug("client info", zap.String("url", msg.URL))
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"livereload": "Welcome", "server": serverName})
}

func (s *Server) handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write(clientScript)
}

// handleChanged triggers a reload from outside, e.g. an editor hook.
// Files come from the "files" query parameter (comma separated) or a JSON
// body {"files": [...]}.
func (s *Server) handleChanged(w http.ResponseWriter, r *http.Request) {
	files := []string{}
	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	for _, f := range strings.Split(r.URL.Query().Get("files"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		var body struct {
			Files []string `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		files = append(files, body.Files...)
	}

	s.Reload(files...)
	writeJSON(w, http.StatusOK, map[string]any{"clients": s.Clients(), "files": files})
}
