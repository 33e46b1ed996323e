// Package devserver serves a rendered page for local editing: the page itself,
// the browser runtime, a websocket that mirrors bound values into a store and
// pushes reloads when the schema file changes.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/goliatone/go-cmsform/pkg/binding"
	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/render"
)

// Paths served by the Server.
const (
	RuntimePath = "/runtime/"
	LivePath    = "/ws"
	ValuesPath  = "/values"
	HealthPath  = "/health"
)

// MessageType tags websocket messages.
type MessageType string

const (
	// MessageBinding carries one bound control value from the browser.
	MessageBinding MessageType = "binding"
	// MessageReload asks connected pages to reload.
	MessageReload MessageType = "reload"
)

// Message is the websocket wire format.
type Message struct {
	Type  MessageType `json:"type"`
	Key   string      `json:"key,omitempty"`
	Value string      `json:"value,omitempty"`
}

// LoadFunc produces the page to serve. It runs once on startup and again on
// every Reload.
type LoadFunc func(ctx context.Context) (render.Page, error)

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080". Port 0 picks a free
	// port; see Addr.
	Addr     string
	Load     LoadFunc
	Renderer render.Renderer
	Options  render.RenderOptions
	// Assets is served under RuntimePath.
	Assets fs.FS
	// FormOptions must match the renderer's so the headless copy used to
	// seed the store binds the same attribute and codec.
	FormOptions     []form.Option
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// Server is the development HTTP server.
type Server struct {
	cfg    Config
	logger *zap.Logger

	mu    sync.RWMutex
	page  render.Page
	store *binding.Store

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]struct{}

	listener net.Listener
	server   *http.Server
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New validates cfg and loads the initial page.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Load == nil {
		return nil, errors.New("devserver: load func is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("devserver: renderer is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	serverCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger.Named("devserver"),
		clients: make(map[*websocket.Conn]struct{}),
		ctx:     serverCtx,
		cancel:  cancel,
	}
	if err := s.Reload(ctx); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

// Handler returns the routes without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	if s.cfg.Assets != nil {
		mux.Handle(RuntimePath, http.StripPrefix(RuntimePath, http.FileServer(http.FS(s.cfg.Assets))))
	}
	mux.HandleFunc(ValuesPath, s.handleValues)
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.HandleFunc(LivePath, s.handleWebSocket)
	return mux
}

// Start listens on Config.Addr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("devserver: listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve", zap.Error(err))
		}
	}()
	return nil
}

// Stop closes websocket clients and shuts the HTTP server down gracefully.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("devserver: shutdown: %w", err)
	}
	s.wg.Wait()
	s.logger.Info("stopped")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Store returns the binding store for the current page.
func (s *Server) Store() *binding.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Reload runs the load func again and reseeds the store from a headless build
// of the new page.
func (s *Server) Reload(ctx context.Context) error {
	page, err := s.cfg.Load(ctx)
	if err != nil {
		return fmt.Errorf("devserver: load page: %w", err)
	}
	page = s.cfg.Options.Apply(page)

	builder := form.NewBuilder(s.cfg.FormOptions...)
	store := binding.NewStore(binding.WithAttribute(builder.BindAttribute()), binding.WithLogger(s.logger))
	for _, panel := range page.Panels {
		doc := dom.New()
		container := doc.Append(doc.Body(), doc.CreateElement("div"))
		f, err := builder.Build(doc, panel.Schema, container, panel.Title)
		if err != nil {
			return fmt.Errorf("devserver: build panel %q: %w", panel.Title, err)
		}
		if err := store.Seed(doc, f.Fieldset()); err != nil {
			return fmt.Errorf("devserver: seed store: %w", err)
		}
	}

	s.mu.Lock()
	s.page = page
	s.store = store
	s.mu.Unlock()
	s.logger.Debug("page loaded", zap.Int("panels", len(page.Panels)))
	return nil
}

// Refresh reloads the page and tells connected clients to reload. A failed
// load keeps serving the previous page.
func (s *Server) Refresh(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("reload failed", zap.Error(err))
		return err
	}
	s.Broadcast(ctx, Message{Type: MessageReload})
	return nil
}

// Broadcast writes msg to every connected client, dropping clients whose
// write fails.
func (s *Server) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("marshal broadcast", zap.Error(err))
		return
	}
	s.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		clients = append(clients, conn)
	}
	s.clientsMu.RUnlock()

	for _, conn := range clients {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			s.logger.Warn("broadcast write failed", zap.Error(err))
			s.removeClient(conn)
		}
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()

	out, err := s.cfg.Renderer.Render(r.Context(), page, render.RenderOptions{Theme: s.cfg.Options.Theme})
	if err != nil {
		s.logger.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.cfg.Renderer.ContentType())
	_, _ = w.Write(out)
}

func (s *Server) handleValues(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Store().Values())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Info("client connected", zap.Int("clients", count))

	s.readLoop(conn)
}

// readLoop applies binding messages until the client goes away.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		typ, data, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			s.logger.Warn("dropping binary message")
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("dropping malformed message", zap.Error(err))
			continue
		}
		switch msg.Type {
		case MessageBinding:
			if msg.Key == "" {
				s.logger.Warn("dropping binding without key")
				continue
			}
			s.Store().Set(msg.Key, msg.Value)
		default:
			s.logger.Warn("dropping message", zap.String("type", string(msg.Type)))
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, exists := s.clients[conn]
	delete(s.clients, conn)
	count := len(s.clients)
	s.clientsMu.Unlock()
	if !exists {
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Info("client disconnected", zap.Int("clients", count))
}
