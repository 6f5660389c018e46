package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"toll-console/internal/console"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	outboxSize = 64
)

// frame is every server-to-browser message.
type frame struct {
	Type    string            `json:"type"`
	Page    string            `json:"page,omitempty"`
	State   any               `json:"state,omitempty"`
	Message string            `json:"message,omitempty"`
	Samples []ForwardedSample `json:"samples,omitempty"`
}

type wsHub struct {
	log *slog.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
	last     []ForwardedSample
}

func newHub(log *slog.Logger) *wsHub {
	return &wsHub{log: log, sessions: make(map[*session]struct{})}
}

func (h *wsHub) add(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	last := h.last
	h.mu.Unlock()
	// New consoles see the latest batch right away.
	if len(last) > 0 {
		s.send(frame{Type: "ingest", Samples: last})
	}
}

func (h *wsHub) remove(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

func (h *wsHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *wsHub) broadcast(samples []ForwardedSample) {
	h.mu.Lock()
	h.last = samples
	targets := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()
	for _, s := range targets {
		s.send(frame{Type: "ingest", Samples: samples})
	}
}

// consoleHandler upgrades browsers to a console session. Sessions live
// until the browser leaves or ctx is cancelled.
type consoleHandler struct {
	ctx      context.Context
	hub      *wsHub
	deps     console.Deps
	log      *slog.Logger
	upgrader websocket.Upgrader
	sessions sync.WaitGroup
}

func newConsoleHandler(ctx context.Context, hub *wsHub, deps console.Deps, log *slog.Logger, allowedOrigins []string) *consoleHandler {
	return &consoleHandler{
		ctx:  ctx,
		hub:  hub,
		deps: deps,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *consoleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade error", "err", err)
		return
	}
	h.sessions.Add(1)
	defer h.sessions.Done()
	s := newSession(h.ctx, conn, h.deps, h.log)
	h.hub.add(s)
	s.log.Info("console connected", "remote", r.RemoteAddr)

	go s.writePump()
	s.readPump()

	h.hub.remove(s)
	s.log.Info("console disconnected")
}

// wait blocks until every session has unmounted its pages, or ctx is done.
// Hijacked connections are not tracked by http.Server.Shutdown.
func (h *consoleHandler) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// session is one browser tab. Pages mark themselves dirty on any change and
// the single writer sends one state frame per dirty page.
type session struct {
	id     string
	conn   *websocket.Conn
	deps   console.Deps
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	pages map[string]console.Page
	dirty map[string]struct{}

	wake   chan struct{}
	outbox chan frame
	closed chan struct{}
}

func newSession(parent context.Context, conn *websocket.Conn, deps console.Deps, log *slog.Logger) *session {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	l := log.With("session", id)
	deps.Log = l
	return &session{
		id:     id,
		conn:   conn,
		deps:   deps,
		log:    l,
		ctx:    ctx,
		cancel: cancel,
		pages:  make(map[string]console.Page),
		dirty:  make(map[string]struct{}),
		wake:   make(chan struct{}, 1),
		outbox: make(chan frame, outboxSize),
		closed: make(chan struct{}),
	}
}

func (s *session) send(f frame) {
	select {
	case s.outbox <- f:
	case <-s.closed:
	default:
		s.log.Warn("outbox full, dropping frame", "type", f.Type)
	}
}

func (s *session) markDirty(page string) {
	s.mu.Lock()
	s.dirty[page] = struct{}{}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) readPump() {
	defer s.close()
	s.conn.SetReadLimit(64 << 10)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("ws read error", "err", err)
			}
			return
		}
		var cmd console.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.send(frame{Type: "error", Message: "malformed command"})
			continue
		}
		if err := s.handle(cmd); err != nil {
			s.log.Debug("command rejected", "type", cmd.Type, "page", cmd.Page, "err", err)
			s.send(frame{Type: "error", Page: cmd.Page, Message: err.Error()})
		}
	}
}

var errNotMounted = errors.New("page not mounted")

func (s *session) handle(cmd console.Command) error {
	switch cmd.Type {
	case console.CmdMount:
		return s.mount(cmd.Page)
	case console.CmdUnmount:
		s.unmount(cmd.Page)
		return nil
	}
	s.mu.Lock()
	p, ok := s.pages[cmd.Page]
	s.mu.Unlock()
	if !ok {
		return errNotMounted
	}
	return console.Dispatch(p, cmd)
}

// mount replaces any page already mounted under the same name.
func (s *session) mount(name string) error {
	p, err := console.Open(s.ctx, name, s.deps, func() { s.markDirty(name) })
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.pages[name]
	s.pages[name] = p
	s.mu.Unlock()
	if old != nil {
		old.Unmount()
	}
	p.Mount()
	s.markDirty(name)
	return nil
}

func (s *session) unmount(name string) {
	s.mu.Lock()
	p := s.pages[name]
	delete(s.pages, name)
	delete(s.dirty, name)
	s.mu.Unlock()
	if p != nil {
		p.Unmount()
	}
}

func (s *session) close() {
	s.cancel()
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]console.Page)
	s.mu.Unlock()
	for _, p := range pages {
		p.Unmount()
	}
	for _, p := range pages {
		p.Wait()
	}
	close(s.closed)
	_ = s.conn.Close()
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-s.ctx.Done():
			// Closing the connection ends readPump, which unmounts the pages.
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = s.conn.Close()
			return
		case <-s.wake:
			if err := s.flush(); err != nil {
				s.log.Debug("ws write error", "err", err)
				_ = s.conn.Close()
				return
			}
		case f := <-s.outbox:
			if err := s.write(f); err != nil {
				s.log.Debug("ws write error", "err", err)
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (s *session) flush() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.dirty))
	for name := range s.dirty {
		names = append(names, name)
	}
	clear(s.dirty)
	pages := make([]console.Page, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		if p, ok := s.pages[name]; ok {
			pages = append(pages, p)
		}
	}
	s.mu.Unlock()

	for _, p := range pages {
		if err := s.write(frame{Type: "state", Page: p.Name(), State: p.Snapshot()}); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) write(f frame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}
