// Package gateway exposes the secretary over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/secretary/internal/board"
	"github.com/dohr-michael/secretary/internal/chat"
	"github.com/dohr-michael/secretary/internal/gateway/ws"
	"github.com/dohr-michael/secretary/internal/secretary"
	"github.com/dohr-michael/secretary/internal/sessions"
)

// Server is the secretary gateway HTTP server.
type Server struct {
	httpServer  *http.Server
	hub         *ws.Hub
	handler     chat.Handler
	tasks       board.Store
	transcripts sessions.Store
}

// MessageRequest is the body of POST /api/messages.
type MessageRequest = ws.SendMessageParams

// MessageResponse is the reply of POST /api/messages.
type MessageResponse struct {
	Replies []string `json:"replies"`
}

// NewServer creates a new gateway server. transcripts may be nil.
func NewServer(handler chat.Handler, tasks board.Store, transcripts sessions.Store, host string, port int) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	s := &Server{
		hub:         ws.NewHub(handler, tasks),
		handler:     handler,
		tasks:       tasks,
		transcripts: transcripts,
	}

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/tasks", s.handleTasks)
	r.Post("/api/messages", s.handleMessage)
	r.Get("/api/sessions", s.handleSessions)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}

	return s
}

// Hub returns the WebSocket hub, which doubles as a digest destination.
func (s *Server) Hub() *ws.Hub { return s.hub }

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("secretary gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	loc := board.LoadLocation(r.URL.Query().Get("tz"))
	cards, err := s.tasks.Tasks(r.Context(), loc)
	if err != nil {
		slog.Error("list tasks", "error", err)
		http.Error(w, "tasks unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, board.Views(cards, loc))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resp := MessageResponse{Replies: []string{}}
	replier := secretary.ReplierFunc(func(_ context.Context, text string) error {
		resp.Replies = append(resp.Replies, text)
		return nil
	})
	in := secretary.Inbound{
		SessionKey: ws.SessionKey(req.SessionID),
		Author:     req.Author,
		Text:       req.Text,
		Timezone:   req.Timezone,
	}
	if err := s.handler.Handle(r.Context(), in, replier); err != nil {
		slog.Error("handle message", "error", err)
		http.Error(w, "message could not be handled", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		http.Error(w, "transcripts not enabled", http.StatusServiceUnavailable)
		return
	}
	list, err := s.transcripts.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
