package stats

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server serves session counters over HTTP while a capture runs.
type Server struct {
	srv *http.Server
}

// NewServer builds the stats HTTP server for the given session.
func NewServer(listenAddr string, session *Session) *Server {
	r := mux.NewRouter()
	h := &handler{session: session}
	r.HandleFunc("/api/v1/stats", h.statsHandler).Methods("GET")

	return &Server{
		srv: &http.Server{
			Addr:    listenAddr,
			Handler: r,
		},
	}
}

// Start begins listening in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("Stats server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Stats server error: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Printf("Stats server shutdown: %v", err)
	}
}

type handler struct {
	session *Session
}

func (h *handler) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.session.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
