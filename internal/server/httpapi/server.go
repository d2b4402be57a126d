// Package httpapi exposes the server's JSON HTTP interface: entry upsert,
// history reads, attachment presigning, and a liveness probe.
package httpapi

import (
	"context"
	"net/http"

	"github.com/moodlog-app/moodlog/internal/logging"
	"github.com/moodlog-app/moodlog/internal/server/services"
)

type Server struct {
	entryService *services.EntryService
	logger       logging.Logger
	secretKey    string
	srv          *http.Server
}

func NewServer(addr string, entryService *services.EntryService, logger logging.Logger, secretKey string) *Server {
	s := &Server{
		entryService: entryService,
		logger:       logger,
		secretKey:    secretKey,
	}
	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /api/v1/entries", s.authMiddleware(http.HandlerFunc(s.handleUpsertEntry)))
	mux.Handle("GET /api/v1/entries", s.authMiddleware(http.HandlerFunc(s.handleRecentEntries)))
	mux.Handle("POST /api/v1/attachments/presign", s.authMiddleware(http.HandlerFunc(s.handlePresignAttachment)))

	return mux
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
