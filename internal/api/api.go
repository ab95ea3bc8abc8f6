// Package api exposes the command service over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/command"
	"github.com/Leonardo1519/ancient-chinese-art-rss/internal/view"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodySize = 5 * 1024 * 1024

// Service is the command service used by the handlers.
type Service interface {
	Dispatch(ctx context.Context, req command.Request) (any, error)
	GetState(ctx context.Context) (*command.StateResult, error)
	Refresh(ctx context.Context) (*command.RefreshResult, error)
	ListArticles(ctx context.Context, f view.Filter) (*command.ListResult, error)
	ListFavorites(ctx context.Context, f view.FavoriteFilter) (*command.ListResult, error)
	ExportSources(ctx context.Context) (*command.ExportResult, error)
	ImportSources(ctx context.Context, data []byte) (*command.ImportResult, error)
}

// Server routes HTTP requests to the command service.
type Server struct {
	svc    Service
	log    *slog.Logger
	router chi.Router
}

// New creates a Server.
func New(svc Service, log *slog.Logger) *Server {
	s := &Server{svc: svc, log: log}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/command", s.handleCommand)
		r.Get("/state", s.handleState)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/articles", s.handleArticles)
		r.Get("/favorites", s.handleFavorites)
		r.Get("/sources.opml", s.handleExportOPML)
		r.Post("/sources.opml", s.handleImportOPML)
	})

	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req command.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.svc.Dispatch(r.Context(), req)
	s.respond(w, res, err)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GetState(r.Context())
	s.respond(w, res, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Refresh(r.Context())
	s.respond(w, res, err)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ListArticles(r.Context(), filterFromQuery(r))
	s.respond(w, res, err)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	f := view.FavoriteFilter{
		Filter: filterFromQuery(r),
		TagID:  r.URL.Query().Get("tag"),
	}
	res, err := s.svc.ListFavorites(r.Context(), f)
	s.respond(w, res, err)
}

func (s *Server) handleExportOPML(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.ExportSources(r.Context())
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	w.Header().Set("Content-Type", "text/x-opml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sources.opml"`)
	_, _ = io.WriteString(w, res.OPML)
}

func (s *Server) handleImportOPML(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.svc.ImportSources(r.Context(), data)
	s.respond(w, res, err)
}

func filterFromQuery(r *http.Request) view.Filter {
	q := r.URL.Query()
	unread, _ := strconv.ParseBool(q.Get("unread"))
	return view.Filter{
		SourceID:   q.Get("source"),
		UnreadOnly: unread,
		Search:     q.Get("q"),
	}
}

func (s *Server) respond(w http.ResponseWriter, res any, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, command.ErrInvalid) {
			status = http.StatusBadRequest
		} else {
			s.log.Error("command failed", "error", err)
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, command.ErrorResult{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", "error", err)
	}
}
