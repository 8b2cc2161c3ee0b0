package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// Router serves the streamable MCP endpoint alongside plain HTTP routes for
// health checks and PDF downloads
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)
	r.Get("/sessions", s.handleHTTPListSessions)
	r.Get("/sessions/{id}/export.pdf", s.handleHTTPExport)

	streamable := server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath("/mcp"))
	r.Handle("/mcp", streamable)

	return r
}

// RequestLogger logs one line per request
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.config.Version,
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleHTTPListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleHTTPExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	out, err := sess.Export(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, signerrors.ErrExportInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, signerrors.ErrValidation):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      out.Message,
				"violations": out.Violations,
			})
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	name := strings.NewReplacer(`"`, "", "\\", "", "\n", "", "\r", "").Replace(sess.Document().Title)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-signed.pdf"`, name))
	w.Header().Set("X-Embed-Count", fmt.Sprint(out.EmbedCount))
	w.Header().Set("X-Placeholder-Count", fmt.Sprint(out.PlaceholderCount))
	if len(out.Warnings) > 0 {
		w.Header().Set("X-Export-Warnings", fmt.Sprint(len(out.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Bytes); err != nil {
		s.logger.Warn("failed to write export", "session", sess.ID(), "error", err)
	}
}
