package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/id/uuid"
	"github.com/JakeFAU/rtcv-scraper-bridge/internal/metrics"
)

const unauthorizedMessage = "401 Unauthorized, either the authorization header is missing or incorrect. " +
	"Expected `Basic <base64(apiKeyId:apiKey)>` where the apiKeyId is the same as the scraper uses to authenticate with RT-CV"

// CustomHandlerFunc handles an inbound request on a custom route. A handler
// that writes nothing is answered with 404.
type CustomHandlerFunc func(s *Server, w http.ResponseWriter, r *http.Request)

// CustomHandler binds a handler to a method and exact path.
type CustomHandler struct {
	Method  string
	Path    string
	Handler CustomHandlerFunc
}

type routeKey struct {
	method string
	path   string
}

type requestIDKey struct{}

// RequestID returns the id assigned to an inbound request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// AddCustomHandlers registers extra routes on the inbound router. Built-in
// routes take precedence. Registering the same method and path twice fails.
func (s *Server) AddCustomHandlers(handlers ...CustomHandler) error {
	s.customMu.Lock()
	defer s.customMu.Unlock()
	for _, h := range handlers {
		key := routeKey{method: strings.ToUpper(h.Method), path: h.Path}
		if h.Handler == nil {
			return fmt.Errorf("custom handler for %s %s is nil", key.method, key.path)
		}
		if _, exists := s.custom[key]; exists {
			return fmt.Errorf("%w for %s %s", ErrDuplicateHandler, key.method, key.path)
		}
		s.custom[key] = h.Handler
	}
	return nil
}

func (s *Server) customHandler(method, path string) (CustomHandlerFunc, bool) {
	s.customMu.RLock()
	defer s.customMu.RUnlock()
	h, ok := s.custom[routeKey{method: method, path: path}]
	return h, ok
}

func (s *Server) newRouter() http.Handler {
	logger := s.logger.Named("router")

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/health", s.handleHealth)
	r.Post("/cv", s.handleCV)
	r.Post("/cv-document", s.handleCVDocument)
	r.Post("/check-credentials", s.handleCheckCredentials)
	r.Post("/check-site-storage-credentials", s.handleCheckSiteStorageCredentials)

	r.NotFound(s.dispatchCustom)
	r.MethodNotAllowed(s.dispatchCustom)
	return r
}

func (s *Server) dispatchCustom(w http.ResponseWriter, r *http.Request) {
	h, ok := s.customHandler(r.Method, r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "404 Route not found")
		return
	}
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	h(s, ww, r)
	if ww.Status() == 0 {
		writeError(w, http.StatusNotFound, "404 Route not found")
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || !s.acceptsCredentials(username, password) {
			writeError(w, http.StatusUnauthorized, unauthorizedMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) acceptsCredentials(username, password string) bool {
	if s.primaryAuth.Matches(username, password) {
		return true
	}
	return !s.alternativeAuth.Empty() && s.alternativeAuth.Matches(username, password)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			h.Set("Vary", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", "GET,POST,HEAD,PUT,DELETE,PATCH")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		h.Set("Vary", "Origin")
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	ids := uuid.New()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := ids.NewID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request completed",
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", RequestID(r.Context())),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					if ww.Status() == 0 {
						writeError(ww, http.StatusInternalServerError, "internal server error")
					}
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
