package csitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/csi"
	"github.com/jingkaihe/skillet/pkg/logger"
)

// DevServer serves the dev host protocol on POST /csi, backed by any csi.Csi.
// Requests must carry the configured bearer token; an empty token disables
// the check.
type DevServer struct {
	router *mux.Router
	csi    csi.Csi
	token  string
}

// NewDevServer creates a dev host backed by c
func NewDevServer(c csi.Csi, token string) *DevServer {
	s := &DevServer{
		router: mux.NewRouter(),
		csi:    c,
		token:  token,
	}
	s.setupRoutes()
	return s
}

func (s *DevServer) setupRoutes() {
	s.router.HandleFunc("/csi", s.handleCsi).Methods(http.MethodPost)
	s.router.Use(s.loggingMiddleware)
}

// ServeHTTP routes requests through the server's router
func (s *DevServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *DevServer) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "dev server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *DevServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rw.statusCode,
			"duration":   time.Since(start),
			"request_id": r.Header.Get("X-Request-Id"),
		}).Info("dev host request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *DevServer) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.token
}

func (s *DevServer) handleCsi(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return
	}

	var envelope Envelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if envelope.Version != ProtocolVersion {
		writeError(w, http.StatusBadRequest, "unsupported protocol version "+quote(envelope.Version)+", expected "+quote(ProtocolVersion))
		return
	}

	ctx := r.Context()
	switch envelope.Function {
	case FunctionComplete:
		serve(w, envelope.Requests, func(requests []csi.CompletionRequest) (any, error) {
			return s.csi.CompleteAll(ctx, requests), nil
		})
	case FunctionChat:
		serve(w, envelope.Requests, func(requests []csi.ChatRequest) (any, error) {
			return s.csi.ChatAll(ctx, requests), nil
		})
	case FunctionChunk:
		serve(w, envelope.Requests, func(requests []csi.ChunkRequest) (any, error) {
			return s.csi.ChunkAll(ctx, requests), nil
		})
	case FunctionSearch:
		serve(w, envelope.Requests, func(requests []csi.SearchRequest) (any, error) {
			return s.csi.SearchAll(ctx, requests), nil
		})
	case FunctionSelectLanguage:
		serve(w, envelope.Requests, func(requests []csi.SelectLanguageRequest) (any, error) {
			return s.csi.SelectLanguageAll(ctx, requests), nil
		})
	case FunctionDocuments:
		serve(w, envelope.Requests, func(paths []csi.DocumentPath) (any, error) {
			return s.csi.Documents(ctx, paths)
		})
	case FunctionDocumentMetadata:
		serve(w, envelope.Requests, func(paths []csi.DocumentPath) (any, error) {
			return s.csi.DocumentsMetadata(ctx, paths)
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown function "+quote(string(envelope.Function)))
	}
}

// serve decodes the batch, runs it and writes the results
func serve[R any](w http.ResponseWriter, raw json.RawMessage, run func([]R) (any, error)) {
	var requests []R
	if err := json.Unmarshal(raw, &requests); err != nil {
		writeError(w, http.StatusBadRequest, "invalid requests: "+err.Error())
		return
	}
	if requests == nil {
		requests = []R{}
	}

	results, err := run(requests)
	if err != nil {
		if errors.Is(err, csi.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, results)
}

func writeJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode results: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Status: status})
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
