// Package server exposes the import engine and the tree store over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hurttlocker/lineage/internal/ingest"
	"github.com/hurttlocker/lineage/internal/metrics"
	"github.com/hurttlocker/lineage/internal/store"
)

// SavedHeader carries the stored file name when an import is also saved.
const SavedHeader = "X-Lineage-Saved"

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	Store  store.Store
	Engine *ingest.Engine
	Logger *zap.Logger
	Addr   string
}

// Server routes the lineage HTTP API.
type Server struct {
	store  store.Store
	engine *ingest.Engine
	logger *zap.Logger
	router *mux.Router
}

// ImportRequest is the JSON body of POST /api/import.
type ImportRequest struct {
	Text   string `json:"text"`
	Family string `json:"family,omitempty"`
	File   string `json:"file,omitempty"`
}

// New builds a Server. Engine and Logger default when nil.
func New(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := cfg.Engine
	if engine == nil {
		engine = ingest.NewEngine(ingest.Options{}, logger)
	}
	s := &Server{
		store:  cfg.Store,
		engine: engine,
		logger: logger.Named("http"),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.logRequests)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// API routes sit on the root router so a method mismatch answers 405.
	r.HandleFunc("/api/import", s.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/api/families", s.handleListFamilies).Methods(http.MethodGet)
	r.HandleFunc("/api/families", s.handleCreateFamily).Methods(http.MethodPost)
	r.HandleFunc("/api/families/{family}", s.handleDeleteFamily).Methods(http.MethodDelete)
	r.HandleFunc("/api/families/{family}/trees", s.handleListTrees).Methods(http.MethodGet)
	r.HandleFunc("/api/families/{family}/trees/{file}", s.handleGetTree).Methods(http.MethodGet)
	r.HandleFunc("/api/families/{family}/trees/{file}", s.handlePutTree).Methods(http.MethodPut)
	r.HandleFunc("/api/families/{family}/trees/{file}", s.handleDeleteTree).Methods(http.MethodDelete)
	r.HandleFunc("/api/families/{family}/trees/{file}/rename", s.handleRenameTree).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve runs the HTTP server until ctx is canceled.
func Serve(ctx context.Context, cfg ServerConfig) error {
	s := New(cfg)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.engine.Options().MaxFileSize)
	req, err := decodeImportRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.engine.Import(req.Text)
	if err != nil {
		if ingest.IsUserError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": err.Error(),
				"kind":  string(ingest.Kind(err)),
			})
			return
		}
		s.logger.Error("import failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	if req.Family != "" || req.File != "" {
		if req.Family == "" || req.File == "" {
			writeError(w, http.StatusBadRequest, "family and file must be given together")
			return
		}
		name, err := s.store.SaveTree(r.Context(), req.Family, req.File, data)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		w.Header().Set(SavedHeader, name)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// decodeImportRequest accepts either a JSON ImportRequest or the raw text
// as a text/plain body.
func decodeImportRequest(r *http.Request) (ImportRequest, error) {
	var req ImportRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return req, fmt.Errorf("reading body: %w", err)
		}
		req.Text = string(b)
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid json: %w", err)
	}
	req.Family = strings.TrimSpace(req.Family)
	req.File = strings.TrimSpace(req.File)
	return req, nil
}

func (s *Server) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := s.store.ListFamilies(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"families": families})
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	name, err := s.store.CreateFamily(r.Context(), body.Name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteFamily(r.Context(), mux.Vars(r)["family"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := s.store.ListTrees(r.Context(), mux.Vars(r)["family"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trees": trees})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tree, err := s.store.GetTree(r.Context(), vars["family"], vars["file"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", tree.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(tree.Content)
}

func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.engine.Options().MaxFileSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "tree too large")
		return
	}
	name, err := s.store.SaveTree(r.Context(), vars["family"], vars["file"], body)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": name})
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.DeleteTree(r.Context(), vars["family"], vars["file"]); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameTree(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := s.store.RenameTree(r.Context(), vars["family"], vars["file"], body.Name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": name})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidContent):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("store error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
