package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/node"
)

// MaxSchemaBytes bounds the request body of /v1/translate.
const MaxSchemaBytes = 8 << 20

// Server exposes the translation pipeline over HTTP.
type Server struct {
	router     chi.Router
	translator mdform.Config
	log        *zap.Logger
}

// New builds the router. translator is the pipeline used for every request;
// a request may add the dataset type mapping with ?type_mapping=dataset.
func New(translator mdform.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{translator: translator, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Post("/v1/translate", s.translate)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

type errorResponse struct {
	Error string `json:"error"`
	Ref   string `json:"ref,omitempty"`
	Path  string `json:"path,omitempty"`
}

func (s *Server) translate(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSchemaBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	schema, err := mdform.ParseSchema(data, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	cfg := s.translator
	switch r.URL.Query().Get("type_mapping") {
	case "":
	case "dataset":
		cfg.TypeMapping = mdform.DatasetTypeMapping()
	default:
		writeError(w, http.StatusBadRequest, errorResponse{Error: "unknown type_mapping " + r.URL.Query().Get("type_mapping")})
		return
	}

	form, err := cfg.Translate(schema)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		if re, ok := mdform.AsReferenceError(err); ok {
			resp.Ref, resp.Path = re.Reference(), re.Location()
		}
		s.log.Debug("translation failed", zap.Error(err), zap.String("request_id", middleware.GetReqID(r.Context())))
		writeError(w, http.StatusUnprocessableEntity, resp)
		return
	}

	body, err := node.Marshal(form)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// requestFormat picks the schema format from ?format= or the Content-Type
// header; JSON is the default.
func requestFormat(r *http.Request) (mdform.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return mdform.ParseFormat(f)
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return mdform.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", err
	}
	switch {
	case strings.Contains(mt, "yaml"):
		return mdform.FormatYAML, nil
	case strings.Contains(mt, "json"), mt == "text/plain":
		return mdform.FormatJSON, nil
	default:
		return "", errors.New("unsupported content type " + mt)
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
