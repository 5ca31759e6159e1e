package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"time"

	"bananalab/internal/assets"
	"bananalab/internal/logging"
	"bananalab/internal/startup"
	"bananalab/internal/thumbnail"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logging.Component("server")

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// Pausable reports memory backpressure. *memory.Monitor implements it.
type Pausable interface {
	IsPaused() bool
}

// Options name the components /healthz reports on. Any may be nil.
type Options struct {
	Assets     *assets.Cache
	Thumbnails *thumbnail.Cache
	Memory     Pausable
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	AssetEntries   int   `json:"assetEntries"`
	AssetHeld      int   `json:"assetHeld"`
	AssetLoads     int64 `json:"assetLoads"`
	Thumbnails     int   `json:"thumbnails"`
	ThumbnailBytes int64 `json:"thumbnailBytes"`
	MemoryPaused   bool  `json:"memoryPaused"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// Server serves the operational endpoints.
type Server struct {
	opts    Options
	started time.Time
	router  *mux.Router
}

// New builds the router.
func New(opts Options) *Server {
	s := &Server{opts: opts, started: time.Now()}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", s.live).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", s.version).Methods(http.MethodGet)
	r.Use(logRequests)
	s.router = r
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() *mux.Router { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown error: %v", err)
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if s.opts.Assets != nil {
		st := s.opts.Assets.Stats()
		resp.AssetEntries = st.Entries
		resp.AssetHeld = st.Held
		resp.AssetLoads = st.Loads
	}
	if s.opts.Thumbnails != nil {
		resp.Thumbnails = s.opts.Thumbnails.Len()
		resp.ThumbnailBytes = s.opts.Thumbnails.Bytes()
	}
	if s.opts.Memory != nil && s.opts.Memory.IsPaused() {
		resp.MemoryPaused = true
		resp.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	// degraded still answers 200: a paused batch resumes on its own
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, resp)
	}
}

func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response: %v", err)
	}
}
