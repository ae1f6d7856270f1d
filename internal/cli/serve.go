package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/texfig/texfig/pkg/cache"
	"github.com/texfig/texfig/pkg/config"
	"github.com/texfig/texfig/pkg/diagram"
	texerrors "github.com/texfig/texfig/pkg/errors"
	"github.com/texfig/texfig/pkg/render"
)

// serveCommand creates the serve command: a small preview server that
// renders diagrams on demand and serves the asset cache. Intended for
// local authoring and for site previews in CI.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram preview server",
		Long: `Serve starts an HTTP server with two endpoints:

  POST /render     render a diagram source, returns asset URLs for both schemes
  GET  /assets/*   serve rendered SVGs from the asset cache

Responses for repeated sources are served from the configured server
cache (file, redis, mongo or none) without re-rendering.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd, cfg, cacheDir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8377)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "asset cache directory (default from config, media)")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, cfg config.Config, cacheDir string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	p, err := c.newPipeline(cfg, cacheDir, false)
	if err != nil {
		return err
	}
	responses, err := newServerCache(cmd, cfg)
	if err != nil {
		return err
	}
	defer responses.Close()

	s := &server{pipeline: p, responses: responses, logger: c.Logger}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	printInfo("Listening on %s (cache backend: %s)", cfg.Server.Addr, cfg.Server.Cache)
	logger.Info("preview server started", "addr", cfg.Server.Addr)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// server holds the preview server's dependencies.
type server struct {
	pipeline  *render.Pipeline
	responses cache.Cache
	logger    *log.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/render", s.handleRender)
	r.Get("/assets/{name}", s.handleAsset)

	return r
}

// requestID tags every request with a uuid for log correlation.
func (s *server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, id)))
	})
}

// renderRequest is the POST /render body.
type renderRequest struct {
	Dialect string `json:"dialect"`
	Source  string `json:"source"`
}

// renderResponse maps each scheme to its asset URL.
type renderResponse struct {
	Light  string `json:"light"`
	Dark   string `json:"dark"`
	Cached bool   `json:"cached"`
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	dialect, ok := diagram.Recognize(req.Dialect, diagram.DefaultDialects)
	if !ok {
		httpError(w, http.StatusBadRequest, "unknown dialect")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		httpError(w, http.StatusBadRequest, "empty source")
		return
	}

	// Whole-response cache: the pair for an identical source never changes.
	block := diagram.Block{Dialect: dialect, Source: req.Source}
	cacheKey := "render:" + diagram.DeriveKey(block.Source, block.Dialect, diagram.SchemeLight).Hash
	if data, found, err := s.responses.Get(r.Context(), cacheKey); err == nil && found {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}

	pair, err := s.pipeline.RenderPair(r.Context(), block)
	if err != nil {
		s.logger.Warn("render request failed",
			"dialect", dialect,
			"stage", render.FailureStage(err),
			"request", middleware.GetReqID(r.Context()))
		httpError(w, http.StatusUnprocessableEntity, texerrors.UserMessage(err))
		return
	}

	resp := renderResponse{
		Light:  "/assets/" + pair.Light.Key.Filename(),
		Dark:   "/assets/" + pair.Dark.Key.Filename(),
		Cached: pair.CacheHit(),
	}
	data, err := json.Marshal(resp)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "encode response")
		return
	}
	_ = s.responses.Set(r.Context(), cacheKey, data, cache.TTLRender)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// The asset directory is flat: path separators mean traversal.
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".svg") {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, filepath.Join(s.pipeline.Store().Root(), name))
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
