package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/surgeone-ai/ria-pipeline/internal/pipeline"
	"github.com/surgeone-ai/ria-pipeline/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prospect list over HTTP",
	Long: `Starts a read-mostly API over the cache: list scored and enriched
firms as JSON or CSV, and trigger a background refresh of the full
fetch/score/enrich batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := newScorer("")
		if err != nil {
			return err
		}
		p := newPipeline(st, sc, pipelineOptions())

		api := &apiServer{store: st}
		api.refresh = func(ctx context.Context) error { return refreshBatch(ctx, p) }

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.router(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

// apiServer holds handler dependencies. The refresh hook is injected so
// tests can stub the batch.
type apiServer struct {
	store      store.Store
	refresh    func(ctx context.Context) error
	refreshing atomic.Bool
}

func (a *apiServer) router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/firms", a.handleFirms)
		r.Get("/firms.csv", a.handleFirmsCSV)
		r.Post("/refresh", a.handleRefresh)
	})
	return r
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleFirms(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.ListEnriched(r.Context(), filterFromQuery(r))
	if err != nil {
		zap.L().Error("list firms failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list firms"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(records),
		"firms": records,
	})
}

func (a *apiServer) handleFirmsCSV(w http.ResponseWriter, r *http.Request) {
	records, err := a.store.ListEnriched(r.Context(), filterFromQuery(r))
	if err != nil {
		zap.L().Error("list firms failed", zap.Error(err))
		http.Error(w, "list firms", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="prospects.csv"`)
	if err := pipeline.WriteCSV(w, records); err != nil {
		zap.L().Error("write csv failed", zap.Error(err))
	}
}

// handleRefresh kicks off a full batch in the background. A single
// refresh runs at a time; concurrent requests get 409.
func (a *apiServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !a.refreshing.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "refresh already running"})
		return
	}
	go func() {
		defer a.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if err := a.refresh(ctx); err != nil {
			zap.L().Error("refresh failed", zap.Error(err))
			return
		}
		zap.L().Info("refresh complete")
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func refreshBatch(ctx context.Context, p *pipeline.Pipeline) error {
	snap, err := newLoader().Load(ctx)
	if err != nil {
		return err
	}
	run, firms, err := p.Ingest(ctx, snap, cfg.SEC.DaysBack)
	if err != nil {
		return err
	}
	_, err = p.Run(ctx, run, firms)
	return err
}

func filterFromQuery(r *http.Request) store.ListFilter {
	q := r.URL.Query()
	var filter store.ListFilter
	if v := q.Get("min_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.MinScore = &n
		}
	}
	if v := q.Get("states"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				filter.States = append(filter.States, s)
			}
		}
	}
	filter.IncludeNA = q.Get("include_na") == "true"
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = n
	}
	return filter
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
