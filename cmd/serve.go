package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/accounts-cli/internal/exporter"
	"github.com/sells-group/accounts-cli/internal/model"
	"github.com/sells-group/accounts-cli/internal/reconcile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve profiles and exports to the dashboard frontend",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}

	log := zap.L().With(zap.String("command", "serve"))

	svc, st, err := initService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Export builds scan the activity log for every selected account; cap
	// the rate so one dashboard user cannot saturate the reporting DB.
	perMinute := max(cfg.Server.ExportPerMinute, 1)
	exportLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts/{name}/profile", profileHandler(svc, log))
		r.With(limitMiddleware(exportLimiter)).Post("/export", exportHandler(svc, log))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func profileHandler(svc *reconcile.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := chi.URLParam(r, "name")

		profile, err := svc.BuildProfile(r.Context(), account)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func exportHandler(svc *reconcile.Service, log *zap.Logger) http.HandlerFunc {
	type exportRequest struct {
		Accounts []string `json:"accounts"`
		Start    string   `json:"start"`
		End      string   `json:"end"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if len(req.Accounts) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "accounts is required"})
			return
		}
		start, err := time.ParseInLocation("2006-01-02", req.Start, time.UTC)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
			return
		}
		end, err := time.ParseInLocation("2006-01-02", req.End, time.UTC)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end must be YYYY-MM-DD"})
			return
		}

		bundle, err := svc.BuildExport(r.Context(), req.Accounts, start, end)
		if err != nil {
			writeError(w, log, err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "activity_export_"+bundle.ID+".xlsx"))
		if err := exporter.Write(bundle, w); err != nil {
			log.Error("workbook write failed", zap.Error(err))
		}
	}
}

// limitMiddleware rejects requests beyond the limiter's budget. No queueing:
// the client retries, the reporting DB is protected.
func limitMiddleware(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "export rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError maps the failure taxonomy onto HTTP statuses. NotFound is an
// informational empty state; everything else aborts the view with a message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case model.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matching records"})
	case model.IsSchemaMismatch(err):
		log.Error("schema mismatch", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "a required column is missing from the reporting schema"})
	case model.IsConnection(err):
		log.Error("reporting store unreachable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "reporting database unavailable"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
