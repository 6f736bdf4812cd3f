package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vc-enrich/internal/cache"
	"github.com/sells-group/vc-enrich/internal/enrich"
	"github.com/sells-group/vc-enrich/internal/extract"
	"github.com/sells-group/vc-enrich/internal/metrics"
	"github.com/sells-group/vc-enrich/internal/model"
)

const (
	maxRequestBytes = 64 << 10
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Error messages returned in {"error": ...} bodies.
const (
	msgNotConfigured = "AI service not configured"
	msgAuthFailure   = "AI service authentication failed"
	msgTimeout       = "AI service timed out"
	msgInternal      = "Failed to enrich company data"
)

var servePort int

// enricher is the part of enrich.Service the HTTP layer depends on.
type enricher interface {
	Enrich(ctx context.Context, req model.EnrichmentRequest) (*model.EnrichmentResult, error)
	Configured() bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if p, ok := env.Cache.(cache.Purger); ok {
			go cache.RunPurger(ctx, p, cfg.Cache.PurgeInterval())
		}

		return startServer(ctx, buildRouter(env.Service, cfg.Server.CORSOrigins), resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value when set.
func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// buildRouter wires routes and middleware around svc.
func buildRouter(svc enricher, corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/api/enrich", handleEnrich(svc))

	return r
}

func handleEnrich(svc enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 503 takes precedence over body validation.
		if svc == nil || !svc.Configured() {
			metrics.EnrichRequests.WithLabelValues(metrics.OutcomeNotConfigured).Inc()
			writeError(w, http.StatusServiceUnavailable, msgNotConfigured)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			zap.L().Warn("read request body", zap.Error(err))
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		req, err := enrich.DecodeRequest(body)
		if err != nil {
			status, msg := statusFor(err)
			outcome := metrics.OutcomeInvalid
			if status != http.StatusBadRequest {
				outcome = metrics.OutcomeError
				zap.L().Warn("malformed request body",
					zap.String("request_id", requestIDFrom(r.Context())),
					zap.Error(err),
				)
			}
			metrics.EnrichRequests.WithLabelValues(outcome).Inc()
			writeError(w, status, msg)
			return
		}

		result, err := svc.Enrich(r.Context(), req)
		if err != nil {
			status, msg := statusFor(err)
			zap.L().Error("enrichment failed",
				zap.String("request_id", requestIDFrom(r.Context())),
				zap.String("company", req.CompanyName),
				zap.Int("status", status),
				zap.Error(err),
			)
			writeError(w, status, msg)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// statusFor maps a pipeline error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	var verr *enrich.ValidationError
	switch {
	case errors.Is(err, enrich.ErrNotConfigured):
		return http.StatusServiceUnavailable, msgNotConfigured
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Msg
	}

	if kind, ok := extract.KindOf(err); ok {
		switch kind {
		case extract.KindAuthFailure:
			return http.StatusUnauthorized, msgAuthFailure
		case extract.KindTimeout:
			return http.StatusGatewayTimeout, msgTimeout
		}
	}
	return http.StatusInternalServerError, msgInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

// requestID propagates X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("http request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// startServer serves handler on port until ctx is cancelled, then drains
// in-flight requests.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
