package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"attendance-service/internal/cache"
	"attendance-service/internal/config"
	attendanceReportGet "attendance-service/internal/http-server/handlers/attendance_report/get"
	attendanceStatsGet "attendance-service/internal/http-server/handlers/attendance_statistics/get"
	leaveStatsGet "attendance-service/internal/http-server/handlers/leave_statistics/get"
	pendingLeavesGet "attendance-service/internal/http-server/handlers/pending_leaves/get"
	rollCallGet "attendance-service/internal/http-server/handlers/roll_call/get"
	absencesGet "attendance-service/internal/http-server/handlers/unresolved_absences/get"
	svc "attendance-service/internal/service"
	"attendance-service/internal/storage/postgres"
	slogpretty "attendance-service/pkg/handlers/slogPretty"
	"attendance-service/pkg/middleware/mwLogger"
	"attendance-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	reportCache, err := cache.New(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init report cache", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(log, storage, reportCache, cfg.Cache.TTL)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Reports
	router.Get("/reports/attendance", attendanceReportGet.New(log, service))
	router.Get("/reports/pending-leaves", pendingLeavesGet.New(log, service))
	router.Get("/reports/unresolved-absences", absencesGet.New(log, service))

	// Statistics
	router.Get("/statistics/report", leaveStatsGet.New(log, service))
	router.Get("/statistics/attendance", attendanceStatsGet.New(log, service))
	router.Get("/statistics/attendance/{dimension}", attendanceStatsGet.New(log, service))

	// Daily roll call
	router.Get("/attendance/class/{classId}", rollCallGet.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := reportCache.Close(); err != nil {
		log.Error("Failed to close report cache", sl.Err(err))
	} else {
		log.Info("Report cache closed")
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
