package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"energy-process/internal/audit"
	"energy-process/internal/auth"
	clientspg "energy-process/internal/clients/infrastructure/postgres"
	"energy-process/internal/ingestion/application"
	ingestionpg "energy-process/internal/ingestion/infrastructure/postgres"
	ingesthttp "energy-process/internal/ingestion/interfaces/http"
	"energy-process/internal/ingestion/queue"
	"energy-process/internal/ingestion/worker"
	"energy-process/internal/observability/metrics"
	"energy-process/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	files := ingestionpg.NewFileRepository(db)
	records := ingestionpg.NewRecordRepository(db)
	errs := ingestionpg.NewErrorRepository(db)
	directory := clientspg.NewClientRepository(db)

	blobs, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatalf("file store error: %v", err)
	}

	coordinator, err := application.NewCoordinator(files, records, errs, directory, blobs, cfg.AcceptedTypes, logger)
	if err != nil {
		logger.Fatalf("coordinator error: %v", err)
	}

	fallback, err := queue.NewLocalRunner(coordinator, logger)
	if err != nil {
		logger.Fatalf("local runner error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var primary queue.JobRunner
	if cfg.RedisAddr != "" {
		redisQueue, err := queue.NewRedisQueue(cfg.RedisAddr, cfg.QueueKey)
		if err != nil {
			logger.Fatalf("redis queue error: %v", err)
		}
		defer redisQueue.Close()
		primary = redisQueue

		for i := 0; i < cfg.Workers; i++ {
			consumer, err := worker.New(redisQueue, coordinator, logger)
			if err != nil {
				logger.Fatalf("worker error: %v", err)
			}
			go consumer.Run(ctx)
		}
		logger.Printf("queue workers started: %d on %s", cfg.Workers, cfg.RedisAddr)
	} else {
		logger.Printf("no redis configured, jobs run in-process")
	}

	dispatcher, err := queue.NewDispatcher(primary, fallback, logger)
	if err != nil {
		logger.Fatalf("dispatcher error: %v", err)
	}

	admission, err := application.NewAdmissionService(files, blobs, dispatcher, logger)
	if err != nil {
		logger.Fatalf("admission service error: %v", err)
	}

	handler, err := ingesthttp.NewHandler(admission, coordinator, files, records, errs, auditRepo)
	if err != nil {
		logger.Fatalf("ingestion handler error: %v", err)
	}

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var root http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		root = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Printf("no JWT secret configured, auth disabled")
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(root, logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
