package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shiftnotes/apiserver/config"
	"github.com/shiftnotes/apiserver/internal/db"
	"github.com/shiftnotes/apiserver/internal/handlers"
	"github.com/shiftnotes/apiserver/internal/mq"
	"github.com/shiftnotes/apiserver/internal/services"
	"github.com/shiftnotes/apiserver/internal/storage"
	"github.com/shiftnotes/apiserver/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.Queue
}

// New constructs a Server with the full dependency graph wired.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := NewBlobStorage(cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	queue, err := NewCleanupQueue(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)
	attachmentRepo := store.NewAttachmentRepository(dbConn)

	userService := services.NewUserService(userRepo)
	orchestrator := services.NewAttachmentOrchestrator(
		attachmentRepo,
		noteRepo,
		userRepo,
		blobs,
		queue,
		cfg.MQ.CleanupChannel,
		services.UploadLimits{
			MaxFileBytes:     cfg.Storage.MaxFileBytes,
			MaxFilesPerBatch: cfg.Storage.MaxFilesPerBatch,
		},
		logger,
	)
	noteService := services.NewNoteService(noteRepo, attachmentRepo, orchestrator)

	authMiddleware := handlers.RequireAuth(cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.JWTSecret)
	})
	router.Route("/users", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.UserRouter(r, userService)
	})
	router.Route("/notes", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.NoteRouter(r, noteService, orchestrator)
	})
	router.Route("/files", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.FileRouter(r, orchestrator)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// NewBlobStorage builds the configured blob store backend.
func NewBlobStorage(cfg config.StorageConfig) (*storage.Storage, error) {
	var backend storage.Backend
	var err error
	switch cfg.Backend {
	case config.StorageBackendMinio:
		backend, err = storage.NewMinioBackend(cfg.Minio)
	case config.StorageBackendGCS:
		backend, err = storage.NewGCSBackend(cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return storage.NewStorage(backend, cfg.OpTimeout), nil
}

// NewCleanupQueue builds the configured cleanup queue, or nil when none is
// configured.
func NewCleanupQueue(ctx context.Context, cfg config.MQConfig) (*mq.Queue, error) {
	switch cfg.Backend {
	case config.MQBackendNone, "":
		return nil, nil
	case config.MQBackendRabbitMQ:
		backend, err := mq.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case config.MQBackendPubSub:
		backend, err := mq.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
