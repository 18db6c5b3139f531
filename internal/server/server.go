package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/config"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/db"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/handlers"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/mq"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/services"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/storage"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mongo      *mongo.Client
	queue      *mq.MQ
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Users     services.UserRepository
	Posts     services.PostRepository
	Objects   *storage.Storage
	Publisher services.Publisher
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	srv := &Server{}
	deps := Dependencies{}

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres, "":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		srv.db = dbConn
		deps.Users = store.NewUserRepository(dbConn)
		deps.Posts = store.NewPostRepository(dbConn)
	case config.StoreBackendMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		srv.mongo = client
		deps.Users = store.NewMongoUserRepository(database)
		deps.Posts = store.NewMongoPostRepository(database)
	case config.StoreBackendMemory:
		memory := store.NewMemoryStore()
		deps.Users = memory.Users()
		deps.Posts = memory.Posts()
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	deps.Objects = objects

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = srv.Shutdown()
		return nil, err
	}
	if queue != nil {
		srv.queue = queue
		deps.Publisher = queue
	} else {
		slog.Info("no message queue configured, images are released inline")
	}

	srv.router = NewRouter(cfg, deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// NewRouter wires services and handlers over deps.
func NewRouter(cfg config.Config, deps Dependencies) *chi.Mux {
	userService := services.NewUserService(deps.Users)

	var images *services.ImageService
	maxImageBytes := cfg.MaxImageBytes
	if deps.Objects != nil {
		images = services.NewImageService(deps.Objects, cfg.MaxImageBytes)
		maxImageBytes = images.MaxBytes()
	}
	var events *services.PostEvents
	if deps.Publisher != nil {
		events = services.NewPostEvents(deps.Publisher, cfg.MQ.PostEventsChannel)
	}
	postService := services.NewPostService(deps.Posts, images, events)

	authMiddleware := handlers.RequireAuth(cfg.JWTSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, cfg.JWTSecret, cfg.TokenTTL)
	})
	router.Route("/posts", func(r chi.Router) {
		handlers.PostRouter(r, postService, maxImageBytes, authMiddleware)
	})
	if deps.Objects != nil {
		router.Route("/uploads", func(r chi.Router) {
			handlers.UploadRouter(r, deps.Objects)
		})
	}

	return router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown attempts a graceful shutdown and releases backend connections.
func (s *Server) Shutdown() error {
	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = s.httpServer.Shutdown(ctx)
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.mongo != nil {
		_ = s.mongo.Disconnect(context.Background())
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
