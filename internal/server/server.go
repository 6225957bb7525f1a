package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/msb-blog/apiserver/config"
	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/db"
	"github.com/msb-blog/apiserver/internal/handlers"
	"github.com/msb-blog/apiserver/internal/model"
	"github.com/msb-blog/apiserver/internal/mq"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/internal/storage"
	"github.com/msb-blog/apiserver/internal/store"
	"github.com/msb-blog/apiserver/internal/web"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server wraps the HTTP server and its wired dependencies. Everything
// is constructed once here and injected; there is no module-level
// state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	database   *mongo.Database
	events     mq.Publisher
}

// New constructs a Server with its full dependency graph.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("MSB_SECRET_KEY is required")
	}

	database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := newPublisher(ctx, cfg.MQ)
	if err != nil {
		_ = database.Client().Disconnect(context.Background())
		return nil, err
	}

	sessions := auth.NewSessions(cfg.SessionSecret)
	userRepo := store.NewUserRepository(database)
	userService := services.NewUserService(userRepo)
	requireSession := handlers.RequireSession(sessions)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(handlers.AllowAllOrigins)

	router.Get("/healthz", handlers.Healthz)
	router.Get("/v1", handlers.NewIndexHandler(model.Registered))
	handlers.AuthRouter(router, userService, sessions)

	var postService *services.ResourceService
	var postRepo *store.DocumentRepository
	for _, desc := range model.Registered {
		repo := store.NewDocumentRepository(database, desc)
		svc := services.NewResourceService(repo, userRepo, events)
		handlers.ResourceRouter(router, svc, requireSession)
		if desc.Name == model.Post.Name {
			postService = svc
			postRepo = repo
		}
	}

	media, err := newMediaBackend(ctx, cfg.Media)
	if err != nil {
		_ = database.Client().Disconnect(context.Background())
		return nil, err
	}
	if media != nil {
		if err := media.EnsureBucket(ctx); err != nil {
			_ = database.Client().Disconnect(context.Background())
			return nil, err
		}
		mediaService := services.NewMediaService(postRepo, media)
		handlers.MediaRouter(router, mediaService, requireSession)
	}

	web.Router(router, postService, userService, sessions)

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
		database:   database,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown releases the server's resources.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.database != nil {
		_ = s.database.Client().Disconnect(context.Background())
	}
	return s.httpServer.Close()
}

func newPublisher(ctx context.Context, cfg config.MQConfig) (mq.Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		return mq.NewRabbitMQPublisher(cfg.RabbitMQ)
	case "pubsub":
		return mq.NewPubSubPublisher(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

func newMediaBackend(ctx context.Context, cfg config.MediaConfig) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "minio":
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}
