package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/recipebox/apiserver/config"
	"github.com/recipebox/apiserver/internal/auth"
	"github.com/recipebox/apiserver/internal/cache"
	"github.com/recipebox/apiserver/internal/db"
	"github.com/recipebox/apiserver/internal/handlers"
	"github.com/recipebox/apiserver/internal/mq"
	"github.com/recipebox/apiserver/internal/ratelimit"
	"github.com/recipebox/apiserver/internal/services"
	"github.com/recipebox/apiserver/internal/storage"
	"github.com/recipebox/apiserver/internal/store"
	"github.com/recipebox/apiserver/internal/store/memstore"
	"github.com/recipebox/apiserver/internal/validation"
	"go.uber.org/zap"
)

const (
	requestTimeout = 60 * time.Second
	mediaPrefix    = "/media"
)

// Deps are the collaborators the HTTP router needs.
type Deps struct {
	Users       *services.UserService
	Recipes     *services.RecipeService
	Tags        *services.AttributeService
	Ingredients *services.AttributeService
	Issuer      auth.TokenIssuer
	// Media, when set, is served under /media.
	Media          *storage.Storage
	Limiter        *ratelimit.KeyedRateLimiter
	AllowedOrigins []string
	// TrustProxyHeaders enables middleware.RealIP. Without it the rate
	// limiter keys on the socket address.
	TrustProxyHeaders bool
	Logger         *zap.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
	closers    []func() error
}

// New wires storage, caches, brokers and services from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *Server, err error) {
	s := &Server{logger: logger}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	st, err := s.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repos := st.Repositories()
	validator := validation.New()

	issuer, err := s.openIssuer(ctx, cfg, repos.Tokens)
	if err != nil {
		return nil, err
	}

	var opts []services.RecipeOption
	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	var media *storage.Storage
	if objects != nil {
		baseURL := cfg.Storage.PublicURL
		if baseURL == "" {
			baseURL = mediaPrefix
			media = objects
		}
		opts = append(opts, services.WithImages(objects, baseURL))
		logger.Info("image uploads enabled", zap.String("backend", cfg.Storage.Backend), zap.String("bucket", objects.Bucket()))
	}

	broker, err := mq.Open(ctx, cfg.Events, logger)
	if err != nil {
		return nil, err
	}
	if broker != nil {
		s.closers = append(s.closers, broker.Close)
		opts = append(opts, services.WithEvents(broker, cfg.Events.Channel))
		logger.Info("recipe events enabled", zap.String("backend", broker.Name()), zap.String("channel", cfg.Events.Channel))
	}

	var limiter *ratelimit.KeyedRateLimiter
	if cfg.RateLimit.PerMinute > 0 {
		limiter = ratelimit.New(cfg.RateLimit.PerMinute, time.Minute, cfg.RateLimit.Burst)
		s.closers = append(s.closers, func() error {
			limiter.Stop()
			return nil
		})
	}

	router := NewRouter(Deps{
		Users:          services.NewUserService(repos.Users, validator),
		Recipes:        services.NewRecipeService(st, validator, logger, opts...),
		Tags:           services.NewTagService(st, validator),
		Ingredients:    services.NewIngredientService(st, validator),
		Issuer:         issuer,
		Media:          media,
		Limiter:        limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (store.Transactor, error) {
	switch cfg.Store {
	case config.StoreBackendMemory:
		s.logger.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), nil
	case config.StoreBackendPostgres, "":
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		return store.NewPostgresStore(conn), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

func (s *Server) openIssuer(ctx context.Context, cfg config.Config, tokens store.TokenRepository) (auth.TokenIssuer, error) {
	switch cfg.Auth.Backend {
	case config.AuthBackendJWT:
		issuer, err := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return nil, err
		}
		return issuer, nil
	case config.AuthBackendDatabase, "":
		var kv cache.KV
		if cfg.Redis.Addr != "" {
			client, err := cache.Connect(ctx, cfg.Redis)
			if err != nil {
				return nil, fmt.Errorf("connect redis: %w", err)
			}
			s.closers = append(s.closers, client.Close)
			kv = cache.NewRedisKV(client)
		}
		return auth.NewDatabaseIssuer(tokens, kv, cfg.Redis.TokenTTL, s.logger), nil
	default:
		return nil, fmt.Errorf("unknown auth token backend %q", cfg.Auth.Backend)
	}
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if d.TrustProxyHeaders {
		router.Use(middleware.RealIP)
	}
	router.Use(
		middleware.Recoverer,
		handlers.RequestLogger(logger),
		middleware.Compress(5),
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.StripSlashes,
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	authMiddleware := handlers.RequireAuth(d.Issuer, d.Users, logger)
	var rateLimit func(http.Handler) http.Handler
	if d.Limiter != nil {
		rateLimit = handlers.RateLimit(d.Limiter, logger)
	}

	router.Get("/healthz", handlers.Healthz)
	router.Route("/user", func(r chi.Router) {
		handlers.UserRouter(r, d.Users, d.Issuer, logger, authMiddleware, rateLimit)
	})
	router.Route("/recipe", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Route("/recipes", func(r chi.Router) {
			handlers.RecipeRouter(r, d.Recipes, logger)
		})
		r.Route("/tags", func(r chi.Router) {
			handlers.AttributeRouter(r, d.Tags, logger)
		})
		r.Route("/ingredients", func(r chi.Router) {
			handlers.AttributeRouter(r, d.Ingredients, logger)
		})
	})
	if d.Media != nil {
		router.Route(mediaPrefix, func(r chi.Router) {
			handlers.MediaRouter(r, d.Media, logger)
		})
	}

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases backing resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close resource", zap.Error(err))
		}
	}
	s.closers = nil
}
