package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openfleet/autoscaler/api/handlers"
	"github.com/openfleet/autoscaler/api/middleware"
	"github.com/openfleet/autoscaler/api/websocket"
	"github.com/openfleet/autoscaler/internal/auth"
	"github.com/openfleet/autoscaler/internal/events"
	"github.com/openfleet/autoscaler/pkg/config"
	"github.com/openfleet/autoscaler/pkg/database"
	"github.com/openfleet/autoscaler/pkg/database/queries"
)

// Options carries the server's collaborators. DB and Metrics may be nil.
type Options struct {
	Config  config.Config
	Engine  handlers.EngineController
	Bus     *events.EventBus
	DB      *database.DB
	Metrics http.Handler
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.Config
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	engine      handlers.EngineController
	db          *database.DB
	metrics     http.Handler
}

func NewServer(opts Options) *Server {
	if opts.Config.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	authService := auth.NewService(auth.Config{
		Secret:   opts.Config.API.JWTSecret,
		Issuer:   opts.Config.API.JWTIssuer,
		Duration: opts.Config.API.JWTDuration,
	})
	wsHub := websocket.NewHub(opts.Config.WebSocket)

	s := &Server{
		router:      router,
		config:      opts.Config,
		authService: authService,
		wsHub:       wsHub,
		engine:      opts.Engine,
		db:          opts.DB,
		metrics:     opts.Metrics,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if opts.Bus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, opts.Bus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(s.config.API.CORS))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RateLimit(s.config.API.RateLimit))
	if s.config.API.MaxBodyBytes > 0 {
		s.router.Use(middleware.RequestSizeLimit(s.config.API.MaxBodyBytes))
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(s.config.API.Users, s.authService)
	targetHandler := handlers.NewTargetHandler(s.engine, s.config.API.DefaultLimit, s.config.API.MaxLimit)
	statusHandler := handlers.NewStatusHandler(s.engine)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	// Auth routes
	s.router.POST("/auth/login", middleware.AuthRateLimit(), authHandler.Login)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Prometheus scrape endpoint
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.POST("/targets", targetHandler.Create)
		protected.GET("/targets", targetHandler.List)
		protected.GET("/targets/:id", targetHandler.Get)
		protected.GET("/targets/:id/actions", targetHandler.Actions)

		protected.GET("/status", statusHandler.GetStatus)
		protected.POST("/engine/start", statusHandler.StartEngine)
		protected.POST("/engine/stop", statusHandler.StopEngine)

		// Archive routes are only available when persistence is enabled.
		if s.db != nil {
			repo := queries.NewActionRepository(s.db.DB)
			actionsHandler := handlers.NewActionsHandler(repo, s.config.API.DefaultLimit, s.config.API.MaxLimit)

			protected.GET("/targets/:id/actions/archive", actionsHandler.Archive)
			protected.GET("/targets/:id/actions/stats", actionsHandler.Stats)
			protected.GET("/actions/recent", actionsHandler.Recent)
		}
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  s.config.API.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
