package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/benvon/project-assistant/internal/assistant"
	"github.com/benvon/project-assistant/internal/config"
	"github.com/benvon/project-assistant/internal/database"
	"github.com/benvon/project-assistant/internal/handlers"
	"github.com/benvon/project-assistant/internal/logger"
	"github.com/benvon/project-assistant/internal/middleware"
	"github.com/benvon/project-assistant/internal/notify"
	"github.com/benvon/project-assistant/internal/queue"
	"github.com/benvon/project-assistant/internal/request"
	"github.com/benvon/project-assistant/internal/services/ai"
	"github.com/benvon/project-assistant/internal/services/oidc"
	"github.com/benvon/project-assistant/internal/telemetry"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "project-assistant"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	_ assistant.ProjectService     = (*database.Store)(nil)
	_ ai.ProjectStore              = (*database.Store)(nil)
	_ handlers.ProjectStore        = (*database.Store)(nil)
	_ handlers.ProjectLookup       = (*database.Store)(nil)
	_ assistant.ChatFallback       = (*ai.FallbackService)(nil)
	_ assistant.RefreshNotifier    = (*notify.Notifier)(nil)
	_ assistant.IdentityProvider   = request.Identity{}
	_ handlers.TurnResolver        = (*assistant.Resolver)(nil)
	_ handlers.EventSource         = (*notify.Hub)(nil)
	_ handlers.LoginConfigProvider = (*oidc.Provider)(nil)
	_ handlers.CodeExchanger       = (*oidc.Client)(nil)
	_ middleware.TokenVerifier     = (*oidc.Verifier)(nil)
	_ queue.EventBus               = (*queue.RabbitMQBus)(nil)
	_ queue.EventBus               = (*queue.MemoryBus)(nil)
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Environment, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.Bool("oidc_enabled", cfg.OIDCEnabled()),
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Initialize OpenTelemetry if enabled
	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(rootCtx, telemetry.Options{
				ServiceName:    serviceName,
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(rootCtx); err != nil {
		zapLogger.Fatal("failed_to_apply_schema", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	// Connect to Redis for rate limiting
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(rootCtx, 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	pingCancel()
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	zapLogger.Info("connected_to_redis")

	bus := connectEventBus(cfg, zapLogger)
	defer func() {
		if err := bus.Close(); err != nil {
			zapLogger.Warn("failed_to_close_event_bus", zap.Error(err))
		}
	}()

	// Refresh notifications: bus -> hub -> event streams
	hub := notify.NewHub(notify.DefaultClientBuffer)
	notifier := notify.NewNotifier(bus, hub, zapLogger)
	go func() {
		if err := notifier.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("refresh_relay_stopped_with_error", zap.Error(err))
		}
	}()

	store := database.NewStore(db)

	// Initialize AI provider
	aiProvider, err := createAIProvider(cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		aiProvider = nil
	}
	memory := ai.NewConversationMemory(cfg.AIMemoryTurns)
	go func() {
		if err := memory.Start(rootCtx, cfg.ChatSweepInterval, cfg.ChatSessionTTL); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("conversation_memory_sweeper_stopped_with_error", zap.Error(err))
		}
	}()
	fallback := ai.NewFallbackService(store, aiProvider, memory, zapLogger)

	resolver := assistant.NewResolver(assistant.Dependencies{
		Projects:    store,
		Fallback:    fallback,
		Notifier:    notifier,
		Identity:    request.Identity{},
		TurnTimeout: cfg.ChatTurnTimeout,
	}, zapLogger)

	sessions := assistant.NewSessionStore(cfg.ChatSessionTTL, zapLogger)
	go func() {
		if err := sessions.Start(rootCtx, cfg.ChatSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("chat_session_sweeper_stopped_with_error", zap.Error(err))
		}
	}()

	// Identity provider
	oidcProvider := oidc.NewProvider(oidc.Config{
		Issuer:       cfg.OIDCIssuer,
		JWKSURL:      cfg.OIDCJWKSURL,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURI:  cfg.OIDCRedirectURI,
	}, nil)
	jwksManager := oidc.NewJWKSManager(nil, oidc.DefaultJWKSTTL)
	verifier := oidc.NewVerifier(jwksManager, cfg.OIDCIssuer, cfg.OIDCJWKSURL, cfg.OIDCClientID)
	if !cfg.OIDCEnabled() {
		zapLogger.Warn("oidc_not_configured_all_tokens_will_be_rejected")
	}

	var authHandler *handlers.AuthHandler
	if cfg.OIDCEnabled() {
		oauthClient, err := oidc.NewClient(rootCtx, oidcProvider)
		if err != nil {
			zapLogger.Warn("failed_to_create_oidc_client_login_disabled", zap.Error(err))
		} else {
			authHandler = handlers.NewAuthHandler(oidcProvider, oauthClient, verifier, zapLogger)
		}
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler()
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	healthChecker := handlers.NewHealthChecker().
		Add("database", db.PingContext).
		Add("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }).
		Add("queue", bus.HealthCheck)

	chatHandler := handlers.NewChatHandler(sessions, resolver, store, zapLogger)
	projectHandler := handlers.NewProjectHandler(store, notifier, zapLogger)
	eventsHandler := handlers.NewEventsHandler(hub, handlers.DefaultPingInterval, zapLogger)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Setup router
	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order; the first registered is outermost
	zapLogger.Info("setting_up_middleware")
	if tracingEnabled {
		r.Use(telemetry.Middleware(serviceName))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.CORSOrigins()))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestBytes))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionHandler(version)).Methods("GET")
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Public login routes
	if authHandler != nil {
		loginRouter := apiRouter.PathPrefix("/auth").Subrouter()
		loginRouter.Use(rateLimitMW)
		authHandler.RegisterRoutes(loginRouter)
	}

	// Chat routes accept anonymous callers so the conversation can ask them to log in
	chatRouter := apiRouter.NewRoute().Subrouter()
	chatRouter.Use(middleware.OptionalAuth(verifier, zapLogger))
	chatRouter.Use(rateLimitMW)
	chatHandler.RegisterRoutes(chatRouter)

	// Protected routes
	protectedRouter := apiRouter.NewRoute().Subrouter()
	protectedRouter.Use(middleware.Auth(verifier, zapLogger))
	protectedRouter.Use(rateLimitMW)
	projectHandler.RegisterRoutes(protectedRouter)
	eventsHandler.RegisterRoutes(protectedRouter)
	if authHandler != nil {
		authHandler.RegisterProtectedRoutes(protectedRouter.PathPrefix("/auth").Subrouter())
	}

	// Catch-all OPTIONS handler for preflight requests; CORS has already set the headers
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// WriteTimeout stays unset so event streams can remain open; handlers are bounded by middleware.Timeout
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	rootCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectEventBus connects to RabbitMQ when configured, retrying with exponential backoff to
// ride out broker startup. Without RABBITMQ_URL refresh events stay inside this process.
func connectEventBus(cfg *config.Config, zapLogger *zap.Logger) queue.EventBus {
	if cfg.RabbitMQURL == "" {
		zapLogger.Info("rabbitmq_not_configured_using_in_process_events")
		return queue.NewMemoryBus(notify.DefaultClientBuffer)
	}

	const maxRetries = 10
	const initialDelay = 2 * time.Second

	origin := instanceID()
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		bus, err := queue.NewRabbitMQBus(cfg.RabbitMQURL, cfg.RabbitMQExchange, origin, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq", zap.String("exchange", cfg.RabbitMQExchange))
			return bus
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// instanceID names this process on the bus
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return host + "-" + uuid.New().String()[:8]
}

// createAIProvider creates an AI provider based on configuration
func createAIProvider(cfg *config.Config, logger *zap.Logger, debugMode bool) (ai.AIProvider, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	providerType := cfg.AIProvider
	if providerType == "" {
		providerType = "openai"
	}

	registry := ai.NewProviderRegistry()
	ai.RegisterOpenAI(registry, logger, debugMode)

	return registry.GetProvider(providerType, map[string]string{
		"api_key":    cfg.OpenAIKey,
		"model":      cfg.AIModel,
		"base_url":   cfg.AIBaseURL,
		"max_tokens": strconv.Itoa(cfg.AIMaxTokens),
	})
}
