package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/catalog"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/cep"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/checkout"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/events"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/hours"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/httpapi"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/order"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/storage"
	"github.com/Kadumarino/dev-front-end-my-app-order-food/pkg/logger"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	CatalogDBPath   string
	MigrationsPath  string
	KafkaBrokers    string
	KafkaTopic      string
	CEPBaseURL      string
	BusinessName    string
	WhatsAppNumber  string
	Timezone        string
	MinimumOrder    string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		CatalogDBPath:   getEnv("CATALOG_DB_PATH", "./menu.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/catalog/migrations"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "storefront-orders"),
		CEPBaseURL:      getEnv("CEP_BASE_URL", cep.DefaultBaseURL),
		BusinessName:    getEnv("BUSINESS_NAME", "Kadu Lanches"),
		WhatsAppNumber:  getEnv("WHATSAPP_NUMBER", "5519986021602"),
		Timezone:        getEnv("TIMEZONE", "America/Sao_Paulo"),
		MinimumOrder:    getEnv("MINIMUM_ORDER", "15.00"),
		SessionTTL:      getEnvMinutes("SESSION_TTL_MINUTES", 60),
		CatalogCacheTTL: 5 * time.Minute,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvMinutes(key string, defaultMinutes int) time.Duration {
	minutes := defaultMinutes
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			minutes = n
		}
	}
	return time.Duration(minutes) * time.Minute
}

func main() {
	cfg := loadConfig()

	appLog := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		Output:      getEnv("LOG_OUTPUT", "stdout"),
		Environment: getEnv("ENVIRONMENT", "development"),
	})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		// establishment runs on Brasília time; fall back to the fixed offset
		loc = time.FixedZone("-03", -3*60*60)
		appLog.Warn("timezone not found, using fixed offset", "timezone", cfg.Timezone)
	}

	minimum, err := decimal.NewFromString(cfg.MinimumOrder)
	if err != nil {
		log.Fatalf("invalid MINIMUM_ORDER %q: %v", cfg.MinimumOrder, err)
	}

	// Catalog: sqlite with migrations, served through the memory cache
	repo, err := catalog.NewSQLiteRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("failed to open catalog database: %v", err)
	}
	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}
	provider := catalog.NewCachedProvider(repo, cfg.CatalogCacheTTL)
	defer provider.Close()
	appLog.Info("catalog ready", "db", cfg.CatalogDBPath)

	// Session state: redis when reachable, otherwise in-memory only
	ctx := context.Background()
	var stores httpapi.StoreFactory
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLog.Warn("redis unreachable, carts will not survive a restart", "error", err)
		redisClient.Close()
		stores = memoryStoreFactory()
	} else {
		defer redisClient.Close()
		appLog.Info("redis ping succeeded", "addr", cfg.RedisAddr)
		stores = func(sessionID string) (storage.Store, storage.Store) {
			durable := storage.NewRedisStore(redisClient, "sf:"+sessionID+":durable", 0)
			session := storage.NewRedisStore(redisClient, "sf:"+sessionID+":session", cfg.SessionTTL)
			return durable, session
		}
	}

	// Optional order-completed events
	var publisher events.Publisher
	if cfg.KafkaBrokers != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaTopic, strings.Split(cfg.KafkaBrokers, ",")...)
		defer kp.Close()
		publisher = kp
		appLog.Info("order events enabled", "topic", cfg.KafkaTopic)
	}

	composer := &order.Composer{
		BusinessName:   cfg.BusinessName,
		WhatsAppNumber: cfg.WhatsAppNumber,
		Catalog:        provider,
	}
	pipeline := &checkout.Pipeline{
		Schedule:     hours.DefaultSchedule(loc),
		MinimumOrder: minimum,
		Composer:     composer,
		Events:       publisher,
		Now:          time.Now,
		Log:          appLog,
	}
	handler := httpapi.NewHandler(provider, pipeline, cep.NewClient(cfg.CEPBaseURL), stores, appLog)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(httpapi.SessionMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api/v1", handler.Routes)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("storefront listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	appLog.Info("server exited")
}

// memoryStoreFactory keeps per-session stores in process memory, the degraded
// mode used when redis is unavailable at startup.
func memoryStoreFactory() httpapi.StoreFactory {
	type pair struct {
		durable *storage.MemoryStore
		session *storage.MemoryStore
	}
	var mu sync.Mutex
	stores := make(map[string]pair)
	return func(sessionID string) (storage.Store, storage.Store) {
		mu.Lock()
		defer mu.Unlock()
		p, ok := stores[sessionID]
		if !ok {
			p = pair{durable: storage.NewMemoryStore(), session: storage.NewMemoryStore()}
			stores[sessionID] = p
		}
		return p.durable, p.session
	}
}
