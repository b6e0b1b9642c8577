package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/urbanflow/backend/internal/analytics"
	"github.com/urbanflow/backend/internal/delivery/http"
	"github.com/urbanflow/backend/internal/domain"
	"github.com/urbanflow/backend/internal/engine"
	"github.com/urbanflow/backend/internal/publish"
	"github.com/urbanflow/backend/internal/repository/postgres"
	"github.com/urbanflow/backend/internal/service"
	"github.com/urbanflow/backend/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo domain.HistoryRepository
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err == nil {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			pool.Close()
			err = pingErr
		}
	}
	if err != nil {
		log.Printf("Warning: Could not connect to database: %v", err)
		log.Println("Running with in-memory history only")
		repo = postgres.NewMemoryRepository()
	} else {
		defer pool.Close()
		log.Println("Connected to PostgreSQL")
		repo = postgres.NewPostgresRepository(pool)
	}

	// Dependency Injection: Services
	st := store.New(time.Now())
	declog := analytics.NewDecisionLog()
	weatherSvc := service.NewWeatherService(cfg.OpenWeatherAPIKey, cfg.CityLat, cfg.CityLng)
	pub := publish.New(cfg.RedisAddr, cfg.RedisPassword)
	defer pub.Close()

	engineCfg := engine.DefaultConfig()
	engineCfg.TickInterval = cfg.TickInterval
	engineCfg.ModelServiceURL = cfg.ModelServiceURL

	eng := engine.New(engine.RealClock(), st, declog, repo, weatherSvc, pub, engineCfg)
	eng.AddIntersection(domain.Intersection{
		ID:           "SUR-4092",
		LocationName: "Jl. Soedirman, Surabaya",
		City:         "Surabaya",
		Lat:          -7.2575,
		Lng:          112.7521,
		CycleSeconds: 90,
	}, time.Now().UnixNano())

	// Tick loop
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	driver := engine.NewDriver(eng)
	go func() {
		if err := driver.Run(loopCtx); err != nil {
			log.Printf("Tick loop terminated: %v", err)
		}
	}()

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "UrbanFlow API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, eng, st, declog)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopLoop()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}

type Config struct {
	DatabaseURL       string
	RedisAddr         string
	RedisPassword     string
	OpenWeatherAPIKey string
	CityLat           float64
	CityLng           float64
	ModelServiceURL   string
	TickInterval      time.Duration
	Port              string
	Env               string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		CityLat:           getEnvFloat("CITY_LAT", -7.2575),
		CityLng:           getEnvFloat("CITY_LNG", 112.7521),
		ModelServiceURL:   getEnv("MODEL_SERVICE_URL", ""),
		TickInterval:      getEnvDuration("TICK_INTERVAL", 2*time.Second),
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
