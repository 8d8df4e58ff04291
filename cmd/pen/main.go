package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pen-tool/internal/common/config"
	"pen-tool/internal/common/middleware"
	"pen-tool/internal/gateway/handlers"
	penhandlers "pen-tool/internal/pen/handlers"
	"pen-tool/internal/pen/repository"
	"pen-tool/internal/pen/service"
	"pen-tool/internal/pen/store"
	"pen-tool/migrations"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Pen Service
// ============================================================

func main() {
	cfg, err := config.LoadFile(getenv("PEN_CONFIG", "~/.config/pen-tool/pen.toml"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Port == config.Defaults().Port {
		cfg.Port = "3001"
	}
	middleware.SetLogLevel(cfg.LogLevel)

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), migrations.Files); err != nil {
		log.Fatalf("init db: %v", err)
	}

	files := service.NewFileStorage(cfg.DataDir)
	if err := files.EnsureDir(); err != nil {
		log.Fatalf("data dir: %v", err)
	}

	sessions := service.NewSessionManager(
		store.WithSamples(cfg.LUTSamples),
		store.WithMinControlOffset(cfg.ControlEpsilon),
	)
	penHandler := penhandlers.NewPenHandler(sessions,
		penhandlers.Backend{Name: "file", Store: files},
		penhandlers.Backend{Name: "db", Store: repo},
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Pen Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins...))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", handlers.ReadinessProbe(func(ctx context.Context) error {
		return db.PingContext(ctx)
	}))
	app.Get("/health/startup", handlers.StartupProbe)

	// ============================================================
	// Pen Routes
	// ============================================================

	penHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Starting Pen Service on %s (env: %s, db: %s, data: %s)", addr, cfg.Environment, cfg.DBPath, cfg.DataDir)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getenv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
