package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/green-city-platform/internal/config"
	"github.com/iliyamo/green-city-platform/internal/database"
	"github.com/iliyamo/green-city-platform/internal/geocode"
	"github.com/iliyamo/green-city-platform/internal/handler"
	"github.com/iliyamo/green-city-platform/internal/logger"
	"github.com/iliyamo/green-city-platform/internal/maps"
	"github.com/iliyamo/green-city-platform/internal/middleware"
	"github.com/iliyamo/green-city-platform/internal/repository"
	"github.com/iliyamo/green-city-platform/internal/router"
	"github.com/iliyamo/green-city-platform/internal/service"
	"github.com/iliyamo/green-city-platform/internal/session"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting green city platform", "env", cfg.Env, "db_driver", cfg.DBDriver)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	if cfg.SeedDemoData {
		if err := database.Seed(ctx, db, cfg.BcryptCost); err != nil {
			cancel()
			log.Fatalf("seed: %v", err)
		}
	}
	cancel()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var sessions session.Store
	if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, "")
		logger.Info("redis connected; sessions, cache and rate limiting enabled")
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn("redis unavailable; using in-process sessions without cache or rate limiting")
	}

	events := service.NewPublisher(config.LoadEventsConfig())
	geo := geocode.NewClient(config.LoadGeocoderConfig())
	renderer := maps.NewRenderer(config.LoadMapConfig())

	users := repository.NewUserRepo(db)
	cities := repository.NewCityRepo(db)
	zones := repository.NewZoneRepo(db)
	tasks := repository.NewTaskRepo(db)
	reports := repository.NewReportRepo(db)
	orgs := repository.NewOrganizationRepo(db)
	stats := repository.NewStatsRepo(db)

	zoneH := &handler.ZoneHandler{Zones: zones, Cities: cities, Tasks: tasks, Reports: reports, Orgs: orgs, Events: events}
	taskH := &handler.TaskHandler{Tasks: tasks, Zones: zones, Orgs: orgs, Events: events}
	orgH := &handler.OrganizationHandler{Orgs: orgs, Cities: cities, Zones: zones}
	cityH := &handler.CityHandler{Cities: cities}
	userH := &handler.UserHandler{Cfg: cfg, Users: users, Cities: cities, Zones: zones, Tasks: tasks, Reports: reports, Sessions: sessions}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	auth := router.Auth{Secret: cfg.JWTSecret, Sessions: sessions}
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, cities, sessions), auth, limit)
	router.RegisterUsers(e, userH, auth)
	router.RegisterZones(e, zoneH, taskH, &handler.ReportHandler{Zones: zones, Reports: reports, Events: events}, auth)
	router.RegisterAdmin(e, router.AdminHandlers{Zones: zoneH, Tasks: taskH, Orgs: orgH, Cities: cityH, Users: userH}, auth)
	router.RegisterPublic(e, cityH, orgH,
		&handler.DashboardHandler{Stats: stats, Zones: zones, Tasks: tasks},
		&handler.MapHandler{Zones: zones, Renderer: renderer}, auth)
	router.RegisterAPI(e, &handler.APIHandler{Zones: zones, Cities: cities, Geo: geo}, auth, limit, cache)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
