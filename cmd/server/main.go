package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/dance-studio-admin/internal/config"     // Internal config loader
	"github.com/iliyamo/dance-studio-admin/internal/database"   // MySQL pool setup
	"github.com/iliyamo/dance-studio-admin/internal/handler"    // HTTP handlers
	"github.com/iliyamo/dance-studio-admin/internal/lock"       // per-subscription mutex
	"github.com/iliyamo/dance-studio-admin/internal/middleware" // rate limit + cache middleware
	"github.com/iliyamo/dance-studio-admin/internal/queue"      // notification consumer
	"github.com/iliyamo/dance-studio-admin/internal/repository" // DB repositories
	"github.com/iliyamo/dance-studio-admin/internal/router"     // route registration
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: with no client the limiter and cache degrade
	// to pass-through middleware.
	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Repositories share the single pooled *sql.DB.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	students := repository.NewStudentRepo(db)
	classes := repository.NewClassRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	attendance := repository.NewAttendanceRepo(db)
	makeups := repository.NewMakeupRepo(db)
	stats := repository.NewStatsRepo(db)

	// One mutex set for every writer that touches subscriptions, so
	// attendance, pauses and makeup completion all serialize per row.
	locks := lock.NewKeyMutex()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	studentH := handler.NewStudentHandler(students)
	classH := handler.NewClassHandler(classes, users)
	subH := handler.NewSubscriptionHandler(subs, students, classes, locks)
	attH := handler.NewAttendanceHandler(attendance, subs, locks)
	makeupH := handler.NewMakeupHandler(makeups, attendance, subs, students, classes, locks)
	statsH := handler.NewStatsHandler(stats)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAdmin(e, studentH, classH, subH, statsH, cfg.JWTSecret)
	router.RegisterStaff(e, classH, attH, makeupH, cfg.JWTSecret)

	// Background notification consumer; it reconnects on broker
	// failures and never takes the API down.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
