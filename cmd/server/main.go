package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/config"
	"github.com/zapgroups/admin-api/internal/database"
	"github.com/zapgroups/admin-api/internal/handler"
	"github.com/zapgroups/admin-api/internal/middleware"
	"github.com/zapgroups/admin-api/internal/obs"
	"github.com/zapgroups/admin-api/internal/queue"
	"github.com/zapgroups/admin-api/internal/repository"
	"github.com/zapgroups/admin-api/internal/router"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	hasher := auth.NewArgon2Hasher(auth.DefaultArgon2Params())
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	sessions := auth.NewService(users, tokens, hasher, tm)

	obs.Init()

	// Optional subsystems: the service runs without Redis or a broker.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	var events *queue.Publisher
	if queue.Configured() {
		events = queue.NewPublisher(256)
		go func() {
			if err := queue.StartSessionConsumer(); err != nil {
				log.Printf("session consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true

	authn := middleware.Authenticate(sessions, users)
	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	router.Register(e, handler.NewAuthHandler(sessions, events), authn, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
