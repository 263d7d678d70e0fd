package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/unibite/unibite-backend/internal/config"
	"github.com/unibite/unibite-backend/internal/database"
	"github.com/unibite/unibite-backend/internal/handler"
	"github.com/unibite/unibite-backend/internal/middleware"
	"github.com/unibite/unibite-backend/internal/queue"
	"github.com/unibite/unibite-backend/internal/repository"
	"github.com/unibite/unibite-backend/internal/router"
	"github.com/unibite/unibite-backend/internal/service"
)

func main() {
	// Local development convenience; in production the environment is
	// already populated and the missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	listings := repository.NewListingRepo(db)
	claims := repository.NewClaimRepo(db)

	// The claim service composes inventory (listings), ledger (claims)
	// and standing-token resolution (users).
	claimSvc := service.NewClaimService(listings, claims, users)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, sessions)
	listingH := handler.NewListingHandler(listings)
	claimH := handler.NewClaimHandler(claimSvc)

	// Redis is optional: when unreachable, caching and rate limiting
	// degrade to pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background consumer appending pickup records to logs/redemption.log;
	// it stops when the process receives an interrupt or termination
	// signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go queue.StartRedemptionConsumer(ctx)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterListings(e, listingH, cfg.JWTSecret, cacheMW)
	router.RegisterClaims(e, claimH, cfg.JWTSecret, limitMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
