package main

import (
	"context"

	"github.com/emberdate/engine/internal/app"
	"github.com/emberdate/engine/internal/cache"
	"github.com/emberdate/engine/internal/config"
	"github.com/emberdate/engine/internal/db"
	"github.com/emberdate/engine/internal/logger"
	"github.com/emberdate/engine/internal/notify"
	"github.com/emberdate/engine/internal/server"
	"github.com/emberdate/engine/internal/service/admirers"
	"github.com/emberdate/engine/internal/service/block"
	"github.com/emberdate/engine/internal/service/feed"
	"github.com/emberdate/engine/internal/service/rewind"
	"github.com/emberdate/engine/internal/service/subscription"
	"github.com/emberdate/engine/internal/service/swipe"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	subs := subscription.NewDBChecker(database)
	notifier := notify.NewRedisPublisher(redisCache, log)

	srv := server.New(appCtx, server.Services{
		Feed:     feed.NewService(appCtx),
		Swipe:    swipe.NewService(appCtx, subs, notifier),
		Rewind:   rewind.NewService(appCtx, subs),
		Admirers: admirers.NewService(appCtx),
		Block:    block.NewService(appCtx),
	})

	if err := srv.Start(); err != nil {
		log.Error("http server exited", "err", err)
	}
}
