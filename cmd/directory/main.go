package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jamb-online/internal/config"
	"jamb-online/internal/directory"
)

func main() {
	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var store directory.Store
	if cfg.RedisURL != "" {
		redisStore, err := directory.NewRedisStore(cfg.RedisURL, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		store = redisStore
		log.Info().Str("addr", cfg.RedisURL).Msg("using redis store")
	} else {
		store = directory.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	}
	defer store.Close()

	hub := directory.NewHub(log)
	defer hub.Close()

	svc := directory.NewService(store, hub, cfg.ChatHistoryMax, cfg.GameMaxAge, log)

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			if removed := svc.Sweep(); removed > 0 {
				log.Info().Int("removed", removed).Msg("sweep done")
			}
		}
	}()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	directory.NewHandler(svc, hub, log).Register(router)

	log.Info().Str("port", cfg.Port).Msg("directory server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
