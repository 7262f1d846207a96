package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"musicfestival/m/internal/api"
	"musicfestival/m/internal/auth"
	"musicfestival/m/internal/band"
	"musicfestival/m/internal/config"
	"musicfestival/m/internal/database"
	"musicfestival/m/internal/migrations"
	"musicfestival/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}
	seed.LoadLineup(db, "assets/lineup.csv", logger)

	hasher := auth.NewHasher()
	tokens, err := auth.NewTokenService(cfg.Secret, cfg.Issuer, cfg.Audience, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("failed to initialize token service: %v", err)
	}
	bands := band.NewRepository(db)

	handler := api.New(db, bands, hasher, tokens, tokens, logger, cfg.Development)

	addr := ":" + cfg.HTTPPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("festival lineup server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
