package main

import (
	"context"
	"log"

	"car-share/cmd"
	"car-share/internal/data/repository"
	"car-share/internal/wire"
	"car-share/pkg/database"
	"car-share/pkg/payment"
	"car-share/pkg/storage"
	"car-share/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	db, err := database.InitDB(context.Background(), config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	photos, err := storage.NewS3PhotoStore(context.Background(), config.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to init photo storage", zap.Error(err))
	}

	gateway := payment.NewStripeGateway(config.Stripe, logger)
	repos := repository.NewRepository(db, logger)

	app := wire.Wiring(repos, gateway, photos, config, logger)

	if err := app.Sweeper.Start(); err != nil {
		logger.Fatal("Failed to start reservation sweeper", zap.Error(err))
	}
	defer app.Sweeper.Stop()

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
