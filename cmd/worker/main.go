package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/Iyke200/doculuna/internal/config"
	"github.com/Iyke200/doculuna/internal/logger"
	"github.com/Iyke200/doculuna/internal/notify"
	"github.com/Iyke200/doculuna/internal/pgmq"
	"github.com/Iyke200/doculuna/internal/progression"
	"github.com/Iyke200/doculuna/internal/pubsub"
	"github.com/Iyke200/doculuna/internal/repository"
	"github.com/Iyke200/doculuna/internal/worker"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Worker mode: processing|cleanup")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Repositories run on a pgx pool; pgmq uses a database/sql handle.
	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open queue DB connection: %v", err)
	}
	defer db.Close()
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(db)

	historyRepo := repository.NewHistoryRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	grantRepo := repository.NewGrantRepo(pool)

	var runErr error
	switch *mode {
	case "processing":
		publisher, err := pubsub.NewPublisher(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		defer publisher.Close()
		dispatcher := notify.NewDispatcher(publisher, cfg.NotificationTopic, logger)
		progEngine := progression.NewEngine(
			repository.NewProgressionRepo(pool),
			repository.NewAchievementRepo(pool),
			repository.NewUserRepo(pool),
			dispatcher,
			logger,
		)
		processor := worker.NewProcessor(cfg, pgmqClient, historyRepo, repository.NewDLQRepo(pool), progEngine, dispatcher, logger)
		runErr = processor.Run(ctx)
	case "cleanup":
		sweeper := worker.NewSweeper(cfg, subRepo, grantRepo, historyRepo, logger)
		runErr = sweeper.Run(ctx)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s worker failed: %v", *mode, runErr)
	}
	logger.Info().Msgf("%s worker stopped gracefully", *mode)
}
