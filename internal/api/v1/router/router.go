package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/access"
	"github.com/Iyke200/doculuna/internal/api/v1/handler"
	"github.com/Iyke200/doculuna/internal/config"
	"github.com/Iyke200/doculuna/internal/counter"
	"github.com/Iyke200/doculuna/internal/middleware"
	"github.com/Iyke200/doculuna/internal/migrate"
	"github.com/Iyke200/doculuna/internal/notify"
	"github.com/Iyke200/doculuna/internal/pgmq"
	"github.com/Iyke200/doculuna/internal/progression"
	"github.com/Iyke200/doculuna/internal/pubsub"
	"github.com/Iyke200/doculuna/internal/quota"
	"github.com/Iyke200/doculuna/internal/ratelimit"
	"github.com/Iyke200/doculuna/internal/recommend"
	"github.com/Iyke200/doculuna/internal/repository"
	"github.com/Iyke200/doculuna/internal/service"
)

// New wires the full HTTP surface: storage, counters, the access engine and
// every v1 handler. The returned cleanup func releases all connections.
func New(ctx context.Context, cfg *config.Config, jwtSecret string, logger zerolog.Logger) (http.Handler, func(), error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	dsn := cfg.DBConnectionString
	// In development we disable SSL for local testing; production connection
	// strings carry their own SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	// Two connections to the same database: a pgx pool for the repositories
	// and a database/sql handle for pgmq and migrations.
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open queue DB connection")
		pool.Close()
		return nil, nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := migrate.Up(db); err != nil {
		logger.Error().Err(err).Msg("Failed to apply migrations")
		pool.Close()
		db.Close()
		return nil, nil, err
	}

	store, err := counter.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis")
		pool.Close()
		db.Close()
		return nil, nil, err
	}

	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		pool.Close()
		db.Close()
		store.Close()
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	publisher, err := pubsub.NewPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
		pool.Close()
		db.Close()
		store.Close()
		return nil, nil, err
	}

	policies, err := quota.ParsePolicies(cfg.QuotaPolicies)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid quota policy configuration")
		pool.Close()
		db.Close()
		store.Close()
		return nil, nil, err
	}

	userRepo := repository.NewUserRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	grantRepo := repository.NewGrantRepo(pool)
	progRepo := repository.NewProgressionRepo(pool)
	achRepo := repository.NewAchievementRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)

	ledger := quota.NewLedger(store, policies, logger)
	accessMgr := access.NewManager(subRepo, grantRepo, ledger, cfg.AdminUserIDs, logger)
	dispatcher := notify.NewDispatcher(publisher, cfg.NotificationTopic, logger)
	progEngine := progression.NewEngine(progRepo, achRepo, userRepo, dispatcher, logger)
	recEngine := recommend.NewEngine(historyRepo, store, progEngine, logger)
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitPerMinute, time.Minute, logger)
	queue := pgmq.New(db)

	userSvc := service.NewUserService(userRepo, logger)
	docSvc := service.NewDocumentService(historyRepo, s3Client, cfg.S3Bucket, queue, cfg.ProcessingQueueName, logger)
	billingSvc := service.NewBillingService(subRepo, accessMgr, dispatcher, cfg.GraceHours, logger)

	docHandler := handler.NewDocumentHandler(docSvc, accessMgr, validate)
	profileHandler := handler.NewProfileHandler(progEngine, userSvc, validate)
	recHandler := handler.NewRecommendationHandler(recEngine, validate)
	adminHandler := handler.NewAdminHandler(accessMgr, validate)
	billingHandler := handler.NewBillingHandler(billingSvc, accessMgr, validate)

	authMiddleware := middleware.AuthMiddleware(jwtSecret, userSvc.Ensure, logger)
	rateLimitMiddleware := middleware.RateLimitMiddleware(limiter)
	// Auth resolves the subject first; the limiter keys on it.
	protected := func(next http.Handler) http.Handler {
		return authMiddleware(rateLimitMiddleware(next))
	}

	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	docHandler.RegisterRoutes(apiV1Mux, protected)
	profileHandler.RegisterRoutes(apiV1Mux, protected)
	recHandler.RegisterRoutes(apiV1Mux, protected)
	adminHandler.RegisterRoutes(apiV1Mux, protected)
	billingHandler.RegisterRoutes(apiV1Mux, protected)

	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	cleanup := func() {
		publisher.Close()
		pool.Close()
		db.Close()
		store.Close()
	}
	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
