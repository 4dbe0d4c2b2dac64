package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/facetlabs/facet/internal/adapters/api"
	"github.com/facetlabs/facet/internal/adapters/cache"
	"github.com/facetlabs/facet/internal/adapters/database"
	"github.com/facetlabs/facet/internal/domain/auctions"
	"github.com/facetlabs/facet/internal/domain/diamonds"
	"github.com/facetlabs/facet/internal/domain/monitor"
	"github.com/facetlabs/facet/internal/domain/results"
	"github.com/facetlabs/facet/internal/domain/userbids"
	"github.com/facetlabs/facet/internal/domain/users"
	"github.com/facetlabs/facet/internal/migrations"
	"github.com/facetlabs/facet/pkg/auth"
	pkgdb "github.com/facetlabs/facet/pkg/database"
	pkgevents "github.com/facetlabs/facet/pkg/events"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Error("DATABASE_URL is not set")
		os.Exit(1)
	}

	pool, err := pkgdb.Connect(ctx, dbURL)
	if err != nil {
		logger.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Postgres Connected")

	// 2. Run Migrations
	if err := migrations.Up(ctx, pool); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Migrations applied")

	// 3. Initialize Token Signer
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	signer := auth.NewSigner([]byte(jwtSecret), getenv("JWT_ISSUER", "facet"), 24*time.Hour)

	// 4. Initialize Redis Token Denylist
	rdb := redis.NewClient(&redis.Options{Addr: getenv("REDIS_URL", "localhost:6379")})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Unable to ping Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Redis Connected")
	denylist := cache.NewRedisTokenDenylist(rdb)

	// 5. Connect RabbitMQ
	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		logger.Error("RABBITMQ_URL is not set")
		os.Exit(1)
	}

	amqpConn, err := amqp091.Dial(rabbitURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	exchange := getenv("EVENTS_EXCHANGE", "auction.events")
	publisher, err := pkgevents.NewRabbitMQPublisher(amqpConn, exchange)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	// 6. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	userRepo := database.NewPostgresUserRepository(pool)
	diamondRepo := database.NewPostgresDiamondRepository(pool)
	auctionRepo := database.NewPostgresAuctionRepository(pool)
	userBidRepo := database.NewPostgresUserBidRepository(pool)
	resultRepo := database.NewPostgresResultRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository()

	// 7. Initialize Services (Domain Layer)
	userService := users.NewService(userRepo, outboxRepo, txManager, signer, denylist)
	diamondService := diamonds.NewService(diamondRepo)
	auctionService := auctions.NewService(auctionRepo, diamondRepo, userBidRepo, resultRepo)
	bidService := userbids.NewService(userBidRepo, auctionRepo, userRepo, outboxRepo, txManager)
	resultService := results.NewService(resultRepo, auctionRepo, userBidRepo, outboxRepo, txManager)
	monitorService := monitor.NewService(auctionRepo, diamondRepo, userBidRepo)

	// 8. Initialize HTTP Router
	router := api.NewRouter(api.Handlers{
		Auth:     api.NewAuthHandler(userService, logger),
		Users:    api.NewUserHandler(userService, logger),
		Diamonds: api.NewDiamondHandler(diamondService, logger),
		Auctions: api.NewAuctionHandler(auctionService, logger),
		Bids:     api.NewBidHandler(bidService, logger),
		Results:  api.NewResultHandler(resultService, logger),
		Monitor:  api.NewMonitorHandler(monitorService, logger),
	}, signer, denylist, logger)

	// 9. Start Outbox Relay and HTTP Server
	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		10,            // batch size
		1*time.Second, // interval
		exchange,
		logger,
	)

	addr := getenv("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Outbox Relay")
		return relay.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting API server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
