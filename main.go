// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"appointment-booking/cmd"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/usecase"
	"appointment-booking/internal/wire"
	"appointment-booking/internal/worker"
	"appointment-booking/pkg/cache"
	"appointment-booking/pkg/database"
	"appointment-booking/pkg/mq"
	"appointment-booking/pkg/utils"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run migrations
	if config.Database.MigrateOnStart {
		if err := database.Migrate(config.Database, logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis is optional for schedule caching
	var scheduleCache redis.Cmdable
	if rdb, err := cache.InitRedis(ctx, config.Redis); err != nil {
		logger.Warn("Redis unavailable, working schedules will not be cached", zap.Error(err))
	} else {
		defer rdb.Close()
		scheduleCache = rdb
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, scheduleCache, config.Redis.ScheduleCacheTTL, logger)

	// Notification delivery
	deliverer := usecase.NewLogDeliverer(logger)
	if config.RabbitMQ.Enabled {
		publisher, err := mq.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		deliverer = usecase.NewBrokerDeliverer(publisher)
	}

	// Completion and reminder scheduling
	var followUps usecase.FollowUpScheduler
	if config.Worker.Enabled {
		client := asynq.NewClient(worker.RedisOpt(config.Redis))
		defer client.Close()
		followUps = worker.NewScheduler(client, config.Worker.Queue, config.Booking.ReminderLeads, logger)
	}

	// Wire all dependencies
	app := wire.Wiring(repos, deliverer, followUps, config, logger)

	if config.Worker.Enabled {
		w, err := worker.NewWorker(worker.RedisOpt(config.Redis), config.Worker, app.Service.Booking, logger)
		if err != nil {
			logger.Fatal("Failed to create worker", zap.Error(err))
		}
		if err := w.Start(); err != nil {
			logger.Fatal("Failed to start worker", zap.Error(err))
		}
		defer w.Shutdown()
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
	}
}
