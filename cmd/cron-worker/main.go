package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	cartstorage "github.com/angelmondragon/shoppingcart/internal/cart/storage"
	"github.com/angelmondragon/shoppingcart/internal/cart/storage/database"
	"github.com/angelmondragon/shoppingcart/internal/cron"
	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/angelmondragon/shoppingcart/pkg/db"
	"github.com/angelmondragon/shoppingcart/pkg/instance"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"github.com/angelmondragon/shoppingcart/pkg/metrics"
	"github.com/angelmondragon/shoppingcart/pkg/migrate"
	"github.com/angelmondragon/shoppingcart/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	jobName := flag.String("job", "", "with -once, run only the named job")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = &cron.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	registry := cron.NewRegistry()
	if job, err := expiredCartJob(cfg, logg, dbClient, jobMetrics); err != nil {
		logg.Error(context.Background(), "failed to create expired cart job", err)
		os.Exit(1)
	} else if err := registry.Register(job); err != nil {
		logg.Error(context.Background(), "failed to register expired cart job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
		"jobs":        registry.Names(),
	})

	if *once {
		logg.Info(ctx, "running single cron cycle")
		run := service.RunOnce
		if *jobName != "" {
			run = func(ctx context.Context) error { return service.RunJob(ctx, *jobName) }
		}
		if err := run(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

// expiredCartJob is only registered for the database backend; session carts
// expire through the redis TTL.
func expiredCartJob(cfg *config.Config, logg *logger.Logger, client *db.Client, m *metrics.CronJobMetrics) (cron.Job, error) {
	acc := config.NewAccessor(cfg.Cart.Provider())
	if acc.String(config.KeyStorage, config.StorageSession) != config.StorageDatabase {
		logg.Info(context.Background(), "cart storage is not database; expired cart purge disabled")
		return nil, nil
	}
	store, err := database.New(database.Params{
		DB: client,
		Tables: database.Tables{
			Carts: cfg.Cart.CartsTable,
			Items: cfg.Cart.CartItemsTable,
		},
		Expiration: cartstorage.Expiration(acc),
	})
	if err != nil {
		return nil, err
	}
	connection := cfg.Cart.DBConnection
	if connection == "" {
		connection = "default"
	}
	return cron.NewExpiredCartJob(cron.ExpiredCartJobParams{
		Logger:  logg,
		Metrics: m,
		Purgers: map[string]cron.CartPurger{connection: store},
		Grace:   cfg.Cron.ExpiredCartGrace,
		Batch:   cfg.Cron.ExpiredCartBatch,
	})
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", lockName, env)
}
