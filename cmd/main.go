package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"coachtrips/cmd/buildCFG"
	"coachtrips/internal/api/api"
	"coachtrips/internal/booking"
	rabbitReader "coachtrips/internal/consumerWorker"
	"coachtrips/internal/live"
	"coachtrips/internal/rabbit"
	"coachtrips/internal/repo"
	"coachtrips/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	port := serverCfg.Port

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	if err := db.Master.Ping(); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	redisCfg, err := buildCFG.BuildRedisConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load Redis config")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisCfg.Addr, DB: redisCfg.DB})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Msgf("Redis ping failed: %v", err)
	}
	defer rdb.Close()

	smtpCfg := buildCFG.BuildSMTPConfig(cfg, &log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	hub := live.NewHub()
	listener := live.NewListener(rdb, redisCfg.Channel, hub, &log)
	go listener.Run(workerCtx)

	rabbitReaderer := rabbitReader.NewReader(rmq, repository, smtpCfg)
	go rabbitReaderer.Start(workerCtx)

	publisher := live.NewPublisher(rdb, redisCfg.Channel, &log)
	reminders := rabbit.NewReminderPublisher(rmq, buildCFG.BuildReminderDelay(cfg))

	// Cancel confirmations happen client-side; the confirm flag in the
	// request body is the gate's answer.
	ctrl := booking.NewController(repository, booking.ConfirmFromContext, publisher, reminders, &log)

	serviceInstance := service.NewService(repository, &log, ctrl, hub, smtpCfg)
	app := api.NewRouters(&api.Routers{Service: serviceInstance})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", port)
		if err := app.Run(":" + port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	rabbitReaderer.Stop()

	log.Info().Msg("Shutdown complete")
}
