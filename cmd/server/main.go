package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/cycle"
	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/mqtt"
	"github.com/inkwell-labs/inkwell/internal/plugins"
	redisclient "github.com/inkwell-labs/inkwell/internal/redis"
	"github.com/inkwell-labs/inkwell/internal/render"
	"github.com/inkwell-labs/inkwell/internal/schedule"
	"github.com/inkwell-labs/inkwell/internal/tasks"
)

const retentionSweepInterval = time.Hour

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on process environment")
	}
	env := LoadEnvironment()

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	if err := redisclient.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	store := db.NewStore()

	// Refuse to boot with plugin rows the registry cannot serve.
	registry := plugins.Default()
	sources, err := store.ListPluginSources()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list plugin sources")
	}
	if err := registry.Validate(sources); err != nil {
		log.Fatal().Err(err).Msg("plugin registry validation failed")
	}

	clock := schedule.Clock{EmptyWeekdaysMatchAll: env.EmptyWeekdaysMatchAll}
	margin := time.Duration(env.RefreshMarginSeconds) * time.Second
	queue := tasks.NewRedisQueue(redisclient.Rdb, env.RenderWorkers)
	scheduler := schedule.NewScheduler(store, queue, clock, margin)

	engine := render.NewEngine(env.BrowserRemoteURL)
	encoder := &render.Encoder{}

	runner := cycle.NewRunner(store, scheduler, registry, engine, encoder).
		WithArtifacts(InitStorage(env))

	if env.MQTTBrokerURL != "" {
		publisher, err := mqtt.NewPublisher(env.MQTTBrokerURL, "inkwell-server")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer publisher.Close()
		runner.WithNotifier(publisher)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx, runner.Handle)
	go runner.RunRetention(ctx, retentionSweepInterval)

	// Re-arm every known device so schedules survive a restart.
	now := time.Now().UTC()
	devices, err := store.ListDevices()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list devices at boot")
	}
	for i := range devices {
		if err := scheduler.Schedule(ctx, &devices[i], now); err != nil {
			log.Error().Err(err).Int("device_id", devices[i].ID).Msg("failed to re-arm device at boot")
		}
	}

	r := gin.Default()
	RegisterRoutes(r, env, store, scheduler, registry, engine, encoder)

	log.Info().Str("address", env.ServerAddress).Msg("server listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
