package main

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment    string
	ServerAddress  string
	PublicURL      string
	SecretKey      string
	AdminPassword  string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	BrowserRemoteURL      string
	RenderWorkers         int
	RefreshMarginSeconds  int
	EmptyWeekdaysMatchAll bool

	ArtifactDir     string
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

// LoadEnvironment reads and validates env vars
func LoadEnvironment() Environment {
	env := Environment{
		Environment:    os.Getenv("APP_ENV"),
		ServerAddress:  os.Getenv("SERVER_ADDRESS"),
		PublicURL:      os.Getenv("PUBLIC_URL"),
		SecretKey:      os.Getenv("JWT_SECRET"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD_HASH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		BrowserRemoteURL:      os.Getenv("BROWSER_REMOTE_URL"),
		RenderWorkers:         intEnv("RENDER_WORKERS", 4),
		RefreshMarginSeconds:  intEnv("SCREEN_REFRESH_MARGIN_SECONDS", 30),
		EmptyWeekdaysMatchAll: os.Getenv("SCHEDULER_EMPTY_WEEKDAYS_MATCH_ALL") == "true",

		ArtifactDir:     os.Getenv("ARTIFACT_DIR"),
		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}
	if env.ArtifactDir == "" {
		env.ArtifactDir = "./artifacts"
	}
	if env.PublicURL == "" {
		env.PublicURL = "http://" + env.ServerAddress
	}

	// Basic validation
	if env.DatabaseURL == "" || env.SecretKey == "" || env.ServerAddress == "" {
		log.Fatal().Msg("missing required environment variables (DATABASE_URL, JWT_SECRET, SERVER_ADDRESS)")
	}
	if env.AdminPassword == "" {
		log.Fatal().Msg("ADMIN_PASSWORD_HASH is required")
	}
	if env.RedisAddress == "" {
		log.Fatal().Msg("REDIS_ADDRESS is required")
	}

	return env
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", raw).Msg("invalid integer environment variable")
	}
	return n
}
