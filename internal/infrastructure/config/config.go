package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CascadeWorkers sizes the background pool that scrubs sharing
	// references after a group deletion.
	CascadeWorkers int `env:"CASCADE_WORKERS, default=4"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig drives the authentication gate. Mode "credentialed" requires
// AUTH_JWT_SECRET to be set; mode "bypass" skips credential checks entirely
// and is meant for local single-user setups.
type AuthConfig struct {
	Mode             string        `env:"AUTH_MODE,               default=credentialed"`
	JWTSecret        string        `env:"AUTH_JWT_SECRET"`
	TokenTTL         time.Duration `env:"AUTH_TOKEN_TTL,          default=24h"`
	LoginMaxAttempts int           `env:"AUTH_LOGIN_MAX_ATTEMPTS, default=5"`
	LoginWindow      time.Duration `env:"AUTH_LOGIN_WINDOW,       default=15m"`
	SessionSweep     time.Duration `env:"AUTH_SESSION_SWEEP,      default=5m"`
	BcryptCost       int           `env:"AUTH_BCRYPT_COST,        default=12"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=chat_platform"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
