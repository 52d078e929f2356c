// Package config loads the bot configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN" validate:"required"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!" validate:"required"`
	DeveloperID   string `env:"DEVELOPER_ID"`

	MediaFolder     string        `env:"MEDIA_FOLDER" envDefault:"media" validate:"required"`
	MediaExtensions []string      `env:"MEDIA_EXTENSIONS" envSeparator:","`
	DefaultVolume   int           `env:"DEFAULT_VOLUME" envDefault:"50" validate:"gte=0,lte=100"`
	ResolveTimeout  time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	Health HealthConfig

	TemplatesPath string `env:"TEMPLATES_PATH" envDefault:"templates.yaml"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json" validate:"required"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"omitempty,oneof=debug info warn warning error"`
	LogFile  string `env:"LOG_FILE"`
}

// HealthConfig configures the game server probe.
type HealthConfig struct {
	Enabled     bool          `env:"HEALTH_ENABLED" envDefault:"true"`
	Host        string        `env:"HEALTH_HOST"`
	IPLookupURL string        `env:"HEALTH_IP_LOOKUP_URL" envDefault:"https://api.ipify.org" validate:"omitempty,url"`
	Port        int           `env:"HEALTH_PORT" envDefault:"25565" validate:"gte=1,lte=65535"`
	Interval    time.Duration `env:"HEALTH_INTERVAL" envDefault:"60s" validate:"gt=0"`
	Timeout     time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s" validate:"gt=0"`
}

// Load reads envFiles (default ".env") into the process environment and
// parses the result. A missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Info().Str("component", "config").Msg("No .env file found, falling back to system environment variables")
	}
	return Parse()
}

// Parse builds a Config from the current environment and validates it.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
