package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	Secret          string        `mapstructure:"secret"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Room            RoomConfig    `mapstructure:"room"`
	JoinRate        RateConfig    `mapstructure:"join_rate"`
}

type RoomConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	CodeLength    int           `mapstructure:"code_length"`
	CodeAttempts  int           `mapstructure:"code_attempts"`
	CodeRetention time.Duration `mapstructure:"code_retention"`
}

type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

var ErrInvalidConfig = errors.New("invalid config")

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("shutdown_timeout", "5s")
	v.SetDefault("room.idle_timeout", "30m")
	v.SetDefault("room.sweep_interval", "1m")
	v.SetDefault("room.code_length", 6)
	v.SetDefault("room.code_attempts", 32)
	v.SetDefault("room.code_retention", "24h")
	v.SetDefault("join_rate.limit", 5)
	v.SetDefault("join_rate.interval", "10s")
}

// Load reads config/config.<CONFIG_ENV>.yaml on top of defaults.
// MURMUR_* environment variables override both.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("MURMUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Dur("idle_timeout", cfg.Room.IdleTimeout).Dur("sweep_interval", cfg.Room.SweepInterval).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	case c.Room.IdleTimeout <= 0:
		return fmt.Errorf("%w: room.idle_timeout must be positive", ErrInvalidConfig)
	case c.Room.SweepInterval <= 0:
		return fmt.Errorf("%w: room.sweep_interval must be positive", ErrInvalidConfig)
	case c.Room.CodeLength <= 0:
		return fmt.Errorf("%w: room.code_length must be positive", ErrInvalidConfig)
	case c.Room.CodeAttempts <= 0:
		return fmt.Errorf("%w: room.code_attempts must be positive", ErrInvalidConfig)
	case c.Room.CodeRetention < 0:
		return fmt.Errorf("%w: room.code_retention must not be negative", ErrInvalidConfig)
	case c.JoinRate.Limit <= 0 || c.JoinRate.Interval <= 0:
		return fmt.Errorf("%w: join_rate must be positive", ErrInvalidConfig)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}
