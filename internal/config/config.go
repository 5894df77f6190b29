package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the service configuration, loaded from a YAML file with
// SETTINGSD_* environment overrides.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Storage struct {
		Driver string `mapstructure:"driver"` // postgres or redis

		Postgres struct {
			Host            string        `mapstructure:"host"`
			Port            int           `mapstructure:"port"`
			User            string        `mapstructure:"user"`
			Password        string        `mapstructure:"password"`
			Database        string        `mapstructure:"database"`
			SSLMode         string        `mapstructure:"ssl_mode"`
			MaxConnections  int           `mapstructure:"max_connections"`
			IdleConnections int           `mapstructure:"idle_connections"`
			MaxLifetime     time.Duration `mapstructure:"max_lifetime"`
		} `mapstructure:"postgres"`

		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"storage"`

	Definitions struct {
		Path  string `mapstructure:"path"`
		Watch bool   `mapstructure:"watch"`
	} `mapstructure:"definitions"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// Load reads settingsd.yaml from SETTINGSD_CONFIG or /etc/settingsd/settingsd.yaml.
// Environment variables (SETTINGSD_STORAGE_DRIVER, ...) override file values.
// A missing file is not an error; defaults and env apply.
func Load() (*Config, error) {
	cfgPath := os.Getenv("SETTINGSD_CONFIG")
	if cfgPath == "" {
		cfgPath = "/etc/settingsd/settingsd.yaml"
	}

	v := viper.New()
	v.SetConfigFile(cfgPath)
	v.SetEnvPrefix("SETTINGSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default, even a zero one: AutomaticEnv only
	// surfaces keys viper already knows, so a key without a default
	// could not be set from the environment alone.
	v.SetDefault("server.addr", ":8085")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "settingsd")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.database", "settingsd")
	v.SetDefault("storage.postgres.ssl_mode", "disable")
	v.SetDefault("storage.postgres.max_connections", 0)
	v.SetDefault("storage.postgres.idle_connections", 0)
	v.SetDefault("storage.postgres.max_lifetime", time.Duration(0))
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("definitions.path", "")
	v.SetDefault("definitions.watch", true)
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
