package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the recommendation engine
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	Log         LogConfig         `mapstructure:"log"`
}

// DatabaseConfig holds MySQL connection settings for the data gateway
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// DSN builds the MySQL data source name. parseTime is required so DATE
// columns scan into time.Time.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// GatewayConfig holds settings for calls to the external data source
type GatewayConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	QueriesPerSecond float64       `mapstructure:"queries_per_second"`
	Burst            int           `mapstructure:"burst"`
}

// RecommenderConfig holds recommendation defaults
type RecommenderConfig struct {
	FoodTopN   int `mapstructure:"food_top_n"`
	SportTopN  int `mapstructure:"sport_top_n"`
	KNeighbors int `mapstructure:"k_neighbors"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ZerologLevel maps the configured level name to a zerolog level. Unknown
// names fall back to info.
func (l LogConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/calorio/")

	// Environment variable settings
	v.SetEnvPrefix("CALORIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "calories_app")

	// Gateway defaults
	v.SetDefault("gateway.timeout", "5s")
	v.SetDefault("gateway.queries_per_second", 100.0)
	v.SetDefault("gateway.burst", 20)

	// Recommender defaults
	v.SetDefault("recommender.food_top_n", 3)
	v.SetDefault("recommender.sport_top_n", 3)
	v.SetDefault("recommender.k_neighbors", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Name == "" {
		return fmt.Errorf("database name is required (set CALORIO_DATABASE_NAME)")
	}

	if config.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got: %s", config.Gateway.Timeout)
	}

	if config.Recommender.FoodTopN <= 0 || config.Recommender.SportTopN <= 0 {
		return fmt.Errorf("recommendation top-n values must be positive")
	}

	if config.Recommender.KNeighbors <= 0 {
		return fmt.Errorf("k_neighbors must be positive, got: %d", config.Recommender.KNeighbors)
	}

	return nil
}
