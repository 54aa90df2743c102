package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every runtime setting. It is loaded once in main and passed
// down explicitly; nothing reads the environment after startup.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	GinMode    string `mapstructure:"GIN_MODE"`

	// Database. Driver is one of sqlite, mysql, postgres.
	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	// DBPath is the sqlite file path; only used when DBDriver is sqlite.
	DBPath string `mapstructure:"DB_PATH"`

	// Sessions. When RedisHost is set the session store is redis-backed,
	// otherwise a signed cookie store is used.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`

	// Google federation
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`

	LogFile string `mapstructure:"LOG_FILE"`
}

// Load reads configuration from the environment, optionally overlaid by a
// .env file in the given path.
func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_USER", "taskuser")
	viper.SetDefault("DB_PASSWORD", "taskpassword")
	viper.SetDefault("DB_NAME", "taskdb")
	viper.SetDefault("DB_PATH", "taskdb.db")
	viper.SetDefault("SESSION_SECRET", "default-secret-key-change-me")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/login/google/callback")
	viper.SetDefault("LOG_FILE", "logs/server.log")
}

// MySQLDSN builds the mysql connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// PostgresDSN builds the postgres connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// RedisAddr returns the redis address, or empty when redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}
