package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker settings. An empty broker list disables publishing.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Load reads an optional .env file and returns a viper bound to prefix_* env vars.
func Load(prefix string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "5m")
	return v, nil
}

// GetServicePort returns the listen address for key, e.g. ":8080".
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// GetAppEnv returns the deployment environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("APP_ENV")
}

// LoadDatabaseConfig reads DB_* settings, taking the database name from dbNameKey.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	return DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetInt("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
}

// LoadJWTConfig reads JWT_* settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
		RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
	}
}

// LoadKafkaConfig reads KAFKA_* settings. Brokers are comma separated.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
		GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
	}
}

// LoadRedisConfig reads REDIS_* settings.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		TTL:      v.GetDuration("REDIS_TTL"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
