package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	// IdleTimeout closes sessions that send nothing, heartbeats included. Zero disables it.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type GameConfig struct {
	HandSize     int           `mapstructure:"hand_size"`
	MaxPlayers   int           `mapstructure:"max_players"`
	EndedRoomTTL time.Duration `mapstructure:"ended_room_ttl"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // debug, release
}

// DatabaseConfig 数据库配置. Driver is one of postgres, sqlite, pq or empty
// (records are not stored).
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	DSN      string         `mapstructure:"dsn"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a libpq key/value connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("server.idle_timeout", 2*time.Minute)

	v.SetDefault("game.hand_size", 7)
	v.SetDefault("game.max_players", 6)
	v.SetDefault("game.ended_room_ttl", 5*time.Minute)

	v.SetDefault("log.mode", "release")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "dhumbal")
	v.SetDefault("database.postgres.sslmode", "disable")
}

// LoadConfig reads config.yaml from path when present. Every key can be
// overridden from the environment, e.g. DHUMBAL_SERVER_HTTP_ADDRESS.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("dhumbal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Game.HandSize < 1 {
		return nil, fmt.Errorf("game.hand_size must be positive, got %d", cfg.Game.HandSize)
	}
	return &cfg, nil
}
