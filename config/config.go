package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root of the YAML config file.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Resource ResourceConfig `mapstructure:"resource"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Factory  FactoryConfig  `mapstructure:"factory"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// AdminIPs guards the admin endpoints. Empty allows any client IP.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// ResourceConfig points at the directory holding the species, move and
// rental-set JSON files.
type ResourceConfig struct {
	DataPath string `mapstructure:"data_path"`
}

type DatabaseConfig struct {
	// Mode picks the backend: embedded_memory, sqlite or mysql.
	Mode         string        `mapstructure:"mode"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

// CacheConfig selects Redis when redis_addr is set, otherwise the
// in-process cache and pub/sub.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type BattleConfig struct {
	EventBuffer  int           `mapstructure:"event_buffer"`
	InputTimeout time.Duration `mapstructure:"input_timeout"`
	Level        int           `mapstructure:"level"`
}

type FactoryConfig struct {
	DraftSize       int `mapstructure:"draft_size"`
	TeamSize        int `mapstructure:"team_size"`
	BattlesPerRound int `mapstructure:"battles_per_round"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins restricts who may open a WebSocket. Leave empty to
	// accept every origin, which is only sane in local development.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// defaults are applied before the file is read, so a sparse YAML still
// yields a runnable server.
var defaults = map[string]interface{}{
	"server.port":               8080,
	"server.debug":              false,
	"resource.data_path":        "./data",
	"database.mode":             "embedded_memory",
	"database.sqlite_path":      "./data/frontier.db",
	"database.mysql_max_open":   50,
	"database.mysql_max_idle":   10,
	"database.mysql_max_life":   "1h",
	"cache.local_gc_interval":   "30s",
	"cache.local_pubsub_buf":    256,
	"battle.event_buffer":       64,
	"battle.input_timeout":      "2m",
	"battle.level":              50,
	"factory.draft_size":        6,
	"factory.team_size":         3,
	"factory.battles_per_round": 7,
	"security.jwt_ttl_h":        "72h",
	"security.bcrypt_cost":      10,
	"security.rate_limit_rps":   100,
	"security.rate_limit_burst": 200,
}

// Load reads the YAML file at path on top of the built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
