package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultConfigPath = "configs/config.yaml"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Media         MediaConfig         `mapstructure:"media"`
	Pagination    PaginationConfig    `mapstructure:"pagination"`
	Log           LogConfig           `mapstructure:"log"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	LoginURL     string        `mapstructure:"login_url"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string `mapstructure:"path"` // sqlite only
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	ConsumerGroup  string   `mapstructure:"consumer_group"`
	EmbeddedWorker bool     `mapstructure:"embedded_worker"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

type CacheConfig struct {
	Store    string        `mapstructure:"store"` // redis | memory
	IndexTTL time.Duration `mapstructure:"index_ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type MediaConfig struct {
	Root          string `mapstructure:"root"`
	URL           string `mapstructure:"url"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

type PaginationConfig struct {
	PageSize int `mapstructure:"page_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	AuthPerMinute int `mapstructure:"auth_per_minute"`
	AuthBurst     int `mapstructure:"auth_burst"`
}

type NotificationsConfig struct {
	Retention       time.Duration `mapstructure:"retention"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.login_url", "/auth/login/")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "yatube")
	v.SetDefault("database.password", "yatube")
	v.SetDefault("database.dbname", "yatube")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "yatube.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "yatube-events")
	v.SetDefault("kafka.consumer_group", "yatube-notifications")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_time", 24*time.Hour)

	v.SetDefault("cache.store", "redis")
	v.SetDefault("cache.index_ttl", 20*time.Second)
	v.SetDefault("cache.prefix", "yatube:page:")

	v.SetDefault("media.root", "uploads")
	v.SetDefault("media.url", "/media/")
	v.SetDefault("media.max_upload_size", 5<<20)

	v.SetDefault("pagination.page_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ratelimit.auth_per_minute", 30)
	v.SetDefault("ratelimit.auth_burst", 10)

	v.SetDefault("notifications.retention", 30*24*time.Hour)
	v.SetDefault("notifications.cleanup_schedule", "@every 1h")
}

// LoadConfig reads the file named by CONFIG_PATH, falling back to
// configs/config.yaml.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(os.Getenv("CONFIG_PATH"))
}

// LoadConfigFrom reads configuration from path. A missing file is not an
// error: defaults and YATUBE_* environment variables still apply.
func LoadConfigFrom(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("YATUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported cache store %q", c.Cache.Store)
	}
	if c.Pagination.PageSize < 1 {
		return errors.New("pagination.page_size must be positive")
	}
	return nil
}

// DSN builds the driver connection string. Sqlite connections always get
// foreign keys enabled; cascades and the post author restriction depend on
// them.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		if strings.Contains(c.Path, "_foreign_keys=") || strings.Contains(c.Path, "_fk=") {
			return c.Path
		}
		sep := "?"
		if strings.Contains(c.Path, "?") {
			sep = "&"
		}
		return c.Path + sep + "_foreign_keys=on"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
