package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/pubsub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Chat      ChatConfig
	Auth      AuthConfig
	PubSub    pubsub.Config `mapstructure:"pubsub"`
	Store     store.Config  `mapstructure:"store"`
	History   HistoryConfig `mapstructure:"history"`
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// ChatConfig carries chat semantics settings. Timezone is the canonical
// zone every message is stamped in.
type ChatConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// HistoryConfig configures the room history API and its Redis cache.
type HistoryConfig struct {
	CacheEnabled  bool          `mapstructure:"cache_enabled"`
	CacheAddress  string        `mapstructure:"cache_address"`
	CachePassword string        `mapstructure:"cache_password"`
	CacheDB       int           `mapstructure:"cache_db"`
	CachePrefix   string        `mapstructure:"cache_prefix"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration from ./config/config.yaml (optional) and
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file: rely on defaults and env vars.
	}

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("chat.timezone", "Asia/Seoul")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.redis.read_timeout", "3s")
	v.SetDefault("pubsub.redis.write_timeout", "3s")
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.topic", "chat-messages")
	v.SetDefault("pubsub.kafka.group_id", "chat-relay")
	v.SetDefault("pubsub.kafka.partitions", 8)
	v.SetDefault("store.driver", "mysql")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 3306)
	v.SetDefault("store.user", "chat")
	v.SetDefault("store.password", "")
	v.SetDefault("store.db_name", "baedalfriend")
	v.SetDefault("store.ssl_mode", "disable")
	v.SetDefault("store.file_path", "chat.db")
	v.SetDefault("store.max_idle_conns", 10)
	v.SetDefault("store.max_open_conns", 50)
	v.SetDefault("store.conn_max_lifetime", 30)
	v.SetDefault("store.cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("store.cassandra.keyspace", "baedalfriend")
	v.SetDefault("store.cassandra.consistency", "LOCAL_QUORUM")
	v.SetDefault("store.cassandra.connect_timeout", "10s")
	v.SetDefault("store.cassandra.timeout", "5s")
	v.SetDefault("history.cache_enabled", false)
	v.SetDefault("history.cache_address", "localhost:6379")
	v.SetDefault("history.cache_password", "")
	v.SetDefault("history.cache_db", 1)
	v.SetDefault("history.cache_prefix", "chat:history")
	v.SetDefault("history.cache_ttl", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-relay")

	// Env overrides
	v.BindEnv("server.port", "PORT")
	v.BindEnv("chat.timezone", "CHAT_TIMEZONE")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("pubsub.kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.host", "STORE_HOST")
	v.BindEnv("store.password", "STORE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.PubSub.Redis.ReadTimeout = parseDuration(v, "pubsub.redis.read_timeout", 3*time.Second)
	cfg.PubSub.Redis.WriteTimeout = parseDuration(v, "pubsub.redis.write_timeout", 3*time.Second)
	cfg.Store.Cassandra.ConnectTimeout = parseDuration(v, "store.cassandra.connect_timeout", 10*time.Second)
	cfg.Store.Cassandra.Timeout = parseDuration(v, "store.cassandra.timeout", 5*time.Second)
	cfg.History.CacheTTL = parseDuration(v, "history.cache_ttl", 30*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
