package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	TrackHook TrackHookConfig `yaml:"trackhook"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	NotificationsTopicName string `yaml:"notifications_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TrackHookConfig struct {
	HTTPAddr         string `yaml:"http_addr"`
	NotifierHTTPAddr string `yaml:"notifier_http_addr"`
	LogLevel         string `yaml:"log_level"`

	WebhookSecret string `yaml:"webhook_secret"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`

	// Окно "одной минуты" и приоритеты статусов для выбора релевантного события.
	RelevanceWindowMs int            `yaml:"relevance_window_ms"`
	StatusPriority    map[string]int `yaml:"status_priority"`

	NotifyMode         string `yaml:"notify_mode"` // "inline" | "kafka"
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	CourierCacheTTLSeconds  int `yaml:"courier_cache_ttl_seconds"`
	WhatsAppCacheTTLSeconds int `yaml:"whatsapp_cache_ttl_seconds"`

	RelayURL                string `yaml:"relay_url"`
	RelayAPIKey             string `yaml:"relay_api_key"`
	RelayTimeoutSeconds     int    `yaml:"relay_timeout_seconds"`
	RelayRateLimitPerMinute int    `yaml:"relay_rate_limit_per_minute"`
	WhatsAppStatusURL       string `yaml:"whatsapp_status_url"`

	Timezone string `yaml:"timezone"`
}

const (
	NotifyModeInline = "inline"
	NotifyModeKafka  = "kafka"
)

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if s := os.Getenv("WEBHOOK_SECRET"); s != "" {
		config.TrackHook.WebhookSecret = s
	}

	return &config, nil
}

func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) NotificationsTopic() string {
	if c.Kafka.NotificationsTopicName == "" {
		return "trackhook.notifications"
	}
	return c.Kafka.NotificationsTopicName
}

func (c *Config) NotifyMode() string {
	if c.TrackHook.NotifyMode == NotifyModeKafka {
		return NotifyModeKafka
	}
	return NotifyModeInline
}

// RelevanceWindow: 0 means the built-in 60s window.
func (c *Config) RelevanceWindow() time.Duration {
	return time.Duration(c.TrackHook.RelevanceWindowMs) * time.Millisecond
}

func (c *Config) CourierCacheTTL() time.Duration {
	return seconds(c.TrackHook.CourierCacheTTLSeconds, time.Hour)
}

func (c *Config) WhatsAppCacheTTL() time.Duration {
	return seconds(c.TrackHook.WhatsAppCacheTTLSeconds, time.Minute)
}

func (c *Config) RelayTimeout() time.Duration {
	return seconds(c.TrackHook.RelayTimeoutSeconds, 10*time.Second)
}

// seconds: negative disables (0), zero takes the default.
func seconds(v int, def time.Duration) time.Duration {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	default:
		return time.Duration(v) * time.Second
	}
}
