package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	SMS      SMSConfig      `yaml:"sms"`
	Tracking TrackingConfig `yaml:"tracking"`
	Delay    DelayConfig    `yaml:"delay"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address      string   `yaml:"address"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	DelayEventsTopic   string   `yaml:"delay_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type SMSConfig struct {
	GatewayURL     string `yaml:"gateway_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TrackingConfig struct {
	SnapshotCacheTTLSeconds int    `yaml:"snapshot_cache_ttl_seconds"`
	DefaultHub              string `yaml:"default_hub"`
}

type DelayConfig struct {
	LockTTLSeconds     int `yaml:"lock_ttl_seconds"`
	SendTimeoutSeconds int `yaml:"send_timeout_seconds"`
}

type WorkerConfig struct {
	StatusSweepMinutes int `yaml:"status_sweep_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
