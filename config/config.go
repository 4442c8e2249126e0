package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Notify    NotifyConfig    `yaml:"notify"`
	Resolve   ResolveConfig   `yaml:"resolve"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"sslmode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka" or "mqtt"
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	RequestsTopic       string        `yaml:"requests_topic"`
	ConfirmationsTopic  string        `yaml:"confirmations_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	StationID           string        `yaml:"station_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// NotifyConfig controls outbound mail. With Enabled false, messages are
// written to the log instead of being sent.
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	From          string `yaml:"from"`
	ExternalTeam  string `yaml:"external_team"`
	SystemSignoff string `yaml:"system_signoff"`
}

// ResolveConfig tunes the orchestrator. With Simulate set, external requests
// are answered locally: detail requests get generated rows, and interface
// requests create the missing header when SimulateInterface is also set.
type ResolveConfig struct {
	Workers           int           `yaml:"workers"`
	RecheckDelay      time.Duration `yaml:"recheck_delay"`
	Simulate          bool          `yaml:"simulate"`
	SimulateInterface bool          `yaml:"simulate_interface"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "wmstriage.db"},
			Postgres: PostgresConfig{
				Host:           "localhost",
				Port:           5432,
				Database:       "wmstriage",
				User:           "wmstriage",
				Password:       "",
				SSLMode:        "disable",
				ConnectTimeout: 30 * time.Second,
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          5000,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "wmstriage",
			},
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "wmstriage",
			},
			RequestsTopic:       "wms.external.requests",
			ConfirmationsTopic:  "wms.external.confirmations",
			OutboxDrainInterval: 5 * time.Second,
			StationID:           "wms",
		},
		Notify: NotifyConfig{
			Enabled:       false,
			SMTPHost:      "smtp.gmail.com",
			SMTPPort:      587,
			From:          "wms-automation@company.com",
			ExternalTeam:  "sap_team@company.com",
			SystemSignoff: "Automated Warehouse Management System",
		},
		Resolve: ResolveConfig{
			Workers:           8,
			RecheckDelay:      5 * time.Second,
			Simulate:          true,
			SimulateInterface: false,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
