package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Jobs      JobsConfig      `yaml:"jobs"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver" env:"PRODFLOW_DB_DRIVER"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PRODFLOW_SQLITE_PATH"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" env:"PRODFLOW_PG_HOST"`
	Port     int    `yaml:"port" env:"PRODFLOW_PG_PORT"`
	Database string `yaml:"database" env:"PRODFLOW_PG_DATABASE"`
	User     string `yaml:"user" env:"PRODFLOW_PG_USER"`
	Password string `yaml:"password" env:"PRODFLOW_PG_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"PRODFLOW_PG_SSLMODE"`
}

type RedisConfig struct {
	Address  string `yaml:"address" env:"PRODFLOW_REDIS_ADDRESS"`
	Password string `yaml:"password" env:"PRODFLOW_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"PRODFLOW_REDIS_DB"`
}

type WebConfig struct {
	Host          string `yaml:"host" env:"PRODFLOW_WEB_HOST"`
	Port          int    `yaml:"port" env:"PRODFLOW_WEB_PORT"`
	SessionSecret string `yaml:"session_secret" env:"PRODFLOW_SESSION_SECRET"`
	// TrustIdentityHeaders accepts X-User-Id / X-User-Role from the fronting gateway.
	TrustIdentityHeaders bool          `yaml:"trust_identity_headers" env:"PRODFLOW_TRUST_IDENTITY_HEADERS"`
	StreamBuffer         int           `yaml:"stream_buffer" env:"PRODFLOW_STREAM_BUFFER"`
	Keepalive            time.Duration `yaml:"keepalive" env:"PRODFLOW_STREAM_KEEPALIVE"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend" env:"PRODFLOW_MESSAGING_BACKEND"` // "kafka", "mqtt" or "" to disable
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	ApprovalsTopic      string        `yaml:"approvals_topic" env:"PRODFLOW_APPROVALS_TOPIC"`
	EventsTopic         string        `yaml:"events_topic" env:"PRODFLOW_EVENTS_TOPIC"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval" env:"PRODFLOW_OUTBOX_DRAIN_INTERVAL"`
	StationID           string        `yaml:"station_id" env:"PRODFLOW_STATION_ID"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"PRODFLOW_KAFKA_BROKERS" envSeparator:","`
	GroupID string   `yaml:"group_id" env:"PRODFLOW_KAFKA_GROUP_ID"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker" env:"PRODFLOW_MQTT_BROKER"`
	Port     int    `yaml:"port" env:"PRODFLOW_MQTT_PORT"`
	ClientID string `yaml:"client_id" env:"PRODFLOW_MQTT_CLIENT_ID"`
}

type CatalogConfig struct {
	TTL time.Duration `yaml:"ttl" env:"PRODFLOW_CATALOG_TTL"`
}

// JobsConfig holds six-field cron specs (seconds first). Empty disables a job.
type JobsConfig struct {
	KPISchedule          string `yaml:"kpi_schedule" env:"PRODFLOW_JOBS_KPI"`
	OrphanRepairSchedule string `yaml:"orphan_repair_schedule" env:"PRODFLOW_JOBS_ORPHAN_REPAIR"`
}

// DefaultSessionSecret is the placeholder secret shipped in Defaults.
const DefaultSessionSecret = "change-me-in-production"

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "prodflow.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "prodflow",
				User:     "prodflow",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8090,
			SessionSecret: DefaultSessionSecret,
			StreamBuffer:  64,
			Keepalive:     30 * time.Second,
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "prodflow",
			},
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "prodflow",
			},
			ApprovalsTopic:      "sales.orders",
			EventsTopic:         "production.events",
			OutboxDrainInterval: 5 * time.Second,
			StationID:           "prodflow",
		},
		Catalog: CatalogConfig{
			TTL: 60 * time.Second,
		},
		Jobs: JobsConfig{
			KPISchedule:          "0 */5 * * * *",
			OrphanRepairSchedule: "0 0 * * * *",
		},
	}
}

// Load reads the YAML file over the defaults, then applies PRODFLOW_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the service must not run with. Session cookies
// carry the caller's role, so they need a private secret unless identity
// comes from gateway headers.
func (c *Config) Validate() error {
	if c.Web.TrustIdentityHeaders {
		return nil
	}
	if c.Web.SessionSecret == "" || c.Web.SessionSecret == DefaultSessionSecret {
		return fmt.Errorf("web.session_secret must be set when trust_identity_headers is off")
	}
	return nil
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

func (c *Config) Lock() { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
