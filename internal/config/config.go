package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceName    string   `yaml:"service_name"`
	DatabaseURL    string   `yaml:"database_url"`
	JWTSecret      string   `yaml:"jwt_secret"`
	JWTIssuer      string   `yaml:"jwt_issuer"`
	HTTPListenAddr string   `yaml:"http_listen_addr"`
	LogLevel       string   `yaml:"log_level"`
	CORSOrigins    []string `yaml:"cors_origins"`
	DevMode        bool     `yaml:"dev_mode"`

	// Timezone is the IANA zone used for the daily session window and report schedule.
	Timezone       string `yaml:"timezone"`
	SessionEndHour int    `yaml:"session_end_hour"`

	DemoMinInterval time.Duration `yaml:"demo_min_interval"`
	DemoMaxInterval time.Duration `yaml:"demo_max_interval"`

	ResendAPIKey string `yaml:"resend_api_key"`
	ResendAPIURL string `yaml:"resend_api_url"`
	ContactTo    string `yaml:"contact_to"`
	MailFrom     string `yaml:"mail_from"`

	ReportSchedule string `yaml:"report_schedule"`
	ExportSchedule string `yaml:"export_schedule"`

	InfluxURL    string `yaml:"influx_url"`
	InfluxToken  string `yaml:"influx_token"`
	InfluxOrg    string `yaml:"influx_org"`
	InfluxBucket string `yaml:"influx_bucket"`

	MQTTBrokerURL string `yaml:"mqtt_broker_url"`
	MQTTClientID  string `yaml:"mqtt_client_id"`
	MQTTTopic     string `yaml:"mqtt_topic"`
	MQTTTLSCert   string `yaml:"mqtt_tls_cert"`
	MQTTTLSKey    string `yaml:"mqtt_tls_key"`
	MQTTTLSCACert string `yaml:"mqtt_tls_ca_cert"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroupID string   `yaml:"kafka_group_id"`

	KafkaTLSCert   string `yaml:"kafka_tls_cert"`
	KafkaTLSKey    string `yaml:"kafka_tls_key"`
	KafkaTLSCACert string `yaml:"kafka_tls_ca_cert"`

	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Region    string `yaml:"s3_region"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
}

// Load reads an optional YAML file (CONFIG_PATH, default config.yaml) and then
// applies environment overrides on top of it.
func Load() (*Config, error) {
	cfg := &Config{}

	path := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	envOverride(&cfg.ServiceName, "SERVICE_NAME")
	envOverride(&cfg.DatabaseURL, "DATABASE_URL")
	envOverride(&cfg.JWTSecret, "JWT_SECRET")
	envOverride(&cfg.JWTIssuer, "JWT_ISSUER")
	envOverride(&cfg.HTTPListenAddr, "HTTP_LISTEN_ADDR")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverrideList(&cfg.CORSOrigins, "CORS_ORIGINS")
	envOverrideBool(&cfg.DevMode, "DEV_MODE")
	envOverride(&cfg.Timezone, "TIMEZONE")
	if err := envOverrideInt(&cfg.SessionEndHour, "SESSION_END_HOUR"); err != nil {
		return nil, err
	}
	if err := envOverrideDuration(&cfg.DemoMinInterval, "DEMO_MIN_INTERVAL"); err != nil {
		return nil, err
	}
	if err := envOverrideDuration(&cfg.DemoMaxInterval, "DEMO_MAX_INTERVAL"); err != nil {
		return nil, err
	}
	envOverride(&cfg.ResendAPIKey, "RESEND_API_KEY")
	envOverride(&cfg.ResendAPIURL, "RESEND_API_URL")
	envOverride(&cfg.ContactTo, "CONTACT_TO")
	envOverride(&cfg.MailFrom, "MAIL_FROM")
	envOverride(&cfg.ReportSchedule, "REPORT_SCHEDULE")
	envOverride(&cfg.ExportSchedule, "EXPORT_SCHEDULE")
	envOverride(&cfg.InfluxURL, "INFLUX_URL")
	envOverride(&cfg.InfluxToken, "INFLUX_TOKEN")
	envOverride(&cfg.InfluxOrg, "INFLUX_ORG")
	envOverride(&cfg.InfluxBucket, "INFLUX_BUCKET")
	envOverride(&cfg.MQTTBrokerURL, "MQTT_BROKER_URL")
	envOverride(&cfg.MQTTClientID, "MQTT_CLIENT_ID")
	envOverride(&cfg.MQTTTopic, "MQTT_TOPIC")
	envOverride(&cfg.MQTTTLSCert, "MQTT_TLS_CERT")
	envOverride(&cfg.MQTTTLSKey, "MQTT_TLS_KEY")
	envOverride(&cfg.MQTTTLSCACert, "MQTT_TLS_CA_CERT")
	envOverrideList(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	envOverride(&cfg.KafkaTopic, "KAFKA_TOPIC")
	envOverride(&cfg.KafkaGroupID, "KAFKA_GROUP_ID")
	envOverride(&cfg.KafkaTLSCert, "KAFKA_TLS_CERT")
	envOverride(&cfg.KafkaTLSKey, "KAFKA_TLS_KEY")
	envOverride(&cfg.KafkaTLSCACert, "KAFKA_TLS_CA_CERT")
	envOverride(&cfg.S3Endpoint, "S3_ENDPOINT")
	envOverride(&cfg.S3Region, "S3_REGION")
	envOverride(&cfg.S3Bucket, "S3_BUCKET")
	envOverride(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	envOverride(&cfg.S3SecretKey, "S3_SECRET_KEY")

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.ServiceName, "dashboard-api")
	setDefault(&c.JWTIssuer, "dashboard-api")
	setDefault(&c.HTTPListenAddr, ":8080")
	setDefault(&c.LogLevel, "info")
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:5173"}
	}
	setDefault(&c.Timezone, "Local")
	if c.SessionEndHour == 0 {
		c.SessionEndHour = 17
	}
	if c.DemoMinInterval == 0 {
		c.DemoMinInterval = 2 * time.Second
	}
	if c.DemoMaxInterval == 0 {
		c.DemoMaxInterval = 4 * time.Second
	}
	setDefault(&c.ResendAPIURL, "https://api.resend.com")
	setDefault(&c.MailFrom, "Revisent <noreply@revisent.com>")
	setDefault(&c.ReportSchedule, "0 17 * * *")
	setDefault(&c.ExportSchedule, "*/5 * * * *")
	setDefault(&c.MQTTClientID, "dashboard-api")
	setDefault(&c.MQTTTopic, "stations/+/detections")
	setDefault(&c.KafkaTopic, "detections")
	setDefault(&c.KafkaGroupID, "dashboard-api")
	setDefault(&c.S3Region, "us-east-1")
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.SessionEndHour < 1 || c.SessionEndHour > 24 {
		return fmt.Errorf("SESSION_END_HOUR must be between 1 and 24")
	}
	if err := c.ValidateDemo(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// ValidateDemo checks the simulated feed's tick bounds. It is all the
// simulate command needs, since that runs without a database.
func (c *Config) ValidateDemo() error {
	if c.DemoMinInterval <= 0 || c.DemoMaxInterval < c.DemoMinInterval {
		return fmt.Errorf("DEMO_MIN_INTERVAL must be positive and not exceed DEMO_MAX_INTERVAL")
	}
	return nil
}

// Location resolves Timezone. "Local" and "" map to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) EmailConfigured() bool  { return c.ResendAPIKey != "" }
func (c *Config) InfluxConfigured() bool { return c.InfluxURL != "" && c.InfluxBucket != "" }
func (c *Config) MQTTConfigured() bool   { return c.MQTTBrokerURL != "" }
func (c *Config) KafkaConfigured() bool  { return len(c.KafkaBrokers) > 0 }
func (c *Config) S3Configured() bool     { return c.S3Bucket != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setDefault(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func envOverrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	*dst = list
}

func envOverrideInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envOverrideDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
