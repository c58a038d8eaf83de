package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for an irrigation-platform service
type Config struct {
	// MQTT configuration
	MQTTBroker   string `yaml:"mqtt_broker"`
	MQTTPort     int    `yaml:"mqtt_port"`
	MQTTUser     string `yaml:"mqtt_user"`
	MQTTPassword string `yaml:"mqtt_password"`
	MQTTClientID string `yaml:"mqtt_client_id"`

	// Redis configuration
	RedisHost     string `yaml:"redis_host"`
	RedisPort     int    `yaml:"redis_port"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Postgres configuration
	PostgresHost               string        `yaml:"postgres_host"`
	PostgresPort               int           `yaml:"postgres_port"`
	PostgresUser               string        `yaml:"postgres_user"`
	PostgresPassword           string        `yaml:"postgres_password"`
	PostgresDB                 string        `yaml:"postgres_db"`
	PostgresMaxConnections     int           `yaml:"postgres_max_connections"`
	PostgresMaxIdleConnections int           `yaml:"postgres_max_idle_connections"`
	PostgresConnMaxLifetime    time.Duration `yaml:"postgres_conn_max_lifetime"`

	// Service configuration
	ServiceName string `yaml:"service_name"`
	HealthPort  int    `yaml:"health_port"`
	LogLevel    string `yaml:"log_level"`

	// API server configuration
	APIPort         int `yaml:"api_port"`
	HistoryPageSize int `yaml:"history_page_size"`

	// Query cache configuration
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`

	// Collector agent configuration
	ReadingTopics []string `yaml:"reading_topics"`

	// Mock generator configuration
	MockIntervalMinutes int      `yaml:"mock_interval_minutes"`
	MockLocalities      []string `yaml:"mock_localities"`
	Latitude            float64  `yaml:"latitude"`
	Longitude           float64  `yaml:"longitude"`

	// Forecast service configuration
	ForecastServiceURL string `yaml:"forecast_service_url"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "irrigation",
		PostgresPassword:           "",
		PostgresDB:                 "irrigation",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,

		ServiceName: "irrigation-service",
		HealthPort:  8080,
		LogLevel:    "info",

		APIPort:         3001,
		HistoryPageSize: 50,

		CacheTTLMinutes: 10,

		ReadingTopics: []string{"irrigation/raw/+/+"},

		MockIntervalMinutes: 15,
		MockLocalities:      []string{"locality-1"},
		// Default coordinates (Upper Pampanga River irrigation district)
		Latitude:  15.5785,
		Longitude: 120.9726,

		ForecastServiceURL: "",
	}
}

// LoadFromEnv loads configuration from environment variables with IRRIGATION_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("IRRIGATION_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("IRRIGATION_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("IRRIGATION_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("IRRIGATION_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("IRRIGATION_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("IRRIGATION_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("IRRIGATION_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("IRRIGATION_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("IRRIGATION_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("IRRIGATION_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("IRRIGATION_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("IRRIGATION_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("IRRIGATION_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("IRRIGATION_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}

	// Service configuration
	if v := os.Getenv("IRRIGATION_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("IRRIGATION_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("IRRIGATION_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// API server configuration
	if v := os.Getenv("IRRIGATION_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("IRRIGATION_HISTORY_PAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			c.HistoryPageSize = size
		}
	}

	// Cache configuration
	if v := os.Getenv("IRRIGATION_CACHE_TTL_MINUTES"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil {
			c.CacheTTLMinutes = ttl
		}
	}

	// Mock generator configuration
	if v := os.Getenv("IRRIGATION_MOCK_INTERVAL_MINUTES"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.MockIntervalMinutes = interval
		}
	}
	if v := os.Getenv("IRRIGATION_MOCK_LOCALITIES"); v != "" {
		c.MockLocalities = strings.Split(v, ",")
	}
	if v := os.Getenv("IRRIGATION_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("IRRIGATION_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// Forecast configuration
	if v := os.Getenv("IRRIGATION_FORECAST_SERVICE_URL"); v != "" {
		c.ForecastServiceURL = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values.
// The optional --config flag points at a YAML file; file values are
// applied last and take precedence over other sources.
func (c *Config) LoadFromFlags() {
	var configFile string
	pflag.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	if err := c.registerAndParse(&configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
	}
}

func (c *Config) registerAndParse(configFile *string) error {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// API flags
	pflag.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	pflag.IntVar(&c.HistoryPageSize, "history-page-size", c.HistoryPageSize, "Default history page size")

	// Cache flags
	pflag.IntVar(&c.CacheTTLMinutes, "cache-ttl-minutes", c.CacheTTLMinutes, "Query cache TTL in minutes")

	// Mock generator flags
	pflag.IntVar(&c.MockIntervalMinutes, "mock-interval-minutes", c.MockIntervalMinutes, "Mock reading generation interval in minutes")
	pflag.StringSliceVar(&c.MockLocalities, "mock-localities", c.MockLocalities, "Localities to generate mock readings for")
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for diurnal shaping")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for diurnal shaping")

	// Forecast flags
	pflag.StringVar(&c.ForecastServiceURL, "forecast-service-url", c.ForecastServiceURL, "External forecast service URL")

	pflag.Parse()

	if *configFile != "" {
		if err := c.LoadFromFile(*configFile); err != nil {
			return err
		}
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.HistoryPageSize <= 0 {
		return fmt.Errorf("History page size must be positive")
	}
	if c.CacheTTLMinutes <= 0 {
		return fmt.Errorf("Cache TTL must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the Postgres DSN
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB)
}

// CacheTTL returns the query cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
