// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Auth         AuthConfig              `mapstructure:"auth"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	APIs         APIsConfig              `mapstructure:"apis"`
	Cache        CacheConfig             `mapstructure:"cache"`
	RateLimits   RateLimitConfig         `mapstructure:"rate_limits"`
	Scraper      ScraperConfig           `mapstructure:"scraper"`
	Monitoring   MonitoringConfig        `mapstructure:"monitoring"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsProduction reports whether the app runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// ServerConfig holds the REST API listener settings.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // milliseconds
	BodyLimitBytes int64    `mapstructure:"body_limit_bytes"`
}

// Addr returns the listen address for the API server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string. A URL wins over discrete fields.
func (p PostgresConfig) GetDSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Configured reports whether any connection settings are present.
func (p PostgresConfig) Configured() bool {
	return p.URL != "" || p.Host != ""
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
	Index     string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// AuthConfig holds the bearer-token settings for the REST API.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	DevUserID string `mapstructure:"dev_user_id"`
}

// IntegrationConfig holds settings for AWS and other outbound integrations.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
			MinScore string `mapstructure:"min_score"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Places struct {
		APIKey     string `mapstructure:"api_key"`
		MapsAPIKey string `mapstructure:"maps_api_key"`
		BaseURL    string `mapstructure:"base_url"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"places"`

	WebSearch struct {
		BaseURL  string `mapstructure:"base_url"`
		APIKey   string `mapstructure:"api_key"`
		EngineID string `mapstructure:"engine_id"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"web_search"`

	Gemini struct {
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		BaseURL     string  `mapstructure:"base_url"`
		Temperature float64 `mapstructure:"temperature"`
		Timeout     int     `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"gemini"`
}

// PlacesKey returns the Places key, falling back to the Maps key.
func (a APIsConfig) PlacesKey() string {
	if a.Places.APIKey != "" {
		return a.Places.APIKey
	}
	return a.Places.MapsAPIKey
}

// CacheConfig holds Redis TTLs in seconds.
type CacheConfig struct {
	LeadSearchTTL    int `mapstructure:"lead_search_ttl"`
	LeadAnalysisTTL  int `mapstructure:"lead_analysis_ttl"`
	PlaceDetailsTTL  int `mapstructure:"place_details_ttl"`
	SearchResultsTTL int `mapstructure:"search_results_ttl"`
}

// RateLimitConfig holds daily usage limits per upstream service.
type RateLimitConfig struct {
	PlacesSearch int  `mapstructure:"places_search"`
	PlaceDetails int  `mapstructure:"place_details"`
	Gemini       int  `mapstructure:"gemini"`
	Search       int  `mapstructure:"search"`
	Enforce      bool `mapstructure:"enforce"`
}

// ScraperConfig holds website fetch settings.
type ScraperConfig struct {
	UserAgent         string  `mapstructure:"user_agent"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	MaxRetries        int     `mapstructure:"max_retries"`
	RetryDelay        int     `mapstructure:"retry_delay"` // milliseconds
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxBodyBytes      int64   `mapstructure:"max_body_bytes"`
}

// MonitoringConfig holds error reporting and metrics listener settings.
type MonitoringConfig struct {
	SentryDSN   string `mapstructure:"sentry_dsn"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
