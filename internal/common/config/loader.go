// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env, configs/config.yaml and configs/config.<APP_ENVIRONMENT>.yaml,
// then applies defaults, env overrides and validation.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// Unset placeholders collapse to "" so overrideEmptyConfig and defaults can fill them.
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills values still empty after expansion from the
// deployment's well-known environment variables.
func overrideEmptyConfig(cfg *Config) {
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if val := os.Getenv(k); val != "" {
				*dst = val
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if *dst != 0 {
			return
		}
		if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
			*dst = n
		}
	}

	setString(&cfg.App.Environment, "APP_ENVIRONMENT", "NODE_ENV")
	setInt(&cfg.Server.Port, "PORT")
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	}

	// Infrastructure
	setString(&cfg.Database.Postgres.URL, "DATABASE_URL")
	setString(&cfg.Database.Redis.URL, "REDIS_URL")
	setString(&cfg.Database.Elasticsearch.URL, "ELASTICSEARCH_URL")
	setString(&cfg.Camunda.BrokerAddress, "ZEEBE_ADDRESS")

	// Google APIs
	setString(&cfg.APIs.Places.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&cfg.APIs.Places.MapsAPIKey, "GOOGLE_MAPS_API_KEY")
	setString(&cfg.APIs.WebSearch.APIKey, "GOOGLE_SEARCH_API_KEY")
	setString(&cfg.APIs.WebSearch.EngineID, "GOOGLE_SEARCH_CX")
	setString(&cfg.APIs.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.APIs.Gemini.Model, "GEMINI_MODEL")

	// Daily usage limits
	setInt(&cfg.RateLimits.PlacesSearch, "DAILY_PLACES_SEARCH_LIMIT")
	setInt(&cfg.RateLimits.PlaceDetails, "DAILY_PLACES_DETAILS_LIMIT")
	setInt(&cfg.RateLimits.Gemini, "DAILY_GEMINI_LIMIT")
	setInt(&cfg.RateLimits.Search, "DAILY_SEARCH_LIMIT")

	// Monitoring and auth
	setString(&cfg.Monitoring.SentryDSN, "SENTRY_DSN")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	// AWS
	setString(&cfg.Integrations.AWS.Region, "AWS_REGION")
	setString(&cfg.Integrations.AWS.SNS.TopicARN, "SNS_TOPIC_ARN")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "leadgenius"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}
	if cfg.Server.BodyLimitBytes == 0 {
		cfg.Server.BodyLimitBytes = 10 << 20
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "leads-analyzed"
	}
	if cfg.Database.Redis.URL == "" && cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.URL = "redis://localhost:6379"
	}

	// Auth defaults
	if cfg.Auth.DevUserID == "" {
		cfg.Auth.DevUserID = "dev_user"
	}

	// API defaults
	if cfg.APIs.Places.Timeout == 0 {
		cfg.APIs.Places.Timeout = 10000
	}
	if cfg.APIs.WebSearch.BaseURL == "" {
		cfg.APIs.WebSearch.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.APIs.WebSearch.Timeout == 0 {
		cfg.APIs.WebSearch.Timeout = 10000
	}
	if cfg.APIs.Gemini.Model == "" {
		cfg.APIs.Gemini.Model = "gemini-2.0-flash-exp"
	}
	if cfg.APIs.Gemini.Temperature == 0 {
		cfg.APIs.Gemini.Temperature = 0.7
	}
	if cfg.APIs.Gemini.Timeout == 0 {
		cfg.APIs.Gemini.Timeout = 60000
	}

	// Cache TTLs (seconds)
	if cfg.Cache.LeadSearchTTL == 0 {
		cfg.Cache.LeadSearchTTL = 3600
	}
	if cfg.Cache.LeadAnalysisTTL == 0 {
		cfg.Cache.LeadAnalysisTTL = 86400
	}
	if cfg.Cache.PlaceDetailsTTL == 0 {
		cfg.Cache.PlaceDetailsTTL = 3600
	}
	if cfg.Cache.SearchResultsTTL == 0 {
		cfg.Cache.SearchResultsTTL = 7200
	}

	// Daily usage limits
	if cfg.RateLimits.PlacesSearch == 0 {
		cfg.RateLimits.PlacesSearch = 500
	}
	if cfg.RateLimits.PlaceDetails == 0 {
		cfg.RateLimits.PlaceDetails = 1000
	}
	if cfg.RateLimits.Gemini == 0 {
		cfg.RateLimits.Gemini = 2000
	}
	if cfg.RateLimits.Search == 0 {
		cfg.RateLimits.Search = 200
	}

	// Scraper defaults
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "Mozilla/5.0 (compatible; LeadGenius/1.0; +https://leadgenius.app)"
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 10000
	}
	if cfg.Scraper.MaxRetries == 0 {
		cfg.Scraper.MaxRetries = 2
	}
	if cfg.Scraper.RetryDelay == 0 {
		cfg.Scraper.RetryDelay = 1000
	}
	if cfg.Scraper.Concurrency == 0 {
		cfg.Scraper.Concurrency = 5
	}
	if cfg.Scraper.RequestsPerSecond == 0 {
		cfg.Scraper.RequestsPerSecond = 10
	}
	if cfg.Scraper.MaxBodyBytes == 0 {
		cfg.Scraper.MaxBodyBytes = 5 << 20
	}

	// AWS defaults
	if cfg.Integrations.AWS.Region == "" {
		cfg.Integrations.AWS.Region = "us-east-1"
	}
	cfg.Integrations.AWS.SNS.MinScore = strings.ToUpper(strings.TrimSpace(cfg.Integrations.AWS.SNS.MinScore))
	if cfg.Integrations.AWS.SNS.MinScore == "" {
		cfg.Integrations.AWS.SNS.MinScore = "HIGH"
	}

	// Monitoring defaults
	if cfg.Monitoring.MetricsPort == 0 {
		cfg.Monitoring.MetricsPort = 8080
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Worker defaults
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.App.IsProduction() {
		var missing []string
		if cfg.APIs.Places.MapsAPIKey == "" {
			missing = append(missing, "GOOGLE_MAPS_API_KEY")
		}
		if cfg.APIs.Places.APIKey == "" {
			missing = append(missing, "GOOGLE_PLACES_API_KEY")
		}
		if cfg.APIs.Gemini.APIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
	}

	if cfg.Auth.Enabled && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required when auth is enabled")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Redis.Address == "" && cfg.Database.Redis.URL == "" {
		return fmt.Errorf("database.redis.address or url is required")
	}

	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("server.allowed_origins: invalid origin %q", origin)
		}
	}

	switch cfg.Integrations.AWS.SNS.MinScore {
	case "HIGH", "MEDIUM", "LOW":
	default:
		return fmt.Errorf("integrations.aws.sns.min_score must be HIGH, MEDIUM or LOW")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
