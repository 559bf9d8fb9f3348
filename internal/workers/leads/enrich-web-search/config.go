// internal/workers/leads/enrich-web-search/config.go
package enrichwebsearch

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
