// internal/workers/leads/analyze-lead/config.go
package analyzelead

import "time"

type Config struct {
	// Timeout covers place details, scraping, web search and the LLM call.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
