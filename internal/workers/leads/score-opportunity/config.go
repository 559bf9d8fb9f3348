// internal/workers/leads/score-opportunity/config.go
package scoreopportunity

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
