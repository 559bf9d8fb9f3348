// internal/workers/outreach/notify-opportunity/config.go
package notifyopportunity

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
