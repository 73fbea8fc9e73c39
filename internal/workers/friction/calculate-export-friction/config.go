// internal/workers/friction/calculate-export-friction/config.go
package calculateexportfriction

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
