package metrics

import "strings"

// Config carries the constant labels applied to every metric.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) serviceName() string {
	name := strings.TrimSpace(c.ServiceName)
	if name == "" {
		return "valdesk"
	}
	return name
}

func (c Config) environment() string {
	env := strings.TrimSpace(c.Environment)
	if env == "" {
		return "unknown"
	}
	return env
}
