package config

// LogConfig selects the zap encoder, level and output.
type LogConfig struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder instead of JSON
	OutputPath  string // stdout, stderr or a file path
	ServiceName string
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:       envStr("LOG_LEVEL", "info"),
		Development: envBool("LOG_DEVELOPMENT", false),
		OutputPath:  envStr("LOG_OUTPUT", "stdout"),
		ServiceName: envStr("SERVICE_NAME", "event-seating"),
	}
}
