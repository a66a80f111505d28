package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome         = "OSSL_HOME"
	EnvBackend      = "OSSL_BACKEND"
	EnvOutputFormat = "OSSL_OUTPUT_FORMAT"
	EnvVerbose      = "OSSL_VERBOSE"
	EnvLogLevel     = "OSSL_LOG_LEVEL"
	EnvRandRate     = "OSSL_RAND_RATE"
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		cfg.Backend.Variant = strings.ToLower(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	// OSSL_RAND_RATE caps rand batches per second; 0 removes the cap
	if v := os.Getenv(EnvRandRate); v != "" {
		if rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && rate >= 0 {
			cfg.Rand.Rate = rate
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
