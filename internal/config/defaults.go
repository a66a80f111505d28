package config

// Rand command defaults.
const (
	DefaultRandSize     = 32
	DefaultRandEncoding = "hex"
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.ossl",
		Backend: BackendConfig{
			Variant: "openssl-3.0",
		},
		Rand: RandConfig{
			Size:            DefaultRandSize,
			Encoding:        DefaultRandEncoding,
			Rate:            0, // Unthrottled
			Burst:           1,
			KeepDevicesOpen: false,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:  "error",
			File:   "~/.ossl/ossl.log",
			Format: "text",
		},
	}
}
