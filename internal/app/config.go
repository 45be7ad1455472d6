package app

// Config holds the application configuration
type Config struct {
	// ServicesDir is the root directory scanned for service descriptors.
	ServicesDir string

	// ListenAddr is the HTTP listen address for serve mode.
	ListenAddr string

	// LogLevel is the configured log level name ("debug", "info", ...).
	LogLevel string

	// Debug forces debug logging regardless of LogLevel.
	Debug bool
}

// NewConfig creates a new application configuration
func NewConfig(servicesDir, listenAddr, logLevel string, debug bool) *Config {
	return &Config{
		ServicesDir: servicesDir,
		ListenAddr:  listenAddr,
		LogLevel:    logLevel,
		Debug:       debug,
	}
}
