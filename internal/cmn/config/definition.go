package config

// Definition mirrors the keys accepted in the YAML config file and the
// environment. It is decoded by viper and then turned into a Config.
type Definition struct {
	// Host is the interface the server binds to. Empty binds all interfaces.
	Host string `mapstructure:"host"`

	// Port is kept as a string so that an empty or malformed PORT can be
	// told apart from an explicit number.
	Port string `mapstructure:"port"`

	// Debug toggles debug logging.
	Debug bool `mapstructure:"debug"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"logFormat"`

	// LogFile mirrors all log output into a file.
	LogFile string `mapstructure:"logFile"`

	// BodyLimit is a human readable size such as "100KiB" or "1MB".
	BodyLimit string `mapstructure:"bodyLimit"`

	// AccessLog enables structured request logging.
	AccessLog bool `mapstructure:"accessLog"`

	CORS *CORSDef `mapstructure:"cors"`

	Metrics *MetricsDef `mapstructure:"metrics"`
}

// CORSDef holds the cross-origin settings.
type CORSDef struct {
	// AllowedOrigins accepts a list or a comma separated string.
	AllowedOrigins any `mapstructure:"allowedOrigins"`
}

// MetricsDef holds the prometheus endpoint settings.
type MetricsDef struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
