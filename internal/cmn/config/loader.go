package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultPort        = 8080
	defaultBodyLimit   = "100KiB"
	defaultMetricsPath = "/metrics"
)

// ConfigLoader reads and merges configuration from the config file, the
// .env file, the environment and bound command line flags.
type ConfigLoader struct {
	v          *viper.Viper
	configFile string
	configDir  string
	dotEnvFile string
	warnings   []string
}

// ConfigLoaderOption defines a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile returns a ConfigLoaderOption that sets the configuration file path.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

// WithConfigDir overrides the directory searched for config.yaml
// (default $XDG_CONFIG_HOME/skribble).
func WithConfigDir(dir string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configDir = dir
	}
}

// WithDotEnv sets the .env file loaded into the process environment before
// the environment is read. Variables already set are not overwritten.
func WithDotEnv(file string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.dotEnvFile = file
	}
}

// NewConfigLoader creates a ConfigLoader with the given viper instance and options.
func NewConfigLoader(v *viper.Viper, options ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{
		v:          v,
		configDir:  filepath.Join(xdg.ConfigHome, AppSlug),
		dotEnvFile: ".env",
	}
	for _, opt := range options {
		opt(loader)
	}
	return loader
}

// Load reads configuration sources, applies defaults and environment
// overrides, and returns a validated Config instance.
func (l *ConfigLoader) Load() (*Config, error) {
	l.loadDotEnv()
	l.configureViper()
	l.bindEnvironmentVariables()
	l.setViperDefaultValues()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def Definition
	if err := l.v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg, err := l.buildConfig(def)
	if err != nil {
		return nil, err
	}
	cfg.Warnings = l.warnings

	return cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *ConfigLoader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *ConfigLoader) buildConfig(def Definition) (*Config, error) {
	cfg := Config{
		Core: Core{
			Debug:     def.Debug,
			LogFormat: strings.ToLower(def.LogFormat),
			LogFile:   def.LogFile,
		},
	}

	if err := l.loadServerConfig(&cfg, def); err != nil {
		return nil, err
	}
	l.loadMetricsConfig(&cfg, def)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *ConfigLoader) loadServerConfig(cfg *Config, def Definition) error {
	port, err := parsePort(def.Port)
	if err != nil {
		return err
	}

	limit, err := parseBodyLimit(def.BodyLimit)
	if err != nil {
		return err
	}

	cfg.Server = Server{
		Host:      strings.TrimSpace(def.Host),
		Port:      port,
		BodyLimit: limit,
		AccessLog: def.AccessLog,
	}
	if def.CORS != nil {
		cfg.Server.CORS.AllowedOrigins = parseStringList(def.CORS.AllowedOrigins)
	}
	return nil
}

func (l *ConfigLoader) loadMetricsConfig(cfg *Config, def Definition) {
	cfg.Metrics = Metrics{Path: defaultMetricsPath}
	if def.Metrics == nil {
		return
	}
	cfg.Metrics.Enabled = def.Metrics.Enabled
	if p := def.Metrics.Path; p != "" {
		cleaned := path.Clean("/" + strings.TrimLeft(p, "/"))
		if cleaned == "/" {
			l.warnings = append(l.warnings, fmt.Sprintf("Invalid metrics path %q, using %s", p, defaultMetricsPath))
			return
		}
		cfg.Metrics.Path = cleaned
	}
}

// parsePort mirrors `process.env.PORT || 8080`: an unset, empty or zero
// value falls back to the default port.
func parsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	if port == 0 {
		return defaultPort, nil
	}
	return port, nil
}

func parseBodyLimit(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultBodyLimit
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidBodyLimit, raw, err)
	}
	return int64(n), nil
}

func (l *ConfigLoader) loadDotEnv() {
	if l.dotEnvFile == "" {
		return
	}
	if err := godotenv.Load(l.dotEnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		l.warnings = append(l.warnings, fmt.Sprintf("Failed to load %s: %v", l.dotEnvFile, err))
	}
}

func (l *ConfigLoader) setViperDefaultValues() {
	l.v.SetDefault("host", "")
	l.v.SetDefault("port", "")
	l.v.SetDefault("debug", false)
	l.v.SetDefault("logFormat", "text")
	l.v.SetDefault("logFile", "")
	l.v.SetDefault("bodyLimit", defaultBodyLimit)
	l.v.SetDefault("accessLog", false)
	l.v.SetDefault("metrics.enabled", false)
	l.v.SetDefault("metrics.path", defaultMetricsPath)
}

type envBinding struct {
	key string
	env string
	// bare bindings are also read without the application prefix.
	bare bool
}

var envBindings = []envBinding{
	{key: "host", env: "HOST", bare: true},
	{key: "port", env: "PORT", bare: true},
	{key: "debug", env: "DEBUG"},
	{key: "logFormat", env: "LOG_FORMAT"},
	{key: "logFile", env: "LOG_FILE"},
	{key: "bodyLimit", env: "BODY_LIMIT"},
	{key: "accessLog", env: "ACCESS_LOG"},
	{key: "cors.allowedOrigins", env: "CORS_ALLOWED_ORIGINS"},
	{key: "metrics.enabled", env: "METRICS_ENABLED"},
	{key: "metrics.path", env: "METRICS_PATH"},
}

func (l *ConfigLoader) bindEnvironmentVariables() {
	prefix := strings.ToUpper(AppSlug) + "_"

	for _, b := range envBindings {
		names := []string{prefix + b.env}
		if b.bare {
			names = append([]string{b.env}, names...)
		}
		_ = l.v.BindEnv(append([]string{b.key}, names...)...)
	}
}

func (l *ConfigLoader) configureViper() {
	if l.configFile == "" {
		l.v.AddConfigPath(l.configDir)
		l.v.SetConfigName("config")
	} else {
		l.v.SetConfigFile(l.configFile)
	}
	l.v.SetConfigType("yaml")
}

// parseStringList parses comma-separated strings or string slices, filtering empty entries.
func parseStringList(input any) []string {
	var result []string

	switch v := input.(type) {
	case string:
		for s := range strings.SplitSeq(v, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					result = append(result, trimmed)
				}
			}
		}
	case []string:
		for _, s := range v {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				result = append(result, trimmed)
			}
		}
	}

	return result
}
