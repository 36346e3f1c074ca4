package cfg

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"botdash/internal/common"
	"botdash/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	BaseURL       string
	RESTTimeout   time.Duration
	PollInterval  time.Duration
	ChartInterval model.Interval
	Symbols       []string
	DashboardPort int
	MetricsPort   int
	DataPath      string
	LogLevel      string
	LogFormat     string
	LogFile       string
}

type ConfigFile struct {
	Backend struct {
		BaseURL     string `yaml:"baseURL"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"backend"`

	Polling struct {
		Interval      string `yaml:"interval"`
		ChartInterval string `yaml:"chartInterval"`
	} `yaml:"polling"`

	Dashboard struct {
		Port    int      `yaml:"port"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"dashboard"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
		LogFormat   string `yaml:"logFormat"`
		LogFile     string `yaml:"logFile"`
	} `yaml:"system"`
}

const (
	defaultPollInterval = 2 * time.Second
	defaultRESTTimeout  = 5 * time.Second
)

func Load() (Settings, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	poll := parseDurationOr(config.Polling.Interval, defaultPollInterval)
	restTimeout := parseDurationOr(config.Backend.RESTTimeout, defaultRESTTimeout)

	settings := Settings{
		BaseURL:       getEnvOrDefault(common.EnvBackendURL, orDefault(config.Backend.BaseURL, common.DefaultBackendURL)),
		RESTTimeout:   getDurationOrDefault(common.EnvRESTTimeout, restTimeout),
		PollInterval:  getDurationOrDefault(common.EnvPollInterval, poll),
		ChartInterval: model.Interval(getEnvOrDefault(common.EnvChartInterval, orDefault(config.Polling.ChartInterval, string(model.DefaultInterval)))),
		Symbols:       getSymbolsFromEnvOrConfig(config.Dashboard.Symbols),
		DashboardPort: getIntFromEnvOrConfig(common.EnvDashboardPort, config.Dashboard.Port, common.DefaultDashboardPort),
		MetricsPort:   getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		DataPath:      getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		LogLevel:      strings.ToLower(getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel))),
		LogFormat:     strings.ToLower(getEnvOrDefault(common.EnvLogFormat, orDefault(config.System.LogFormat, common.DefaultLogFormat))),
		LogFile:       getEnvOrDefault(common.EnvLogFile, config.System.LogFile),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		BaseURL:       getEnvOrDefault(common.EnvBackendURL, common.DefaultBackendURL),
		RESTTimeout:   getDurationOrDefault(common.EnvRESTTimeout, defaultRESTTimeout),
		PollInterval:  getDurationOrDefault(common.EnvPollInterval, defaultPollInterval),
		ChartInterval: model.Interval(getEnvOrDefault(common.EnvChartInterval, string(model.DefaultInterval))),
		Symbols:       getSymbolsFromEnvOrConfig(nil),
		DashboardPort: getIntOrDefault(common.EnvDashboardPort, common.DefaultDashboardPort),
		MetricsPort:   getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DataPath:      os.Getenv(common.EnvDataPath), // optional
		LogLevel:      strings.ToLower(getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel)),
		LogFormat:     strings.ToLower(getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat)),
		LogFile:       os.Getenv(common.EnvLogFile),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func parseDurationOr(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getSymbolsFromEnvOrConfig(configSymbols []string) []string {
	if env := os.Getenv(common.EnvSymbols); env != "" {
		return splitSymbols(env)
	}
	if len(configSymbols) > 0 {
		return configSymbols
	}
	return []string{common.BTCUSDTSymbol, common.ETHUSDTSymbol}
}

func splitSymbols(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.BaseURL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}
	u, err := url.Parse(settings.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend URL must be an absolute http(s) URL, got %q", settings.BaseURL)
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	if settings.PollInterval < 250*time.Millisecond || settings.PollInterval > time.Minute {
		return fmt.Errorf("poll interval must be between 250ms and 1m, got %v", settings.PollInterval)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}

	if _, err := model.ParseInterval(string(settings.ChartInterval)); err != nil {
		return fmt.Errorf("chart interval: %w", err)
	}

	if len(settings.Symbols) == 0 {
		return fmt.Errorf("at least one selectable symbol must be specified")
	}

	if settings.DashboardPort < common.MinPort || settings.DashboardPort > common.MaxPort {
		return fmt.Errorf("dashboard port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.DashboardPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.MetricsPort == settings.DashboardPort {
		return fmt.Errorf("metrics port and dashboard port must differ, both are %d", settings.MetricsPort)
	}

	switch settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error, got %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("log format must be pretty or json, got %q", settings.LogFormat)
	}

	return nil
}
