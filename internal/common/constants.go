package common

// Selectable trading symbols
const (
	BTCUSDTSymbol = "BTCUSDT"
	ETHUSDTSymbol = "ETHUSDT"
)

// Environment variable keys
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvBackendURL    = "BACKEND_URL"
	EnvRESTTimeout   = "REST_TIMEOUT"
	EnvPollInterval  = "POLL_INTERVAL"
	EnvChartInterval = "CHART_INTERVAL"
	EnvSymbols       = "SYMBOLS"
	EnvDashboardPort = "DASHBOARD_PORT"
	EnvMetricsPort   = "METRICS_PORT"
	EnvDataPath      = "DATA_PATH"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvLogFile       = "LOG_FILE"
)

// Configuration defaults
const (
	DefaultBackendURL    = "http://localhost:8080/api"
	DefaultDashboardPort = 3000
	DefaultMetricsPort   = 9090
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "pretty"
)

// Validation constants
const (
	MinPort = 1024
	MaxPort = 65535
)

// Notices shown to the operator after a control action
const (
	MsgConfigRejectedRunning = "Cannot change configuration while Bot is running. Please pause the bot first."
	MsgConfigUpdated         = "Configuration updated successfully! New Mode: %s"
	MsgConfigFailed          = "Failed to update configuration."
	MsgBotStarting           = "Bot starting in %s mode..."
	MsgBotStopped            = "Bot stopped."
	MsgCommandFailed         = "Failed to execute command. Check logs."
	MsgResetPrompt           = "Are you sure you want to reset all backtest data?"
	MsgResetDone             = "Backtest data reset successfully!"
	MsgResetFailed           = "Failed to reset data."
)
