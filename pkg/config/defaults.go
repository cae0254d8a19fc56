package config

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = FormatText
)

// Engine defaults.
const (
	DefaultPlaceholderMode = "substring"
	DefaultValidateOutput  = false
	DefaultMaxFileSize     = "4MB"
)

// Observability defaults.
const (
	DefaultSampleRatio     = 0.0
	DefaultMetricsAddr     = ""
	DefaultShutdownTimeout = 5
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)
