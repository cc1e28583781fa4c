package config

import "time"

// Application constants
const (
	AppName   = "datasteward"
	AppTitle  = "Data Quality Detection & Fix Engine"
	AppVendor = "datasteward"

	// Endpoints
	HealthEndpoint  = "/health"
	VersionEndpoint = "/version"
	MetricsEndpoint = "/metrics"

	// Request defaults
	DefaultFileType  = "csv"
	DefaultDelimiter = ","
	DefaultEncoding  = "utf-8"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// CLI
	DefaultCLIConcurrency = 4
	DefaultCLITimeout     = 5 * time.Minute
)
