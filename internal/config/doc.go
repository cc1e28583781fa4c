// Package config loads and validates the datasteward configuration.
//
// # Configuration Sources
//
// Values are resolved in increasing order of precedence:
//
//  1. Built-in defaults (Default)
//  2. A .env file, which never overrides variables already set
//  3. A YAML file (DATASTEWARD_CONFIG_FILE, config.yaml or configs/config.yaml)
//  4. Environment variables
//
// # Environment Variables
//
// Variables are namespaced with DATASTEWARD_ and follow the struct layout:
//
//	DATASTEWARD_SERVER_PORT=8000
//	DATASTEWARD_LOGGING_LEVEL=debug
//	DATASTEWARD_PATHS_TEMP_DIR=/var/tmp/datasteward
//	DATASTEWARD_QUALITY_COUNTRY_CODE=+34
//	DATASTEWARD_QUALITY_DUP_THRESHOLD=0.9
//	DATASTEWARD_QUALITY_DUP_KEY_COLUMNS=nombre,email
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := quality.NewEngine(cfg.QualitySettings(), nil, logger)
package config
