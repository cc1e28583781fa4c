package services

import "errors"

// Quality service errors
var (
	ErrNoOutputDir = errors.New("output directory is not configured")
)
