// Package app wires configuration, logging, telemetry, services and the
// HTTP router into a runnable server.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, .env, config.yaml and environment
//	2. Initialize the JSON logger and OpenTelemetry providers
//	3. Resolve and create the temp, clean and logs directories
//	4. Build the quality and health services
//	5. Mount middleware and routes
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM and then drains in-flight requests
// within the configured shutdown timeout. Initialization errors are returned
// to the caller; the package never calls os.Exit.
package app
