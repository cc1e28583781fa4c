// Package http implements the HTTP handlers of the data quality service.
// Handlers stay thin: they decode and validate the request body, call the
// service layer and render the result or an RFC 7807 problem document.
//
// # Endpoints
//
//	POST /infer          column types, samples and table KPIs
//	POST /detect_issues  every issue with a summary
//	POST /preview_fixes  proposed corrections, nothing written
//	POST /apply_fixes    corrected file written under the clean directory
//	GET  /health         liveness probe
//	GET  /version        build version and commit
//
// All engine endpoints accept the same InputSpec body. Load failures are
// reported as 422 PARSE_ERROR and request validation failures as 400
// VALIDATION_FAILED.
package http
