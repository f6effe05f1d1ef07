// Package server exposes the intelscan pipeline over HTTP.
//
// Every pipeline entry point has a JSON endpoint under /api, next to the
// analysis history kept in the database. Errors are reported as
// {"error": "..."} with a status derived from the error category:
// validation errors are 400, configuration errors 500 and upstream
// failures 502.
package server
