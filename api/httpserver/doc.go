// Package httpserver provides the reusable HTTP server shell for escrownet
// services.
//
// BaseServer wires a chi router with standard middleware, structured
// request logging, health endpoints and an optional metrics listener.
// Components implement RouteRegistrar to attach their own routes.
//
// All servers built with BaseServer automatically include:
//
//   - Liveness Check: Simple endpoint to verify the server is running (/livez)
//   - Readiness Check: Endpoint indicating if the server accepts requests (/readyz)
//   - Drain Control: Endpoints to prepare for graceful shutdown (/drain, /undrain)
//   - Metrics: Optional Prometheus-compatible metrics endpoint
//   - Profiling: Optional pprof debugging endpoints when enabled
package httpserver
