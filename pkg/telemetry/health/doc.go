// Package health provides liveness, readiness and version endpoints for
// "conductor serve".
//
// # Endpoints
//
//   - /health: liveness, 200 while the process runs
//   - /ready: readiness, 200 when every registered check passes, 503 otherwise
//   - /version: build information
//
// # Checks
//
// Readiness is the aggregate of named checks, run concurrently with a
// per-check timeout. RouterCheck passes when enough registered providers
// pass the router's health gate, so an orchestrator stops sending traffic
// once every provider is in a failure streak:
//
//	checker := health.New(0)
//	checker.RegisterCheck("router", health.RouterCheck(router, 1))
//	health.Register(mux, checker, health.NewVersionInfo(version, commit, buildTime))
//
// ProvidersCheck runs the HealthCheck of each registered provider and
// passes while enough of them answer.
package health
