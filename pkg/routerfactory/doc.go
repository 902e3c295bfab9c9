// Package routerfactory assembles a router from configuration.
//
// It converts the YAML routing section into a routing.Config, builds a
// simulated backend for every entry under providers, and binds the strategy
// implementations from routing/strategies. Reload applies a changed
// configuration to a running router, which is how "conductor serve" reacts
// to the config watcher.
package routerfactory
