// Package integration tracks whether the screening provider connection is
// configured. The workflow is unreachable until it is: the orchestrator
// returns a typed error rather than redirecting, so any caller (CLI, service,
// UI) decides how to present the missing configuration.
package integration

import (
	"vetgate/internal/platform/config"
)

// Settings is the read-only capability check consumed before any workflow
// entry point.
type Settings struct {
	cfg     config.ProviderConfig
	devMode bool
}

func NewSettings(cfg config.ProviderConfig, devMode bool) *Settings {
	return &Settings{cfg: cfg, devMode: devMode}
}

// Configured reports whether the provider integration can accept work.
// Dev mode counts as configured; main wires the deterministic mock client
// in that case.
func (s *Settings) Configured() bool {
	if s.devMode {
		return true
	}
	return s.cfg.BaseURL != "" && s.cfg.APIKey != ""
}
