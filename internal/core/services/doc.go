// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RewriteService owns chunk pacing, retries and the local fallback.
// NarrationService sits in front of it for uploaded files and keeps the
// run history. SettingsService reads and writes the persisted config.
package services
