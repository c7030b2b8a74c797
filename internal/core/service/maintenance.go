package service

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Maintenance is the global serving switch. While enabled, the gate
// answers non-root traffic with 503 so operators can work on a quiet
// system while staying logged in themselves.
type Maintenance struct {
	enabled atomic.Bool
	log     zerolog.Logger
}

// NewMaintenance returns the switch in its off position.
func NewMaintenance(log zerolog.Logger) *Maintenance {
	return &Maintenance{log: log}
}

// Enabled reports the current state.
func (m *Maintenance) Enabled() bool {
	return m.enabled.Load()
}

// Set flips the switch and reports whether the state actually changed.
func (m *Maintenance) Set(on bool) bool {
	changed := m.enabled.Swap(on) != on
	if changed {
		m.log.Info().Bool("enabled", on).Msg("maintenance mode changed")
	}
	return changed
}
