package pipeline

import (
	"fmt"
	"sync"

	"realtime-vision-pipeline/internal/algorithms"
	"realtime-vision-pipeline/internal/core"
	"realtime-vision-pipeline/internal/shader"
)

// Snapshot is the control-surface state read once per tick.
type Snapshot struct {
	Mode   algorithms.ModeKind
	Effect shader.EffectKind
	Params core.ProcessingParams
}

// Settings holds the current selections. Setters may be called from any
// goroutine; a running tick keeps the snapshot it started with.
type Settings struct {
	mu     sync.RWMutex
	mode   algorithms.ModeKind
	effect shader.EffectKind
	params core.ProcessingParams
}

// NewSettings starts from initial. Invalid params are replaced by the
// defaults.
func NewSettings(initial Snapshot) *Settings {
	if initial.Params.Validate() != nil {
		initial.Params = core.DefaultProcessingParams()
	}
	return &Settings{
		mode:   initial.Mode,
		effect: initial.Effect,
		params: initial.Params,
	}
}

func (s *Settings) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Mode: s.mode, Effect: s.effect, Params: s.params}
}

func (s *Settings) SetMode(mode algorithms.ModeKind) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *Settings) SetEffect(effect shader.EffectKind) {
	s.mu.Lock()
	s.effect = effect
	s.mu.Unlock()
}

// SetParams replaces the parameter set. Out-of-range values are rejected
// and the previous set is kept.
func (s *Settings) SetParams(params core.ProcessingParams) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid processing parameters: %w", err)
	}
	s.mu.Lock()
	s.params = params
	s.mu.Unlock()
	return nil
}
