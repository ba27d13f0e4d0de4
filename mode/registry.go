package mode

import (
	"context"
	"sync"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

// Registry is the read-only view the settlement engine consumes when a
// session opens. Parameters are captured into the session at that point and
// later registry changes never affect it.
type Registry interface {
	IsActive(ctx context.Context, modeID id.ModeID) (bool, error)
	Params(ctx context.Context, modeID id.ModeID) (Params, error)
}

// MemoryRegistry is an in-memory Registry with the admin lifecycle:
// modes are added pending, become activatable after a timelock, and can be
// disabled to block new sessions. Parameter updates may only tighten.
type MemoryRegistry struct {
	mu       sync.RWMutex
	modes    map[id.ModeID]*Mode
	timelock uint64
}

// NewMemoryRegistry creates a registry whose modes activate no earlier than
// timelock ticks after they are added.
func NewMemoryRegistry(timelock uint64) *MemoryRegistry {
	return &MemoryRegistry{
		modes:    make(map[id.ModeID]*Mode),
		timelock: timelock,
	}
}

// Add registers a new mode in pending status. It becomes activatable at
// now + timelock.
func (r *MemoryRegistry) Add(ctx context.Context, name string, params Params, now types.Tick) (*Mode, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	m := &Mode{
		Entity:         types.NewEntity(),
		ID:             id.NewModeID(),
		Name:           name,
		Params:         params,
		Status:         StatusPending,
		ActivationTick: now.Add(r.timelock),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.ID] = m
	return m, nil
}

// Activate moves a pending or disabled mode to active. Fails until the
// activation timelock has elapsed.
func (r *MemoryRegistry) Activate(ctx context.Context, modeID id.ModeID, now types.Tick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modes[modeID]
	if !ok {
		return ErrNotFound
	}
	if now.Before(m.ActivationTick) {
		return ErrTimelockActive
	}
	m.Status = StatusActive
	m.Touch()
	return nil
}

// Disable blocks new sessions on the mode. Sessions already opened against
// it are unaffected.
func (r *MemoryRegistry) Disable(ctx context.Context, modeID id.ModeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modes[modeID]
	if !ok {
		return ErrNotFound
	}
	m.Status = StatusDisabled
	m.Touch()
	return nil
}

// UpdateParams replaces the mode's parameters. The update must be valid and
// at least as strict as the current parameters.
func (r *MemoryRegistry) UpdateParams(ctx context.Context, modeID id.ModeID, params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modes[modeID]
	if !ok {
		return ErrNotFound
	}
	if !m.Params.Tightens(params) {
		return ErrParamsLoosened
	}
	m.Params = params
	m.Touch()
	return nil
}

// Get returns a copy of the mode.
func (r *MemoryRegistry) Get(ctx context.Context, modeID id.ModeID) (*Mode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modes[modeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MemoryRegistry) IsActive(ctx context.Context, modeID id.ModeID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modes[modeID]
	if !ok {
		return false, ErrNotFound
	}
	return m.Status == StatusActive, nil
}

func (r *MemoryRegistry) Params(ctx context.Context, modeID id.ModeID) (Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modes[modeID]
	if !ok {
		return Params{}, ErrNotFound
	}
	return m.Params, nil
}
