package mode_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/types"
)

func validParams() mode.Params {
	return mode.Params{
		CRBps: 15_000,
		PMin:  types.Amount(100),
		PCap:  types.Amount(10_000),
		ABps:  1_000,
		BBps:  20_000,
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*mode.Params)
		wantErr bool
	}{
		{"valid", func(p *mode.Params) {}, false},
		{"cr at lower bound", func(p *mode.Params) { p.CRBps = mode.MinCRBps }, false},
		{"cr at upper bound", func(p *mode.Params) { p.CRBps = mode.MaxCRBps }, false},
		{"cr below bound", func(p *mode.Params) { p.CRBps = mode.MinCRBps - 1 }, true},
		{"cr above bound", func(p *mode.Params) { p.CRBps = mode.MaxCRBps + 1 }, true},
		{"min above cap", func(p *mode.Params) { p.PMin = 20_000 }, true},
		{"zero cap", func(p *mode.Params) { p.PMin = 0; p.PCap = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && !errors.Is(err, mode.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAddAndActivate(t *testing.T) {
	ctx := context.Background()
	r := mode.NewMemoryRegistry(10)

	m, err := r.Add(ctx, "standard", validParams(), types.Tick(100))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if m.Status != mode.StatusPending {
		t.Errorf("expected pending status, got %q", m.Status)
	}
	if m.ActivationTick != types.Tick(110) {
		t.Errorf("expected activation tick 110, got %d", m.ActivationTick)
	}

	active, err := r.IsActive(ctx, m.ID)
	if err != nil {
		t.Fatalf("IsActive failed: %v", err)
	}
	if active {
		t.Error("pending mode should not be active")
	}

	// Before the timelock elapses.
	if err := r.Activate(ctx, m.ID, types.Tick(109)); !errors.Is(err, mode.ErrTimelockActive) {
		t.Errorf("expected ErrTimelockActive, got %v", err)
	}

	if err := r.Activate(ctx, m.ID, types.Tick(110)); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	active, _ = r.IsActive(ctx, m.ID)
	if !active {
		t.Error("mode should be active after activation")
	}
}

func TestDisable(t *testing.T) {
	ctx := context.Background()
	r := mode.NewMemoryRegistry(0)

	m, _ := r.Add(ctx, "standard", validParams(), 0)
	if err := r.Activate(ctx, m.ID, 0); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if err := r.Disable(ctx, m.ID); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}

	active, err := r.IsActive(ctx, m.ID)
	if err != nil {
		t.Fatalf("IsActive failed: %v", err)
	}
	if active {
		t.Error("disabled mode should not be active")
	}

	// Disabled modes can come back after the timelock.
	if err := r.Activate(ctx, m.ID, 0); err != nil {
		t.Fatalf("re-Activate failed: %v", err)
	}
	active, _ = r.IsActive(ctx, m.ID)
	if !active {
		t.Error("re-activated mode should be active")
	}
}

func TestUpdateParamsTightenOnly(t *testing.T) {
	ctx := context.Background()
	r := mode.NewMemoryRegistry(0)
	m, _ := r.Add(ctx, "standard", validParams(), 0)

	tests := []struct {
		name    string
		mutate  func(*mode.Params)
		wantErr error
	}{
		{"cr rises", func(p *mode.Params) { p.CRBps = 20_000 }, nil},
		{"cap falls", func(p *mode.Params) { p.PCap = 5_000 }, nil},
		{"min rises", func(p *mode.Params) { p.PMin = 200 }, nil},
		{"unchanged", func(p *mode.Params) {}, nil},
		{"cr falls", func(p *mode.Params) { p.CRBps = 14_000 }, mode.ErrParamsLoosened},
		{"cap rises", func(p *mode.Params) { p.PCap = 20_000 }, mode.ErrParamsLoosened},
		{"min falls", func(p *mode.Params) { p.PMin = 50 }, mode.ErrParamsLoosened},
		{"invalid update", func(p *mode.Params) { p.CRBps = 60_000 }, mode.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, err := r.Params(ctx, m.ID)
			if err != nil {
				t.Fatalf("Params failed: %v", err)
			}
			next := current
			tt.mutate(&next)

			err = r.UpdateParams(ctx, m.ID, next)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateParams failed: %v", err)
			}
			got, _ := r.Params(ctx, m.ID)
			if got != next {
				t.Errorf("params not applied: got %+v, want %+v", got, next)
			}
		})
	}
}

func TestUnknownMode(t *testing.T) {
	ctx := context.Background()
	r := mode.NewMemoryRegistry(0)
	missing := id.NewModeID()

	if _, err := r.IsActive(ctx, missing); !errors.Is(err, mode.ErrNotFound) {
		t.Errorf("IsActive: expected ErrNotFound, got %v", err)
	}
	if _, err := r.Params(ctx, missing); !errors.Is(err, mode.ErrNotFound) {
		t.Errorf("Params: expected ErrNotFound, got %v", err)
	}
	if err := r.Activate(ctx, missing, 0); !errors.Is(err, mode.ErrNotFound) {
		t.Errorf("Activate: expected ErrNotFound, got %v", err)
	}
	if err := r.Disable(ctx, missing); !errors.Is(err, mode.ErrNotFound) {
		t.Errorf("Disable: expected ErrNotFound, got %v", err)
	}
	if err := r.UpdateParams(ctx, missing, validParams()); !errors.Is(err, mode.ErrNotFound) {
		t.Errorf("UpdateParams: expected ErrNotFound, got %v", err)
	}
}
