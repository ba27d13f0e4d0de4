package mode

import (
	"errors"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

var (
	ErrNotFound       = errors.New("mode: not found")
	ErrInvalidParams  = errors.New("mode: invalid parameters")
	ErrTimelockActive = errors.New("mode: activation timelock has not elapsed")
	ErrParamsLoosened = errors.New("mode: parameter update must tighten")
)

// Collateral ratio bounds, in basis points. A mode can require anywhere from
// 1x to 5x the coverage amount as reserved collateral.
const (
	MinCRBps uint32 = 10_000
	MaxCRBps uint32 = 50_000
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Params are the risk parameters for a settlement mode. Coverage for a
// session is clamp(PMin, PCap, maxSpend*ABps/10000 + pricePerChunk*BBps/10000)
// and the provider reserve is ceil(coverage*CRBps/10000).
type Params struct {
	CRBps uint32       `json:"cr_bps"`
	PMin  types.Amount `json:"p_min"`
	PCap  types.Amount `json:"p_cap"`
	ABps  uint32       `json:"a_bps"`
	BBps  uint32       `json:"b_bps"`
}

// Validate checks the parameter bounds.
func (p Params) Validate() error {
	if p.CRBps < MinCRBps || p.CRBps > MaxCRBps {
		return ErrInvalidParams
	}
	if p.PMin > p.PCap {
		return ErrInvalidParams
	}
	if p.PCap == 0 {
		return ErrInvalidParams
	}
	return nil
}

// Tightens reports whether next is at least as strict as p. The collateral
// ratio may only rise and the coverage cap may only fall, so providers never
// see a mode become riskier for users after they deposit against it.
func (p Params) Tightens(next Params) bool {
	return next.CRBps >= p.CRBps && next.PCap <= p.PCap && next.PMin >= p.PMin
}

type Mode struct {
	types.Entity
	ID             id.ModeID         `json:"id"`
	Name           string            `json:"name"`
	Params         Params            `json:"params"`
	Status         Status            `json:"status"`
	ActivationTick types.Tick        `json:"activation_tick"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
