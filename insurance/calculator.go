// Package insurance computes session coverage and the provider collateral
// reserve backing it. Both calculations are pure integer fixed-point math
// over mode parameters; nothing here reads or writes state.
package insurance

import (
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/types"
)

// Coverage returns the insured amount for a session:
//
//	clamp(PMin, PCap, trunc(maxSpend*ABps/10000) + trunc(pricePerChunk*BBps/10000))
//
// The linear terms truncate individually. Overflow in any intermediate step
// fails the whole calculation.
func Coverage(maxSpend, pricePerChunk types.Amount, p mode.Params) (types.Amount, error) {
	spendTerm, err := maxSpend.MulBps(p.ABps)
	if err != nil {
		return 0, err
	}
	priceTerm, err := pricePerChunk.MulBps(p.BBps)
	if err != nil {
		return 0, err
	}
	raw, err := spendTerm.CheckedAdd(priceTerm)
	if err != nil {
		return 0, err
	}
	return raw.Clamp(p.PMin, p.PCap), nil
}

// CollateralReserve returns ceil(coverage*crBps/10000), the amount a provider
// must have free on its position before a session against it can open.
// Rounding up means the reserve always fully covers the insured amount.
func CollateralReserve(coverage types.Amount, crBps uint32) (types.Amount, error) {
	return coverage.CeilMulBps(crBps)
}
