package insurance_test

import (
	"errors"
	"testing"

	"github.com/xraph/escrow/insurance"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/types"
)

func TestCoverage(t *testing.T) {
	base := mode.Params{
		CRBps: 15_000,
		PMin:  100,
		PCap:  10_000,
		ABps:  1_000,  // 0.10
		BBps:  20_000, // 2.00
	}

	tests := []struct {
		name          string
		maxSpend      types.Amount
		pricePerChunk types.Amount
		params        mode.Params
		want          types.Amount
	}{
		// 0.10*1000 + 2.00*50 = 100 + 100 = 200, inside [100, 10000].
		{"linear inside bounds", 1000, 50, base, 200},
		// 0.10*10 + 2.00*1 = 1 + 2 = 3, clamped up to PMin.
		{"clamped to floor", 10, 1, base, 100},
		// 0.10*200000 + 2.00*50 = 20000 + 100, clamped down to PCap.
		{"clamped to cap", 200_000, 50, base, 10_000},
		// Terms truncate individually: 0.10*1009 = 100 (not 100.9).
		{"truncation per term", 1009, 0, base, 100},
		{"zero inputs clamp to floor", 0, 0, base, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := insurance.Coverage(tt.maxSpend, tt.pricePerChunk, tt.params)
			if err != nil {
				t.Fatalf("Coverage failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Coverage = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCoverageOverflow(t *testing.T) {
	p := mode.Params{CRBps: 15_000, PMin: 100, PCap: types.MaxAmount, ABps: 20_000, BBps: 20_000}

	_, err := insurance.Coverage(types.MaxAmount, 0, p)
	if !errors.Is(err, types.ErrOverflow) {
		t.Errorf("expected ErrOverflow for max spend term, got %v", err)
	}

	// Each term fits but their sum wraps.
	_, err = insurance.Coverage(types.MaxAmount/2, types.MaxAmount/2, p)
	if !errors.Is(err, types.ErrOverflow) {
		t.Errorf("expected ErrOverflow for term sum, got %v", err)
	}
}

func TestCollateralReserve(t *testing.T) {
	tests := []struct {
		name     string
		coverage types.Amount
		crBps    uint32
		want     types.Amount
	}{
		{"exact multiple", 200, 15_000, 300},
		{"rounds up", 201, 15_000, 302}, // 201*1.5 = 301.5
		{"one to one", 500, 10_000, 500},
		{"five to one", 100, 50_000, 500},
		{"zero coverage", 0, 15_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := insurance.CollateralReserve(tt.coverage, tt.crBps)
			if err != nil {
				t.Fatalf("CollateralReserve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("CollateralReserve = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCollateralReserveOverflow(t *testing.T) {
	_, err := insurance.CollateralReserve(types.MaxAmount, 15_000)
	if !errors.Is(err, types.ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}
