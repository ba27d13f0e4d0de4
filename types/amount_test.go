package types

import (
	"errors"
	"math"
	"testing"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		want    Amount
		wantErr bool
	}{
		{"simple", 100, 200, 300, false},
		{"zero", 0, 0, 0, false},
		{"at max", MaxAmount - 1, 1, MaxAmount, false},
		{"overflow", MaxAmount, 1, 0, true},
		{"overflow both large", MaxAmount, MaxAmount, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.CheckedAdd(tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckedSub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		want    Amount
		wantErr bool
	}{
		{"simple", 300, 200, 100, false},
		{"to zero", 50, 50, 0, false},
		{"underflow", 10, 11, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.CheckedSub(tt.b)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMulBps(t *testing.T) {
	tests := []struct {
		name    string
		a       Amount
		bps     uint32
		want    Amount
		wantErr bool
	}{
		{"ten percent", 1000, 1000, 100, false},
		{"two hundred percent", 50, 20000, 100, false},
		{"truncates", 999, 1000, 99, false},
		{"one and a half", 200, 15000, 300, false},
		{"zero amount", 0, 15000, 0, false},
		{"large no overflow", Amount(math.MaxUint64 / 2), 10000, Amount(math.MaxUint64 / 2), false},
		{"overflow", MaxAmount, 20000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.MulBps(tt.bps)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCeilMulBps(t *testing.T) {
	tests := []struct {
		name string
		a    Amount
		bps  uint32
		want Amount
	}{
		{"exact", 200, 15000, 300},
		{"rounds up", 201, 15000, 302}, // 201 * 1.5 = 301.5
		{"rounds up small", 1, 1, 1},   // 0.0001 -> 1
		{"zero", 0, 15000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.CeilMulBps(tt.bps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name   string
		a      Amount
		lo, hi Amount
		want   Amount
	}{
		{"below floor", 50, 100, 10000, 100},
		{"within", 200, 100, 10000, 200},
		{"above cap", 20000, 100, 10000, 10000},
		{"at floor", 100, 100, 10000, 100},
		{"at cap", 10000, 100, 10000, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Clamp(tt.lo, tt.hi); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTickArithmetic(t *testing.T) {
	if !Tick(5).Before(6) {
		t.Error("5 should be before 6")
	}
	if Tick(6).Before(6) {
		t.Error("6 is not before itself")
	}
	if !Tick(7).After(6) {
		t.Error("7 should be after 6")
	}
	if got := Tick(100).Add(50); got != 150 {
		t.Errorf("Add: got %d, want 150", got)
	}
	if got := Tick(^uint64(0) - 1).Add(10); got != Tick(^uint64(0)) {
		t.Errorf("Add should saturate, got %d", got)
	}
}
