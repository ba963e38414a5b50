package fiscal

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8.5588", "8.56"},
		{"0.005", "0.01"},
		{"0.004", "0"},
		{"210", "210"},
		{"1.235", "1.24"},
	}

	for _, tt := range tests {
		got := Round2(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Round2(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"zero", "0", false},
		{"cents", "1000.25", false},
		{"negative", "-0.01", true},
		{"sub-cent", "10.005", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount("base", decimal.RequireFromString(tt.in))
			if tt.wantErr != (err != nil) {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("expected ErrInvalidAmount, got %v", err)
				}
				if FieldOf(err) != "base" {
					t.Errorf("expected field base, got %q", FieldOf(err))
				}
			}
		})
	}
}

func TestAmountFromFloat_RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := AmountFromFloat("base", f); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("AmountFromFloat(%v): expected ErrInvalidAmount, got %v", f, err)
		}
	}

	d, err := AmountFromFloat("base", 950.98)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("950.98")) {
		t.Errorf("expected 950.98, got %s", d)
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{"0.01", ActionToPay},
		{"-440", ActionToOffset},
		{"0", ActionNoActivity},
	}

	for _, tt := range tests {
		if got := ActionFor(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("ActionFor(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("210.00")
	if !WithinTolerance(a, decimal.RequireFromString("210.01"), Cent()) {
		t.Error("expected 0.01 drift to be tolerated")
	}
	if WithinTolerance(a, decimal.RequireFromString("210.02"), Cent()) {
		t.Error("expected 0.02 drift to be rejected")
	}
}
