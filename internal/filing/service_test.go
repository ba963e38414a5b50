package filing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/declaration"
	"github.com/autonomo/api/internal/fiscal"
)

func TestFileParams_Validate(t *testing.T) {
	owner := uuid.New()
	tests := []struct {
		name    string
		params  FileParams
		wantErr error
	}{
		{"quarterly", FileParams{OwnerID: owner, Model: declaration.Model303Code, Year: 2025, Quarter: 2}, nil},
		{"annual", FileParams{OwnerID: owner, Model: declaration.Model390Code, Year: 2025}, nil},
		{"unknown model", FileParams{Model: "111", Year: 2025, Quarter: 1}, ErrUnknownModel},
		{"quarterly without quarter", FileParams{Model: declaration.Model130Code, Year: 2025}, fiscal.ErrInvalidPeriod},
		{"annual with quarter", FileParams{Model: declaration.Model180Code, Year: 2025, Quarter: 4}, fiscal.ErrInvalidPeriod},
		{"year out of range", FileParams{Model: declaration.Model115Code, Year: 1990, Quarter: 1}, fiscal.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFiling_DocumentNumber(t *testing.T) {
	f := Filing{Model: declaration.Model303Code, Year: 2025, Number: 42}
	if got := f.DocumentNumber(); got != "303-2025-000042" {
		t.Errorf("expected 303-2025-000042, got %s", got)
	}
}

func TestParamsFor(t *testing.T) {
	owner := uuid.New()
	p := fiscal.Period{Quarter: 3, Year: 2025}

	m303 := declaration.Build303(p, declaration.Model303Input{
		Collected: declaration.VATBreakdown{General: declaration.TierAmounts{Base: decimal.NewFromInt(100), Quota: decimal.NewFromInt(21)}},
	})
	params, err := ParamsFor(owner, m303)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Model != declaration.Model303Code || params.Year != 2025 || params.Quarter != 3 {
		t.Errorf("unexpected params %+v", params)
	}
	if params.Result == nil || !params.Result.Equal(decimal.NewFromInt(21)) {
		t.Errorf("expected result 21, got %v", params.Result)
	}
	if params.Action != fiscal.ActionToPay {
		t.Errorf("expected TO_PAY, got %s", params.Action)
	}

	m180, err := declaration.Build180(2025, nil)
	if err != nil {
		t.Fatalf("building 180: %v", err)
	}
	params, err = ParamsFor(owner, m180)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Quarter != 0 || params.Result != nil || params.Action != "" {
		t.Errorf("expected informative annual params, got %+v", params)
	}
	if err := params.validate(); err != nil {
		t.Errorf("expected valid params, got %v", err)
	}

	if _, err := ParamsFor(owner, "not a box set"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}
