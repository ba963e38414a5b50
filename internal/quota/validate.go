package quota

import (
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// ValidateVATQuota reports whether declared matches VATQuota(base, rate)
// within Tolerance. The error is non-nil only for an invalid base or rate.
func ValidateVATQuota(base, rate, declared decimal.Decimal) (bool, error) {
	want, err := VATQuota(base, rate)
	if err != nil {
		return false, err
	}
	return fiscal.WithinTolerance(declared, want, Tolerance()), nil
}

// ValidateWithholdingQuota reports whether declared matches
// WithholdingQuota(base, rate) within Tolerance.
func ValidateWithholdingQuota(base, rate, declared decimal.Decimal) (bool, error) {
	want, err := WithholdingQuota(base, rate)
	if err != nil {
		return false, err
	}
	return fiscal.WithinTolerance(declared, want, Tolerance()), nil
}

// ValidateDocumentTotal reports whether declared matches
// DocumentTotal(base, vat, withholding) within Tolerance.
func ValidateDocumentTotal(base, vatQuota, withholdingQuota, declared decimal.Decimal) (bool, error) {
	want, err := DocumentTotal(base, vatQuota, withholdingQuota)
	if err != nil {
		return false, err
	}
	return fiscal.WithinTolerance(declared, want, Tolerance()), nil
}
