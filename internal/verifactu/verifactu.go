// Package verifactu builds the verification URL and QR code that must be
// printed on every invoice issued under the VeriFactu scheme.
package verifactu

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/identity"
)

// Verification endpoints of the tax agency.
const (
	TestURL       = "https://prewww2.aeat.es/wlpl/TIKE-CONT/ValidarQR"
	ProductionURL = "https://www2.agenciatributaria.gob.es/wlpl/TIKE-CONT/ValidarQR"
)

// DefaultSize is the PNG edge in pixels.
const DefaultSize = 256

// Smallest edge that still scans once printed.
const minSize = 64

var (
	ErrInvalidIssuer = errors.New("verifactu: invalid issuer tax id")
	ErrMissingNumber = errors.New("verifactu: missing invoice number")
	ErrMissingDate   = errors.New("verifactu: missing issue date")
)

// Invoice holds the fields the verification URL carries.
type Invoice struct {
	IssuerNIF string          `json:"issuer_nif"`
	Series    string          `json:"series"` // series and number, as printed
	IssueDate time.Time       `json:"issue_date"`
	Total     decimal.Decimal `json:"total"`
}

func (inv Invoice) validate() error {
	if !identity.ValidTaxID(inv.IssuerNIF) {
		return fiscal.NewFieldError("issuer_nif", inv.IssuerNIF, ErrInvalidIssuer)
	}
	if strings.TrimSpace(inv.Series) == "" {
		return fiscal.NewFieldError("series", inv.Series, ErrMissingNumber)
	}
	if inv.IssueDate.IsZero() {
		return fiscal.NewFieldError("issue_date", "", ErrMissingDate)
	}
	return fiscal.ValidateAmount("total", inv.Total)
}

// VerificationURL returns the URL encoded in the invoice QR. Parameters
// keep the order the agency documents.
func VerificationURL(base string, inv Invoice) (string, error) {
	if err := inv.validate(); err != nil {
		return "", err
	}
	if base == "" {
		base = ProductionURL
	}

	params := []string{
		"nif=" + url.QueryEscape(identity.Normalize(inv.IssuerNIF)),
		"numserie=" + url.QueryEscape(strings.TrimSpace(inv.Series)),
		"fecha=" + inv.IssueDate.Format("02-01-2006"),
		"importe=" + inv.Total.StringFixed(2),
	}
	return base + "?" + strings.Join(params, "&"), nil
}

// QRCode renders the verification URL of inv as a PNG of size pixels.
func QRCode(base string, inv Invoice, size int) ([]byte, error) {
	u, err := VerificationURL(base, inv)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size < minSize {
		size = minSize
	}

	png, err := qrcode.Encode(u, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generating QR code: %w", err)
	}
	return png, nil
}
