package api

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/declaration"
	"github.com/autonomo/api/internal/filing"
	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/identity"
	"github.com/autonomo/api/internal/prepayment"
)

type model303Request struct {
	Year       int                      `json:"year" validate:"required"`
	Quarter    int                      `json:"quarter" validate:"required,min=1,max=4"`
	Collected  declaration.VATBreakdown `json:"collected"`
	Deductible declaration.VATBreakdown `json:"deductible"`
}

type model130Request struct {
	Year        int               `json:"year" validate:"required"`
	Quarter     int               `json:"quarter" validate:"required,min=1,max=4"`
	Income      []decimal.Decimal `json:"income" validate:"max=4"`
	Expense     []decimal.Decimal `json:"expense" validate:"max=4"`
	Withholding []decimal.Decimal `json:"withholding" validate:"max=4"`
}

type model115Request struct {
	Year       int                         `json:"year" validate:"required"`
	Quarter    int                         `json:"quarter" validate:"required,min=1,max=4"`
	Payments   []declaration.RentalPayment `json:"payments" validate:"dive"`
	Correction decimal.Decimal             `json:"correction"`
}

type quarter303Request struct {
	Quarter    int                      `json:"quarter" validate:"required,min=1,max=4"`
	Collected  declaration.VATBreakdown `json:"collected"`
	Deductible declaration.VATBreakdown `json:"deductible"`
}

type quarter115Request struct {
	Quarter    int                         `json:"quarter" validate:"required,min=1,max=4"`
	Payments   []declaration.RentalPayment `json:"payments"`
	Correction decimal.Decimal             `json:"correction"`
}

type model390Request struct {
	Year     int                 `json:"year" validate:"required"`
	Quarters []quarter303Request `json:"quarters" validate:"max=4,dive"`
}

type model180Request struct {
	Year     int                 `json:"year" validate:"required"`
	Quarters []quarter115Request `json:"quarters" validate:"max=4,dive"`
}

// BuildDeclaration handles POST /api/v1/declarations/{model}
// Returns the box set without storing it.
func (h *Handler) BuildDeclaration(w http.ResponseWriter, r *http.Request) {
	boxes, ok := h.buildBoxes(w, r, declaration.Model(r.PathValue("model")))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, boxes)
}

// buildBoxes decodes the request body for model m and runs the matching
// builder. On failure it writes the response and returns false.
func (h *Handler) buildBoxes(w http.ResponseWriter, r *http.Request, m declaration.Model) (any, bool) {
	var (
		boxes any
		err   error
	)

	switch m {
	case declaration.Model303Code:
		var req model303Request
		if !h.decode(w, r, &req) {
			return nil, false
		}
		boxes, err = build303(req)
	case declaration.Model130Code:
		var req model130Request
		if !h.decode(w, r, &req) {
			return nil, false
		}
		boxes, err = build130(req)
	case declaration.Model115Code:
		var req model115Request
		if !h.decode(w, r, &req) {
			return nil, false
		}
		boxes, err = build115(req)
	case declaration.Model390Code:
		var req model390Request
		if !h.decode(w, r, &req) {
			return nil, false
		}
		boxes, err = build390(req)
	case declaration.Model180Code:
		var req model180Request
		if !h.decode(w, r, &req) {
			return nil, false
		}
		boxes, err = build180(req)
	default:
		err = fiscal.NewFieldError("model", string(m), filing.ErrUnknownModel)
	}

	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return boxes, true
}

func build303(req model303Request) (declaration.Model303, error) {
	p, err := fiscal.NewPeriod(req.Quarter, req.Year)
	if err != nil {
		return declaration.Model303{}, err
	}
	in := declaration.Model303Input{Collected: req.Collected, Deductible: req.Deductible}
	if err := validate303(in, ""); err != nil {
		return declaration.Model303{}, err
	}
	return declaration.Build303(p, in), nil
}

func build130(req model130Request) (declaration.Model130, error) {
	p, err := fiscal.NewPeriod(req.Quarter, req.Year)
	if err != nil {
		return declaration.Model130{}, err
	}
	qs := accumulateRequest{Income: req.Income, Expense: req.Expense, Withholding: req.Withholding}.quarters()
	acc, err := prepayment.Accumulate(qs, req.Quarter)
	if err != nil {
		return declaration.Model130{}, err
	}
	return declaration.Build130(p, acc), nil
}

func build115(req model115Request) (declaration.Model115, error) {
	p, err := fiscal.NewPeriod(req.Quarter, req.Year)
	if err != nil {
		return declaration.Model115{}, err
	}
	in := declaration.Model115Input{Payments: req.Payments, Correction: req.Correction}
	if err := validate115(in, ""); err != nil {
		return declaration.Model115{}, err
	}
	return declaration.Build115(p, in), nil
}

func build390(req model390Request) (declaration.Model390, error) {
	quarters := make([]declaration.Model303, 0, len(req.Quarters))
	for i, q := range req.Quarters {
		prefix := fmt.Sprintf("quarters[%d].", i)
		p, err := fiscal.NewPeriod(q.Quarter, req.Year)
		if err != nil {
			return declaration.Model390{}, err
		}
		in := declaration.Model303Input{Collected: q.Collected, Deductible: q.Deductible}
		if err := validate303(in, prefix); err != nil {
			return declaration.Model390{}, err
		}
		quarters = append(quarters, declaration.Build303(p, in))
	}
	return declaration.Build390(req.Year, quarters)
}

func build180(req model180Request) (declaration.Model180, error) {
	quarters := make([]declaration.Model115, 0, len(req.Quarters))
	for i, q := range req.Quarters {
		prefix := fmt.Sprintf("quarters[%d].", i)
		p, err := fiscal.NewPeriod(q.Quarter, req.Year)
		if err != nil {
			return declaration.Model180{}, err
		}
		in := declaration.Model115Input{Payments: q.Payments, Correction: q.Correction}
		if err := validate115(in, prefix); err != nil {
			return declaration.Model180{}, err
		}
		quarters = append(quarters, declaration.Build115(p, in))
	}
	return declaration.Build180(req.Year, quarters)
}

func validate303(in declaration.Model303Input, prefix string) error {
	if err := validateBreakdown(in.Collected, prefix+"collected"); err != nil {
		return err
	}
	return validateBreakdown(in.Deductible, prefix+"deductible")
}

func validateBreakdown(b declaration.VATBreakdown, field string) error {
	tiers := []struct {
		name string
		amt  declaration.TierAmounts
	}{
		{"super_reduced", b.SuperReduced},
		{"reduced", b.Reduced},
		{"general", b.General},
	}
	for _, t := range tiers {
		if err := fiscal.ValidateAmount(field+"."+t.name+".base", t.amt.Base); err != nil {
			return err
		}
		if err := fiscal.ValidateAmount(field+"."+t.name+".quota", t.amt.Quota); err != nil {
			return err
		}
	}
	return nil
}

func validate115(in declaration.Model115Input, prefix string) error {
	for i, pay := range in.Payments {
		field := fmt.Sprintf("%spayments[%d]", prefix, i)
		if !identity.ValidTaxID(pay.PayeeID) {
			return fiscal.NewFieldError(field+".payee_id", pay.PayeeID, errInvalidTaxID)
		}
		if err := fiscal.ValidateAmount(field+".base", pay.Base); err != nil {
			return err
		}
	}
	return fiscal.ValidateAmount(prefix+"correction", in.Correction)
}
