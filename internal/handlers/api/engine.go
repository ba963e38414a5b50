package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/identity"
	"github.com/autonomo/api/internal/prepayment"
	"github.com/autonomo/api/internal/quota"
	"github.com/autonomo/api/internal/risk"
	"github.com/autonomo/api/internal/socialsecurity"
)

type invoiceQuotaRequest struct {
	Base            *decimal.Decimal `json:"base" validate:"required"`
	VATRate         *decimal.Decimal `json:"vat_rate" validate:"required"`
	WithholdingRate *decimal.Decimal `json:"withholding_rate"`
}

// InvoiceQuota handles POST /api/v1/quotas/invoice
func (h *Handler) InvoiceQuota(w http.ResponseWriter, r *http.Request) {
	var req invoiceQuotaRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := quota.Invoice(*req.Base, *req.VATRate, req.WithholdingRate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type validateQuotaRequest struct {
	Kind             string           `json:"kind" validate:"required,oneof=vat withholding total"`
	Base             *decimal.Decimal `json:"base" validate:"required"`
	Rate             *decimal.Decimal `json:"rate" validate:"required_unless=Kind total"`
	VATQuota         *decimal.Decimal `json:"vat_quota" validate:"required_if=Kind total"`
	WithholdingQuota *decimal.Decimal `json:"withholding_quota" validate:"required_if=Kind total"`
	Declared         *decimal.Decimal `json:"declared" validate:"required"`
}

type validateQuotaResponse struct {
	Valid bool `json:"valid"`
}

// ValidateQuota handles POST /api/v1/quotas/validate
// Checks a declared quota or document total against the recomputed figure.
func (h *Handler) ValidateQuota(w http.ResponseWriter, r *http.Request) {
	var req validateQuotaRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		valid bool
		err   error
	)
	switch req.Kind {
	case "vat":
		valid, err = quota.ValidateVATQuota(*req.Base, *req.Rate, *req.Declared)
	case "withholding":
		valid, err = quota.ValidateWithholdingQuota(*req.Base, *req.Rate, *req.Declared)
	default:
		valid, err = quota.ValidateDocumentTotal(*req.Base, *req.VATQuota, *req.WithholdingQuota, *req.Declared)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateQuotaResponse{Valid: valid})
}

type identityRequest struct {
	Value string `json:"value" validate:"required,max=64"`
	Kind  string `json:"kind" validate:"omitempty,oneof=nif cif nie iban"`
}

type identityResponse struct {
	Valid      bool   `json:"valid"`
	Kind       string `json:"kind"`
	Normalized string `json:"normalized"`
	// ControlMatches is set for company IDs only.
	ControlMatches *bool `json:"control_matches,omitempty"`
}

// ValidateIdentity handles POST /api/v1/identity/validate
// Without a kind, the value is classified as any tax ID.
func (h *Handler) ValidateIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp := identityResponse{Normalized: identity.Normalize(req.Value)}
	switch req.Kind {
	case "nif":
		resp.Valid, resp.Kind = identity.ValidNIF(req.Value), string(identity.KindPersonal)
	case "cif":
		resp.Valid, resp.Kind = identity.ValidCIF(req.Value), string(identity.KindCompany)
	case "nie":
		resp.Valid, resp.Kind = identity.ValidNIE(req.Value), string(identity.KindForeign)
	case "iban":
		resp.Valid, resp.Kind = identity.ValidIBAN(req.Value), "iban"
	default:
		kind := identity.Classify(req.Value)
		resp.Valid, resp.Kind = kind != identity.KindUnknown, string(kind)
	}

	if resp.Valid && resp.Kind == string(identity.KindCompany) {
		matches := identity.CIFControlMatches(req.Value)
		resp.ControlMatches = &matches
	}

	writeJSON(w, http.StatusOK, resp)
}

type socialSecurityRequest struct {
	MonthlyNetIncome *decimal.Decimal `json:"monthly_net_income" validate:"required"`
	FlatRate         bool             `json:"flat_rate"`
	ChosenBase       *decimal.Decimal `json:"chosen_base"`
}

// SocialSecurityQuote handles POST /api/v1/social-security/quote
func (h *Handler) SocialSecurityQuote(w http.ResponseWriter, r *http.Request) {
	var req socialSecurityRequest
	if !h.decode(w, r, &req) {
		return
	}

	q, err := socialsecurity.Quote(socialsecurity.Input{
		MonthlyNetIncome: *req.MonthlyNetIncome,
		FlatRate:         req.FlatRate,
		ChosenBase:       req.ChosenBase,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// accumulateRequest carries quarter-only sums, first quarter first.
type accumulateRequest struct {
	Quarter     int               `json:"quarter" validate:"required,min=1,max=4"`
	Income      []decimal.Decimal `json:"income" validate:"max=4"`
	Expense     []decimal.Decimal `json:"expense" validate:"max=4"`
	Withholding []decimal.Decimal `json:"withholding" validate:"max=4"`
}

func (req accumulateRequest) quarters() prepayment.Quarters {
	var qs prepayment.Quarters
	copy(qs.Income[:], req.Income)
	copy(qs.Expense[:], req.Expense)
	copy(qs.Withholding[:], req.Withholding)
	return qs
}

// Accumulate handles POST /api/v1/prepayment/accumulate
func (h *Handler) Accumulate(w http.ResponseWriter, r *http.Request) {
	var req accumulateRequest
	if !h.decode(w, r, &req) {
		return
	}

	acc, err := prepayment.Accumulate(req.quarters(), req.Quarter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type riskRequest struct {
	ClientDependency     *decimal.Decimal `json:"client_dependency" validate:"required"`
	IndependenceExpenses bool             `json:"independence_expenses"`
	HighRiskExpenses     int              `json:"high_risk_expenses"`
}

// RiskScore handles POST /api/v1/risk/score
func (h *Handler) RiskScore(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !h.decode(w, r, &req) {
		return
	}

	score, err := risk.Evaluate(risk.Input{
		ClientDependency:     *req.ClientDependency,
		IndependenceExpenses: req.IndependenceExpenses,
		HighRiskExpenses:     req.HighRiskExpenses,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

type viesRequest struct {
	VATNumber string `json:"vat_number" validate:"required,max=20"`
}

// CheckVIES handles POST /api/v1/identity/vies
func (h *Handler) CheckVIES(w http.ResponseWriter, r *http.Request) {
	var req viesRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.vies.Check(r.Context(), req.VATNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
