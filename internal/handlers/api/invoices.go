package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/verifactu"
)

type invoiceQRRequest struct {
	IssuerNIF string           `json:"issuer_nif" validate:"required,max=16"`
	Series    string           `json:"series" validate:"required,max=60"`
	IssueDate string           `json:"issue_date" validate:"required"`
	Total     *decimal.Decimal `json:"total" validate:"required"`
}

type invoiceURLResponse struct {
	URL string `json:"url"`
}

// InvoiceQR handles POST /api/v1/invoices/qr
// Responds with a PNG, or with the bare URL when format=url.
func (h *Handler) InvoiceQR(w http.ResponseWriter, r *http.Request) {
	var req invoiceQRRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		h.writeError(w, r, fiscal.NewFieldError("issue_date", req.IssueDate, verifactu.ErrMissingDate))
		return
	}

	inv := verifactu.Invoice{
		IssuerNIF: req.IssuerNIF,
		Series:    req.Series,
		IssueDate: issued,
		Total:     *req.Total,
	}

	if r.URL.Query().Get("format") == "url" {
		u, err := verifactu.VerificationURL(h.verificationURL, inv)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, invoiceURLResponse{URL: u})
		return
	}

	png, err := verifactu.QRCode(h.verificationURL, inv, h.qrSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
