package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/autonomo/api/internal/archive"
	"github.com/autonomo/api/internal/filing"
	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/verifactu"
	"github.com/autonomo/api/internal/vies"
)

const maxBodyBytes = 1 << 20

// Filings per owner per minute.
const filingRateLimit = 30

// FilingStore persists filed declarations.
type FilingStore interface {
	File(ctx context.Context, params filing.FileParams) (*filing.Filing, error)
	Get(ctx context.Context, id uuid.UUID) (*filing.Filing, error)
	List(ctx context.Context, ownerID uuid.UUID, year int) ([]filing.Filing, error)
}

// VATChecker verifies EU VAT numbers online.
type VATChecker interface {
	Check(ctx context.Context, vatNumber string) (vies.Result, error)
}

// Options configures a Handler.
type Options struct {
	// Filings enables the filing endpoints. Nil leaves them unregistered.
	Filings FilingStore
	// Archive keeps a copy of each filed document. Optional.
	Archive archive.Archive
	// VIES enables online VAT number checks. Optional.
	VIES            VATChecker
	VerificationURL string
	QRSize          int
}

// Handler serves the fiscal engine over JSON.
type Handler struct {
	filings         FilingStore
	archive         archive.Archive
	vies            VATChecker
	verificationURL string
	qrSize          int
	validate        *validator.Validate
	logger          *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		filings:         opts.Filings,
		archive:         opts.Archive,
		vies:            opts.VIES,
		verificationURL: opts.VerificationURL,
		qrSize:          opts.QRSize,
		validate:        newValidator(),
		logger:          logger,
	}
}

// RegisterRoutes registers every API route.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("POST /api/v1/quotas/invoice", h.InvoiceQuota)
	mux.HandleFunc("POST /api/v1/quotas/validate", h.ValidateQuota)
	mux.HandleFunc("POST /api/v1/identity/validate", h.ValidateIdentity)
	mux.HandleFunc("POST /api/v1/social-security/quote", h.SocialSecurityQuote)
	mux.HandleFunc("POST /api/v1/prepayment/accumulate", h.Accumulate)
	mux.HandleFunc("POST /api/v1/risk/score", h.RiskScore)
	mux.HandleFunc("POST /api/v1/declarations/{model}", h.BuildDeclaration)
	mux.HandleFunc("POST /api/v1/invoices/qr", h.InvoiceQR)

	if h.vies != nil {
		mux.HandleFunc("POST /api/v1/identity/vies", h.CheckVIES)
	}

	if h.filings == nil {
		return
	}

	perOwner := httprate.Limit(filingRateLimit, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "owner:" + r.PathValue("owner"), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorJSON{Error: "too many filings for this owner"})
		}),
	)
	mux.Handle("POST /api/v1/owners/{owner}/filings/{model}", perOwner(http.HandlerFunc(h.FileDeclaration)))
	mux.HandleFunc("GET /api/v1/owners/{owner}/filings", h.ListFilings)
	mux.HandleFunc("GET /api/v1/filings/{id}", h.GetFiling)
	mux.HandleFunc("GET /api/v1/filings/{id}/document", h.GetFilingDocument)
}

type healthResponse struct {
	Status  string `json:"status"`
	Filings bool   `json:"filings"`
	Archive bool   `json:"archive"`
	VIES    bool   `json:"vies"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Filings: h.filings != nil,
		Archive: h.archive != nil,
		VIES:    h.vies != nil,
	})
}

// --- Helpers ---

type errorJSON struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// errInvalidTaxID marks a tax ID that fails format or checksum validation.
var errInvalidTaxID = errors.New("invalid tax id")

// writeJSON marshals v as JSON and writes it to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; just log the error.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// decode reads a JSON body into v and validates its struct tags. It writes
// the error response itself and reports whether the handler may proceed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: msg})
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			writeJSON(w, http.StatusUnprocessableEntity, errorJSON{
				Error: fmt.Sprintf("failed on %q", fe.Tag()),
				Field: fieldPath(fe.Namespace()),
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError maps engine and store errors to a response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fiscal.ErrInvalidAmount),
		errors.Is(err, fiscal.ErrUnsupportedRate),
		errors.Is(err, fiscal.ErrInvalidPeriod),
		errors.Is(err, errInvalidTaxID),
		errors.Is(err, filing.ErrUnknownModel),
		errors.Is(err, verifactu.ErrInvalidIssuer),
		errors.Is(err, verifactu.ErrMissingNumber),
		errors.Is(err, verifactu.ErrMissingDate),
		errors.Is(err, vies.ErrInvalidNumber):
		writeJSON(w, http.StatusUnprocessableEntity, errorJSON{Error: err.Error(), Field: fiscal.FieldOf(err)})
	case errors.Is(err, filing.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorJSON{Error: "filing not found"})
	case errors.Is(err, vies.ErrUnavailable):
		h.logger.Warn("VIES unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "VIES is unavailable, try again later"})
	case errors.Is(err, archive.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorJSON{Error: "document not archived"})
	default:
		h.logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
