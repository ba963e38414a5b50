package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/autonomo/api/internal/archive"
	"github.com/autonomo/api/internal/declaration"
	"github.com/autonomo/api/internal/filing"
)

// Archived documents are only linked for this long.
const documentURLExpiry = 15 * time.Minute

type filingResponse struct {
	*filing.Filing
	DocumentNumber string `json:"document_number"`
	DocumentURL    string `json:"document_url,omitempty"`
}

func newFilingResponse(f *filing.Filing) filingResponse {
	return filingResponse{Filing: f, DocumentNumber: f.DocumentNumber()}
}

// FileDeclaration handles POST /api/v1/owners/{owner}/filings/{model}
// Builds the box set from the body and stores it under the next document
// number of the owner and year.
func (h *Handler) FileDeclaration(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.PathValue("owner"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid owner id", Field: "owner"})
		return
	}

	boxes, ok := h.buildBoxes(w, r, declaration.Model(r.PathValue("model")))
	if !ok {
		return
	}

	params, err := filing.ParamsFor(ownerID, boxes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	f, err := h.filings.File(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("declaration filed via api",
		"owner_id", ownerID,
		"document_number", f.DocumentNumber(),
	)

	resp := newFilingResponse(f)
	if h.archive != nil {
		resp.DocumentURL = h.archiveFiling(r, resp)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// archiveFiling stores the filed document and returns its URL. The filing
// is already committed, so failures are logged and leave the URL empty.
func (h *Handler) archiveFiling(r *http.Request, resp filingResponse) string {
	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("encoding filed document", "error", err, "document_number", resp.DocumentNumber)
		return ""
	}

	key := archive.Key(resp.OwnerID, resp.Year, resp.DocumentNumber)
	if _, err := h.archive.Put(r.Context(), key, body, "application/json"); err != nil {
		h.logger.Error("archiving filed document", "error", err, "key", key)
		return ""
	}

	url, err := h.archive.URL(r.Context(), key, documentURLExpiry)
	if err != nil {
		h.logger.Warn("linking archived document", "error", err, "key", key)
		return ""
	}
	return url
}

// ListFilings handles GET /api/v1/owners/{owner}/filings?year=
// The year defaults to the current one.
func (h *Handler) ListFilings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(r.PathValue("owner"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid owner id", Field: "owner"})
		return
	}

	year := time.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid year", Field: "year"})
			return
		}
	}

	filings, err := h.filings.List(r.Context(), ownerID, year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]filingResponse, 0, len(filings))
	for i := range filings {
		resp = append(resp, newFilingResponse(&filings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFiling handles GET /api/v1/filings/{id}
func (h *Handler) GetFiling(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid filing id", Field: "id"})
		return
	}

	f, err := h.filings.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFilingResponse(f))
}

// GetFilingDocument handles GET /api/v1/filings/{id}/document
// Serves the archived copy made when the declaration was filed.
func (h *Handler) GetFilingDocument(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeJSON(w, http.StatusNotFound, errorJSON{Error: "document archive disabled"})
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid filing id", Field: "id"})
		return
	}

	f, err := h.filings.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.archive.Get(r.Context(), archive.Key(f.OwnerID, f.Year, f.DocumentNumber()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.DocumentNumber()+`.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
