package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/distress-leads/internal/gazette"
	"github.com/distress-leads/internal/matcher"
	"github.com/distress-leads/internal/store"
)

// SearchHandler serves ad-hoc match previews
type SearchHandler struct {
	Matcher *matcher.Matcher
}

// MatchCandidateResponse is one candidate in a preview response
type MatchCandidateResponse struct {
	TitleNumber     string  `json:"title_number"`
	PropertyAddress string  `json:"property_address,omitempty"`
	CompanyName     string  `json:"company_name"`
	CompanyNumber   string  `json:"company_number,omitempty"`
	Strength        string  `json:"strength"`
	Score           float64 `json:"score"`
	Basis           string  `json:"basis"`
}

// MatchPreview runs the matcher for ?name= and ?number= without touching
// the ledger, so operators can inspect what a subject would surface.
func (h *SearchHandler) MatchPreview(w http.ResponseWriter, r *http.Request) {
	subject := gazette.InsolvencySubject{
		CompanyName:   r.URL.Query().Get("name"),
		CompanyNumber: r.URL.Query().Get("number"),
	}

	candidates, err := h.Matcher.FindCandidates(r.Context(), subject)
	if errors.Is(err, matcher.ErrNoUsableSubject) {
		writeError(w, http.StatusBadRequest, "provide a name or number query parameter")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "match query failed")
		return
	}

	out := make([]MatchCandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, MatchCandidateResponse{
			TitleNumber:     c.Record.TitleNumber,
			PropertyAddress: c.Record.PropertyAddress,
			CompanyName:     c.Record.CompanyName,
			CompanyNumber:   c.Record.CompanyNumber,
			Strength:        c.Strength.String(),
			Score:           c.Score,
			Basis:           c.Basis,
		})
	}
	writeJSON(w, out)
}

// PropertyHandler serves single property records
type PropertyHandler struct {
	Store store.Store
}

// PropertyResponse is the JSON shape of a property record
type PropertyResponse struct {
	TitleNumber         string     `json:"title_number"`
	PropertyAddress     string     `json:"property_address,omitempty"`
	Postcode            string     `json:"postcode,omitempty"`
	CompanyName         string     `json:"company_name"`
	CompanyNumber       string     `json:"company_number,omitempty"`
	Tenure              string     `json:"tenure"`
	DateProprietorAdded *time.Time `json:"date_proprietor_added,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// GetProperty returns one record by title number.
func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	titleNumber := mux.Vars(r)["titleNumber"]

	record, err := h.Store.FindByTitleNumber(r.Context(), titleNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "property lookup failed")
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no such title")
		return
	}

	writeJSON(w, PropertyResponse{
		TitleNumber:         record.TitleNumber,
		PropertyAddress:     record.PropertyAddress,
		Postcode:            record.Postcode,
		CompanyName:         record.CompanyName,
		CompanyNumber:       record.CompanyNumber,
		Tenure:              string(record.Tenure),
		DateProprietorAdded: record.DateProprietorAdded,
		UpdatedAt:           record.UpdatedAt,
	})
}
