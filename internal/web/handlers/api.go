package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

// APIHandler handles health and statistics endpoints
type APIHandler struct {
	DB *sql.DB
}

// StatsResponse represents overall system statistics
type StatsResponse struct {
	TotalProperties   int     `json:"total_properties"`
	WithCompanyNumber int     `json:"with_company_number"`
	NumberCoverage    float64 `json:"number_coverage"`
	SurfacedPairs     int     `json:"surfaced_pairs"`
	DistinctCompanies int     `json:"distinct_companies"`
}

// Health reports liveness and database reachability.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetStats returns property-store and ledger statistics.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats StatsResponse

	err := h.DB.QueryRowContext(r.Context(), `
		SELECT
			COUNT(*),
			COUNT(company_number),
			COUNT(DISTINCT company_name_key)
		FROM ccod_property
	`).Scan(&stats.TotalProperties, &stats.WithCompanyNumber, &stats.DistinctCompanies)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query property stats")
		return
	}

	err = h.DB.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM lead_ledger`).Scan(&stats.SurfacedPairs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query ledger stats")
		return
	}

	if stats.TotalProperties > 0 {
		stats.NumberCoverage = float64(stats.WithCompanyNumber) / float64(stats.TotalProperties)
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
