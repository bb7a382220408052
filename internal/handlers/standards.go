package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/EQAR/eqar-db/db"
	"github.com/EQAR/eqar-db/models"
)

// GetApplicationStandardsHandler lists the materialized standard rows of an application
func (h *Handler) GetApplicationStandardsHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := pathID(w, r, "applicationId")
	if !ok {
		return
	}
	if _, err := h.Store.GetApplication(r.Context(), applicationID); err != nil {
		writeError(w, r, err, "Failed to get application")
		return
	}
	rows, err := h.Store.ApplicationStandards(r.Context(), applicationID)
	if err != nil {
		writeError(w, r, err, "Failed to get application standards")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// AnnotateApplicationStandardHandler handles PATCH /api/application-standards/{id}.
// Only keywords, decision and internal notes can be changed here.
func (h *Handler) AnnotateApplicationStandardHandler(w http.ResponseWriter, r *http.Request) {
	rowID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.Annotation
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := h.checkPayload(&req); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	row, errs, err := h.Store.AnnotateApplicationStandard(r.Context(), rowID, req)
	if err != nil {
		writeError(w, r, err, "Failed to update application standard")
		return
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// GetPrecedentsHandler searches annotated decisions by standard, RC conclusion and text
func (h *Handler) GetPrecedentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.PrecedentFilter{
		Standard: strings.TrimPrefix(strings.TrimSpace(q.Get("standard")), "ESG "),
		RC:       models.Conclusion(q.Get("rc")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	switch filter.RC {
	case "", models.ConclusionCompliance, models.ConclusionPartialCompliance, models.ConclusionNonCompliance:
	default:
		http.Error(w, "Invalid rc", http.StatusBadRequest)
		return
	}

	precedents, err := h.Store.Precedents(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "Failed to get precedents")
		return
	}
	writeJSON(w, http.StatusOK, precedents)
}

// ComplianceStatsHandler counts RC conclusions of completed applications per
// standard, optionally narrowed by type, result and decision year.
func (h *Handler) ComplianceStatsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.ComplianceFilter{
		Type:   models.ApplicationType(q.Get("type")),
		Result: models.Result(q.Get("result")),
	}
	switch filter.Type {
	case "", models.TypeInitial, models.TypeRenewal:
	default:
		http.Error(w, "Invalid type", http.StatusBadRequest)
		return
	}
	switch filter.Result {
	case "", models.ResultApproved, models.ResultRejected, models.ResultWithdrawn:
	default:
		http.Error(w, "Invalid result", http.StatusBadRequest)
		return
	}
	if year := q.Get("year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y <= 0 {
			http.Error(w, "Invalid year", http.StatusBadRequest)
			return
		}
		filter.Year = y
	}

	stats, err := h.Store.ComplianceStats(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, "Failed to get compliance statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ComplianceExtendedStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.ComplianceExtendedStats(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get compliance statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ApplicationsTotalsHandler counts decided applications by result and type
func (h *Handler) ApplicationsTotalsHandler(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Store.ApplicationsTotals(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get application totals")
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
