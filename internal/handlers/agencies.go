package handlers

import (
	"net/http"

	"github.com/EQAR/eqar-db/models"
)

// CreateAgencyHandler handles POST /api/agencies
func (h *Handler) CreateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	var agency models.Agency
	if !decodeBody(w, r, &agency) {
		return
	}
	agency.ID = 0
	if errs := h.checkPayload(&agency); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}

	if err := h.Store.CreateAgency(r.Context(), &agency); err != nil {
		writeError(w, r, err, "Failed to create agency")
		return
	}
	writeJSON(w, http.StatusCreated, agency)
}

func (h *Handler) ListAgenciesHandler(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.Store.ListAgencies(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get agencies")
		return
	}
	writeJSON(w, http.StatusOK, agencies)
}

func (h *Handler) GetAgencyHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := pathID(w, r, "agencyId")
	if !ok {
		return
	}
	agency, err := h.Store.GetAgency(r.Context(), agencyID)
	if err != nil {
		writeError(w, r, err, "Failed to get agency")
		return
	}
	writeJSON(w, http.StatusOK, agency)
}

// GetAgencyApplicationsHandler lists the applications of one agency, oldest first
func (h *Handler) GetAgencyApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := pathID(w, r, "agencyId")
	if !ok {
		return
	}
	if _, err := h.Store.GetAgency(r.Context(), agencyID); err != nil {
		writeError(w, r, err, "Failed to get agency")
		return
	}
	apps, err := h.Store.ApplicationsByAgency(r.Context(), agencyID)
	if err != nil {
		writeError(w, r, err, "Failed to get applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}
