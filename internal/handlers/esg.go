package handlers

import (
	"net/http"

	"github.com/EQAR/eqar-db/models"
)

// GetStandardsHandler returns the active ESG catalogue
func (h *Handler) GetStandardsHandler(w http.ResponseWriter, r *http.Request) {
	cat, err := h.Store.ActiveCatalogue(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get ESG standards")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// CreateEsgVersionHandler handles POST /api/esg/versions. New versions start inactive.
func (h *Handler) CreateEsgVersionHandler(w http.ResponseWriter, r *http.Request) {
	var version models.EsgVersion
	if !decodeBody(w, r, &version) {
		return
	}
	if errs := h.checkPayload(&version); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	if err := h.Store.CreateEsgVersion(r.Context(), &version); err != nil {
		writeError(w, r, err, "Failed to create ESG version")
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (h *Handler) AddEsgStandardHandler(w http.ResponseWriter, r *http.Request) {
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}
	if _, err := h.Store.GetEsgVersion(r.Context(), versionID); err != nil {
		writeError(w, r, err, "Failed to get ESG version")
		return
	}

	var standard models.EsgStandard
	if !decodeBody(w, r, &standard) {
		return
	}
	standard.VersionID = versionID
	if errs := h.checkPayload(&standard); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	if err := h.Store.AddEsgStandard(r.Context(), &standard); err != nil {
		writeError(w, r, err, "Failed to add ESG standard")
		return
	}
	writeJSON(w, http.StatusCreated, standard)
}

// ActivateEsgVersionHandler makes the version the only active one
func (h *Handler) ActivateEsgVersionHandler(w http.ResponseWriter, r *http.Request) {
	versionID, ok := pathID(w, r, "versionId")
	if !ok {
		return
	}
	if err := h.Store.ActivateEsgVersion(r.Context(), versionID); err != nil {
		writeError(w, r, err, "Failed to activate ESG version")
		return
	}
	version, err := h.Store.GetEsgVersion(r.Context(), versionID)
	if err != nil {
		writeError(w, r, err, "Failed to get ESG version")
		return
	}
	writeJSON(w, http.StatusOK, version)
}
