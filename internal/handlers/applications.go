package handlers

import (
	"net/http"

	"github.com/EQAR/eqar-db/internal/export"
	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

type applicationResponse struct {
	*models.Application
	ReadOnlyFields []string `json:"readonlyFields"`
}

// CreateApplicationHandler handles POST /api/applications
func (h *Handler) CreateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	var app models.Application
	if !decodeBody(w, r, &app) {
		return
	}
	app.ID = 0
	h.saveApplication(w, r, &app, http.StatusCreated)
}

// UpdateApplicationHandler handles PUT /api/applications/{applicationId}.
// Derived fields in the payload are recomputed.
func (h *Handler) UpdateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := pathID(w, r, "applicationId")
	if !ok {
		return
	}
	var app models.Application
	if !decodeBody(w, r, &app) {
		return
	}
	app.ID = applicationID
	h.saveApplication(w, r, &app, http.StatusOK)
}

func (h *Handler) saveApplication(w http.ResponseWriter, r *http.Request, app *models.Application, status int) {
	if errs := h.checkPayload(app); len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	saved, errs, err := h.Engine.Save(r.Context(), app)
	if err != nil {
		writeError(w, r, err, "Failed to save application")
		return
	}
	if len(errs) > 0 {
		writeValidationErrors(w, errs)
		return
	}
	writeJSON(w, status, saved)
}

func (h *Handler) GetApplicationHandler(w http.ResponseWriter, r *http.Request) {
	applicationID, ok := pathID(w, r, "applicationId")
	if !ok {
		return
	}
	app, err := h.Store.GetApplication(r.Context(), applicationID)
	if err != nil {
		writeError(w, r, err, "Failed to get application")
		return
	}
	cat, err := h.Store.ActiveCatalogue(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get ESG standards")
		return
	}
	writeJSON(w, http.StatusOK, applicationResponse{
		Application:    app,
		ReadOnlyFields: workflow.ReadOnlyFields(app, cat),
	})
}

// ValidateApplicationHandler checks a payload without saving it
func (h *Handler) ValidateApplicationHandler(w http.ResponseWriter, r *http.Request) {
	var app models.Application
	if !decodeBody(w, r, &app) {
		return
	}
	errs := h.checkPayload(&app)
	if len(errs) == 0 {
		var err error
		errs, err = h.Engine.Validate(r.Context(), &app)
		if err != nil {
			writeError(w, r, err, "Failed to validate application")
			return
		}
	}
	if errs == nil {
		errs = workflow.FieldErrors{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

func (h *Handler) OpenApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.OpenApplications(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get open applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) WithdrawnApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.WithdrawnApplications(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get withdrawn applications")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// DownloadApplicationsHandler sends all applications as an xlsx workbook
func (h *Handler) DownloadApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListApplications(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get applications")
		return
	}
	agencies, err := h.Store.ListAgencies(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to get agencies")
		return
	}
	byID := make(map[int]models.Agency, len(agencies))
	for _, a := range agencies {
		byID[a.ID] = a
	}

	buf, err := export.Applications(apps, byID)
	if err != nil {
		writeError(w, r, err, "Failed to export applications")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="applications.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
