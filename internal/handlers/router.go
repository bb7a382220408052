package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/EQAR/eqar-db/internal/logger"
)

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.Middleware(log.StandardLogger()))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// agencies
		r.Get("/agencies", h.ListAgenciesHandler)
		r.Post("/agencies", h.CreateAgencyHandler)
		r.Get("/agencies/{agencyId}", h.GetAgencyHandler)
		r.Get("/agencies/{agencyId}/applications", h.GetAgencyApplicationsHandler)
		// ESG catalogue
		r.Get("/esg/standards", h.GetStandardsHandler)
		r.Post("/esg/versions", h.CreateEsgVersionHandler)
		r.Post("/esg/versions/{versionId}/standards", h.AddEsgStandardHandler)
		r.Put("/esg/versions/{versionId}/activate", h.ActivateEsgVersionHandler)
		// applications
		r.Post("/applications", h.CreateApplicationHandler)
		r.Post("/applications/validate", h.ValidateApplicationHandler)
		r.Get("/applications/open", h.OpenApplicationsHandler)
		r.Get("/applications/withdrawn", h.WithdrawnApplicationsHandler)
		r.Get("/applications/download", h.DownloadApplicationsHandler)
		r.Get("/applications/{applicationId}", h.GetApplicationHandler)
		r.Put("/applications/{applicationId}", h.UpdateApplicationHandler)
		r.Get("/applications/{applicationId}/standards", h.GetApplicationStandardsHandler)
		// precedents
		r.Patch("/application-standards/{id}", h.AnnotateApplicationStandardHandler)
		r.Get("/precedents", h.GetPrecedentsHandler)
		// statistics
		r.Get("/stats/totals", h.ApplicationsTotalsHandler)
		r.Get("/stats/compliance", h.ComplianceStatsHandler)
		r.Get("/stats/compliance/extended", h.ComplianceExtendedStatsHandler)
	})
	return r
}
