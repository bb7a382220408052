package handlers

import (
	"context"

	"github.com/EQAR/eqar-db/db"
	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

type StorageInterface interface {
	CreateAgency(ctx context.Context, agency *models.Agency) error
	GetAgency(ctx context.Context, id int) (*models.Agency, error)
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	ApplicationsByAgency(ctx context.Context, agencyID int) ([]models.Application, error)

	ActiveCatalogue(ctx context.Context) (models.Catalogue, error)
	GetEsgVersion(ctx context.Context, id int) (*models.EsgVersion, error)
	CreateEsgVersion(ctx context.Context, version *models.EsgVersion) error
	AddEsgStandard(ctx context.Context, standard *models.EsgStandard) error
	ActivateEsgVersion(ctx context.Context, id int) error

	GetApplication(ctx context.Context, id int) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	OpenApplications(ctx context.Context) ([]models.Application, error)
	WithdrawnApplications(ctx context.Context) ([]models.Application, error)

	ApplicationStandards(ctx context.Context, applicationID int) ([]models.ApplicationStandard, error)
	GetApplicationStandard(ctx context.Context, id int) (*models.ApplicationStandard, error)
	AnnotateApplicationStandard(ctx context.Context, id int, a models.Annotation) (*models.ApplicationStandard, workflow.FieldErrors, error)
	Precedents(ctx context.Context, filter db.PrecedentFilter) ([]models.Precedent, error)

	ComplianceStats(ctx context.Context, filter db.ComplianceFilter) ([]models.ComplianceStat, error)
	ComplianceExtendedStats(ctx context.Context) (map[string][]models.ComplianceStat, error)
	ApplicationsTotals(ctx context.Context) ([]models.ApplicationTotal, error)
}

// ApplicationSaver runs applications through the workflow engine.
type ApplicationSaver interface {
	Save(ctx context.Context, app *models.Application) (*models.Application, workflow.FieldErrors, error)
	Validate(ctx context.Context, app *models.Application) (workflow.FieldErrors, error)
}
