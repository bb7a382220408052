package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

const standardColumns = `s.id, s.version_id, s.part, s.number, s.title`

// ActiveCatalogue loads the one active ESG version with its standards in
// document order.
func (q Queries) ActiveCatalogue(ctx context.Context) (models.Catalogue, error) {
	var versions []models.EsgVersion
	err := q.selectAll(ctx, &versions, `SELECT id, name, active FROM esg_version WHERE active = TRUE`)
	if err != nil {
		return models.Catalogue{}, errors.Wrap(err, "select active ESG version")
	}
	switch len(versions) {
	case 0:
		return models.Catalogue{}, &workflow.ConfigurationError{Err: workflow.ErrNoActiveCatalogue}
	case 1:
	default:
		return models.Catalogue{}, &workflow.ConfigurationError{Err: workflow.ErrSeveralActiveCatalogues}
	}

	standards, err := q.EsgStandards(ctx, versions[0].ID)
	if err != nil {
		return models.Catalogue{}, err
	}
	return models.Catalogue{Version: versions[0], Standards: standards}, nil
}

func (q Queries) EsgStandards(ctx context.Context, versionID int) ([]models.EsgStandard, error) {
	standards := []models.EsgStandard{}
	query := `
        SELECT ` + standardColumns + `
        FROM esg_standard s
        WHERE s.version_id = ?
        ORDER BY CAST(s.part AS INTEGER), CAST(s.number AS INTEGER)`
	err := q.selectAll(ctx, &standards, query, versionID)
	return standards, errors.Wrapf(err, "select standards of ESG version %d", versionID)
}

func (q Queries) GetEsgVersion(ctx context.Context, id int) (*models.EsgVersion, error) {
	v := &models.EsgVersion{}
	if err := q.get(ctx, v, `SELECT id, name, active FROM esg_version WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateEsgVersion stores a new, inactive version.
func (q Queries) CreateEsgVersion(ctx context.Context, v *models.EsgVersion) error {
	v.Active = false
	query := `INSERT INTO esg_version (name, active) VALUES (?, FALSE) RETURNING id`
	err := q.q.QueryRowxContext(ctx, q.q.Rebind(query), v.Name).Scan(&v.ID)
	return errors.Wrap(err, "insert ESG version")
}

func (q Queries) AddEsgStandard(ctx context.Context, s *models.EsgStandard) error {
	query := `
        INSERT INTO esg_standard (version_id, part, number, title)
        VALUES (?, ?, ?, ?)
        RETURNING id`
	err := q.q.QueryRowxContext(ctx, q.q.Rebind(query), s.VersionID, s.Part, s.Number, s.Title).
		Scan(&s.ID)
	return errors.Wrapf(err, "insert %s", s.ShortName())
}

// ActivateEsgVersion makes id the only active version.
func (s *Storage) ActivateEsgVersion(ctx context.Context, id int) error {
	return s.withTx(ctx, func(q Queries) error {
		if _, err := q.exec(ctx, `UPDATE esg_version SET active = FALSE WHERE id <> ?`, id); err != nil {
			return errors.Wrap(err, "deactivate ESG versions")
		}
		return q.execOne(ctx, `UPDATE esg_version SET active = TRUE WHERE id = ?`, id)
	})
}
