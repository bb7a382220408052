package db

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

const applicationStandardColumns = `
    a_s.id, a_s.application_id, a_s.standard_id, a_s.panel, a_s.rapporteurs, a_s.rc,
    a_s.keywords, a_s.decision, a_s.internal_notes, a_s.updated_at`

// UpsertApplicationStandard writes the conclusions of row, keyed by
// application and standard. Annotations of an existing row stay as they are.
func (q Queries) UpsertApplicationStandard(ctx context.Context, row *models.ApplicationStandard) error {
	row.UpdatedAt = now()
	query := `
        INSERT INTO application_standard (application_id, standard_id, panel, rapporteurs, rc, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (application_id, standard_id) DO UPDATE SET
            panel = excluded.panel,
            rapporteurs = excluded.rapporteurs,
            rc = excluded.rc,
            updated_at = excluded.updated_at
        RETURNING id`
	err := q.q.QueryRowxContext(ctx, q.q.Rebind(query),
		row.ApplicationID, row.StandardID, row.Panel, row.Rapporteurs, row.RC, row.UpdatedAt).
		Scan(&row.ID)
	return err
}

// ClearApplicationStandard removes the conclusions of one row, and the row
// itself unless it carries annotations.
func (q Queries) ClearApplicationStandard(ctx context.Context, applicationID, standardID int) error {
	query := `
        DELETE FROM application_standard
        WHERE application_id = ? AND standard_id = ?
          AND COALESCE(keywords, '') = '' AND COALESCE(decision, '') = '' AND COALESCE(internal_notes, '') = ''`
	if _, err := q.exec(ctx, query, applicationID, standardID); err != nil {
		return err
	}
	query = `
        UPDATE application_standard
        SET panel = NULL, rapporteurs = NULL, rc = NULL, updated_at = ?
        WHERE application_id = ? AND standard_id = ?
          AND (panel IS NOT NULL OR rapporteurs IS NOT NULL OR rc IS NOT NULL)`
	_, err := q.exec(ctx, query, now(), applicationID, standardID)
	return err
}

func (q Queries) GetApplicationStandard(ctx context.Context, id int) (*models.ApplicationStandard, error) {
	row := &models.ApplicationStandard{}
	query := `SELECT ` + applicationStandardColumns + ` FROM application_standard a_s WHERE a_s.id = ?`
	if err := q.get(ctx, row, query, id); err != nil {
		return nil, err
	}
	return row, nil
}

// ApplicationStandards lists the materialized rows of one application in
// standard order.
func (q Queries) ApplicationStandards(ctx context.Context, applicationID int) ([]models.ApplicationStandard, error) {
	rows := []models.ApplicationStandard{}
	query := `
        SELECT ` + applicationStandardColumns + `
        FROM application_standard a_s
        JOIN esg_standard s ON s.id = a_s.standard_id
        WHERE a_s.application_id = ?
        ORDER BY CAST(s.part AS INTEGER), CAST(s.number AS INTEGER)`
	err := q.selectAll(ctx, &rows, query, applicationID)
	return rows, errors.Wrapf(err, "select standards of application %d", applicationID)
}

// errAnnotationRejected rolls back an annotation that failed validation.
var errAnnotationRejected = errors.New("annotation rejected by validation")

// AnnotateApplicationStandard applies a to the standard row id in a single
// statement, so concurrent saves and annotations of other fields are kept.
// When the annotated row fails validation it is left unchanged and the
// field errors are returned.
func (s *Storage) AnnotateApplicationStandard(ctx context.Context, id int, a models.Annotation) (*models.ApplicationStandard, workflow.FieldErrors, error) {
	var row *models.ApplicationStandard
	var verrs workflow.FieldErrors
	err := s.withTx(ctx, func(q Queries) error {
		if err := q.annotate(ctx, id, a); err != nil {
			return err
		}
		var err error
		if row, err = q.GetApplicationStandard(ctx, id); err != nil {
			return err
		}
		if verrs = workflow.ValidateAnnotation(row); len(verrs) > 0 {
			return errAnnotationRejected
		}
		return nil
	})
	if errors.Is(err, errAnnotationRejected) {
		return nil, verrs, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "annotate application standard %d", id)
	}
	return row, nil, nil
}

func (q Queries) annotate(ctx context.Context, id int, a models.Annotation) error {
	query := `
        UPDATE application_standard
        SET keywords = NULLIF(COALESCE(?, keywords), ''),
            decision = NULLIF(COALESCE(?, decision), ''),
            internal_notes = NULLIF(COALESCE(?, internal_notes), ''),
            updated_at = ?
        WHERE id = ?`
	return q.execOne(ctx, query, a.Keywords, a.Decision, a.InternalNotes, now(), id)
}

type PrecedentFilter struct {
	Standard string
	RC       models.Conclusion
	Search   string
}

// Precedents lists annotated rows, newest application first.
func (q Queries) Precedents(ctx context.Context, f PrecedentFilter) ([]models.Precedent, error) {
	where := []string{"(COALESCE(a_s.keywords, '') <> '' OR COALESCE(a_s.decision, '') <> '')"}
	var args []interface{}
	if f.Standard != "" {
		where = append(where, "s.part || '.' || s.number = ?")
		args = append(args, f.Standard)
	}
	if f.RC != "" {
		where = append(where, "a_s.rc = ?")
		args = append(args, f.RC)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(a_s.keywords) LIKE ? OR LOWER(a_s.decision) LIKE ? OR LOWER(s.title) LIKE ? OR LOWER(ag.short_name) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	precedents := []models.Precedent{}
	query := `
        SELECT ` + applicationStandardColumns + `,
            'ESG ' || s.part || '.' || s.number AS standard,
            a.label AS application_label
        FROM application_standard a_s
        JOIN esg_standard s ON s.id = a_s.standard_id
        JOIN application a ON a.id = a_s.application_id
        JOIN agency ag ON ag.id = a.agency_id
        WHERE ` + strings.Join(where, " AND ") + `
        ORDER BY a.id DESC, CAST(s.part AS INTEGER), CAST(s.number AS INTEGER)`
	err := q.selectAll(ctx, &precedents, query, args...)
	return precedents, errors.Wrap(err, "select precedents")
}
