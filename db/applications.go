package db

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/EQAR/eqar-db/models"
)

const applicationColumns = `
    id, agency_id, label, submit_date, type, review, previous_id, stage,
    eligibility_date, report_expected, sitevisit_date, report_date, report_submitted,
    rapporteur1, rapporteur2, rapporteur3, secretary, coordinator,
    invoice_no, result, decision_date, comment, updated_at`

type assessmentRow struct {
	ApplicationID int    `db:"application_id"`
	StandardCode  string `db:"standard_code"`
	models.Assessment
}

// GetApplication loads an application with its per-standard assessments.
func (q Queries) GetApplication(ctx context.Context, id int) (*models.Application, error) {
	app := &models.Application{}
	if err := q.get(ctx, app, `SELECT `+applicationColumns+` FROM application WHERE id = ?`, id); err != nil {
		return nil, err
	}

	var rows []assessmentRow
	query := `
        SELECT application_id, standard_code, panel, rapporteurs, rc, inherit
        FROM application_assessment
        WHERE application_id = ?`
	if err := q.selectAll(ctx, &rows, query, id); err != nil {
		return nil, errors.Wrapf(err, "select assessments of application %d", id)
	}
	app.Standards = make(map[string]models.Assessment, len(rows))
	for _, r := range rows {
		app.SetAssessment(r.StandardCode, r.Assessment)
	}
	return app, nil
}

func (q Queries) ApplicationIDsByAgency(ctx context.Context, agencyID int) ([]int, error) {
	ids := []int{}
	err := q.selectAll(ctx, &ids, `SELECT id FROM application WHERE agency_id = ? ORDER BY id`, agencyID)
	return ids, errors.Wrapf(err, "select applications of agency %d", agencyID)
}

func (q Queries) InsertApplication(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = now()
	query := `
        INSERT INTO application (
            agency_id, label, submit_date, type, review, previous_id, stage,
            eligibility_date, report_expected, sitevisit_date, report_date, report_submitted,
            rapporteur1, rapporteur2, rapporteur3, secretary, coordinator,
            invoice_no, result, decision_date, comment, updated_at)
        VALUES (
            :agency_id, :label, :submit_date, :type, :review, :previous_id, :stage,
            :eligibility_date, :report_expected, :sitevisit_date, :report_date, :report_submitted,
            :rapporteur1, :rapporteur2, :rapporteur3, :secretary, :coordinator,
            :invoice_no, :result, :decision_date, :comment, :updated_at)
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, q.q, query, app)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return errors.New("insert returned no id")
	}
	if err := rows.Scan(&app.ID); err != nil {
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	return q.replaceAssessments(ctx, app)
}

// UpdateApplication writes every column of app and replaces its
// assessments.
func (q Queries) UpdateApplication(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = now()
	query := `
        UPDATE application SET
            agency_id = :agency_id, label = :label, submit_date = :submit_date,
            type = :type, review = :review, previous_id = :previous_id, stage = :stage,
            eligibility_date = :eligibility_date, report_expected = :report_expected,
            sitevisit_date = :sitevisit_date, report_date = :report_date,
            report_submitted = :report_submitted,
            rapporteur1 = :rapporteur1, rapporteur2 = :rapporteur2, rapporteur3 = :rapporteur3,
            secretary = :secretary, coordinator = :coordinator, invoice_no = :invoice_no,
            result = :result, decision_date = :decision_date, comment = :comment,
            updated_at = :updated_at
        WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, q.q, query, app)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return q.replaceAssessments(ctx, app)
}

func (q Queries) replaceAssessments(ctx context.Context, app *models.Application) error {
	if _, err := q.exec(ctx, `DELETE FROM application_assessment WHERE application_id = ?`, app.ID); err != nil {
		return errors.Wrap(err, "delete assessments")
	}

	codes := make([]string, 0, len(app.Standards))
	for code := range app.Standards {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	query := `
        INSERT INTO application_assessment (application_id, standard_code, panel, rapporteurs, rc, inherit)
        VALUES (?, ?, ?, ?, ?, ?)`
	for _, code := range codes {
		as := app.Standards[code]
		if as.IsZero() {
			continue
		}
		if _, err := q.exec(ctx, query, app.ID, code, as.Panel, as.Rapporteurs, as.RC, as.Inherit); err != nil {
			return errors.Wrapf(err, "insert assessment %s", code)
		}
	}
	return nil
}

func (q Queries) selectApplications(ctx context.Context, where, order string, args ...interface{}) ([]models.Application, error) {
	apps := []models.Application{}
	query := `SELECT ` + applicationColumns + ` FROM application`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY ` + order
	err := q.selectAll(ctx, &apps, query, args...)
	return apps, errors.Wrap(err, "select applications")
}

// ListApplications returns all applications without assessments.
func (q Queries) ListApplications(ctx context.Context) ([]models.Application, error) {
	return q.selectApplications(ctx, "", "id")
}

func (q Queries) ApplicationsByAgency(ctx context.Context, agencyID int) ([]models.Application, error) {
	return q.selectApplications(ctx, "agency_id = ?", "id", agencyID)
}

// OpenApplications lists applications still in progress, by stage and
// newest submission first.
func (q Queries) OpenApplications(ctx context.Context) ([]models.Application, error) {
	return q.selectApplications(ctx, "stage NOT IN (?, ?)", "stage, submit_date DESC, id",
		models.StageCompleted, models.StageWithdrawn)
}

func (q Queries) WithdrawnApplications(ctx context.Context) ([]models.Application, error) {
	return q.selectApplications(ctx, "stage = ?", "submit_date DESC, id", models.StageWithdrawn)
}
