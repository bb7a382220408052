package workflow_test

import (
	"context"
	"sort"
	"time"

	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

// memRepo keeps everything in maps. Transactions snapshot the state and
// restore it when fn fails.
type memRepo struct {
	catalogue    models.Catalogue
	catalogueErr error
	agencies     map[int]*models.Agency
	applications map[int]*models.Application
	standards    map[[2]int]*models.ApplicationStandard
	nextID       int
	nextRowID    int
	writes       int
}

func newMemRepo(cat models.Catalogue, agencies ...models.Agency) *memRepo {
	r := &memRepo{
		catalogue:    cat,
		agencies:     map[int]*models.Agency{},
		applications: map[int]*models.Application{},
		standards:    map[[2]int]*models.ApplicationStandard{},
		nextID:       1,
		nextRowID:    1,
	}
	for i := range agencies {
		a := agencies[i]
		r.agencies[a.ID] = &a
	}
	return r
}

func (r *memRepo) InTx(ctx context.Context, fn func(workflow.Repository) error) error {
	apps := make(map[int]*models.Application, len(r.applications))
	for id, app := range r.applications {
		apps[id] = copyApp(app)
	}
	rows := make(map[[2]int]*models.ApplicationStandard, len(r.standards))
	for k, row := range r.standards {
		c := *row
		rows[k] = &c
	}
	nextID, nextRowID, writes := r.nextID, r.nextRowID, r.writes

	if err := fn(r); err != nil {
		r.applications, r.standards = apps, rows
		r.nextID, r.nextRowID, r.writes = nextID, nextRowID, writes
		return err
	}
	return nil
}

func (r *memRepo) ActiveCatalogue(ctx context.Context) (models.Catalogue, error) {
	return r.catalogue, r.catalogueErr
}

func (r *memRepo) GetAgency(ctx context.Context, id int) (*models.Agency, error) {
	a, ok := r.agencies[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (r *memRepo) GetApplication(ctx context.Context, id int) (*models.Application, error) {
	app, ok := r.applications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyApp(app), nil
}

func (r *memRepo) ApplicationIDsByAgency(ctx context.Context, agencyID int) ([]int, error) {
	var ids []int
	for id, app := range r.applications {
		if app.AgencyID == agencyID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *memRepo) InsertApplication(ctx context.Context, app *models.Application) error {
	app.ID = r.nextID
	r.nextID++
	r.writes++
	r.applications[app.ID] = copyApp(app)
	return nil
}

func (r *memRepo) UpdateApplication(ctx context.Context, app *models.Application) error {
	if _, ok := r.applications[app.ID]; !ok {
		return models.ErrNotFound
	}
	app.UpdatedAt = time.Now()
	r.writes++
	r.applications[app.ID] = copyApp(app)
	return nil
}

func (r *memRepo) UpsertApplicationStandard(ctx context.Context, row *models.ApplicationStandard) error {
	key := [2]int{row.ApplicationID, row.StandardID}
	r.writes++
	if existing, ok := r.standards[key]; ok {
		existing.Panel, existing.Rapporteurs, existing.RC = row.Panel, row.Rapporteurs, row.RC
		row.ID = existing.ID
		return nil
	}
	c := *row
	c.ID = r.nextRowID
	r.nextRowID++
	row.ID = c.ID
	r.standards[key] = &c
	return nil
}

func (r *memRepo) ClearApplicationStandard(ctx context.Context, applicationID, standardID int) error {
	key := [2]int{applicationID, standardID}
	row, ok := r.standards[key]
	if !ok {
		return nil
	}
	r.writes++
	row.Panel, row.Rapporteurs, row.RC = "", "", ""
	if row.Keywords == nil && row.Decision == nil && row.InternalNotes == nil {
		delete(r.standards, key)
	}
	return nil
}

func copyApp(app *models.Application) *models.Application {
	c := *app
	c.Standards = map[string]models.Assessment{}
	for code, as := range app.Standards {
		c.Standards[code] = as
	}
	return &c
}

func testCatalogue() models.Catalogue {
	return models.Catalogue{
		Version: models.EsgVersion{ID: 1, Name: "ESG 2015", Active: true},
		Standards: []models.EsgStandard{
			{ID: 1, VersionID: 1, Part: "2", Number: "1", Title: "Consideration of internal quality assurance"},
			{ID: 2, VersionID: 1, Part: "2", Number: "2", Title: "Designing methodologies fit for purpose"},
			{ID: 3, VersionID: 1, Part: "3", Number: "1", Title: "Activities, policy and processes for quality assurance"},
		},
	}
}

func date(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func intPtr(v int) *int { return &v }

func fullAssessment() models.Assessment {
	return models.Assessment{
		Panel:       models.ConclusionSubstantialCompliance,
		Rapporteurs: models.ConclusionCompliance,
		RC:          models.ConclusionCompliance,
	}
}
