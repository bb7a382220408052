package workflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/EQAR/eqar-db/models"
)

// Repository is the storage the engine reads and writes within one
// transaction.
type Repository interface {
	ActiveCatalogue(ctx context.Context) (models.Catalogue, error)
	GetAgency(ctx context.Context, id int) (*models.Agency, error)
	GetApplication(ctx context.Context, id int) (*models.Application, error)
	// ApplicationIDsByAgency lists the agency's application ids ascending.
	ApplicationIDsByAgency(ctx context.Context, agencyID int) ([]int, error)
	InsertApplication(ctx context.Context, app *models.Application) error
	UpdateApplication(ctx context.Context, app *models.Application) error
	UpsertApplicationStandard(ctx context.Context, row *models.ApplicationStandard) error
	ClearApplicationStandard(ctx context.Context, applicationID, standardID int) error
}

// Store runs fn in a transaction, committing only when fn returns nil.
type Store interface {
	InTx(ctx context.Context, fn func(Repository) error) error
}

// errRejected aborts the save transaction after validation failed.
var errRejected = errors.New("application rejected by validation")

type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock replaces the clock used for the submission date check.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) today() models.Date {
	return models.DateOf(e.now())
}

// Save derives previous, inherited conclusions and label of app, validates
// it and persists it together with its materialized standard rows. On
// validation failure nothing is written and the field errors are returned.
func (e *Engine) Save(ctx context.Context, app *models.Application) (*models.Application, FieldErrors, error) {
	saved := cloneApplication(app)
	var verrs FieldErrors

	err := e.store.InTx(ctx, func(repo Repository) error {
		p, err := e.prepare(ctx, repo, saved, false)
		if err != nil {
			return err
		}
		verrs = p.errs
		if len(verrs) > 0 {
			return errRejected
		}

		if saved.ID == 0 {
			if err := repo.InsertApplication(ctx, saved); err != nil {
				return errors.Wrap(err, "insert application")
			}
		}
		saved.Label = Label(saved, *p.agency)
		if err := repo.UpdateApplication(ctx, saved); err != nil {
			return errors.Wrapf(err, "update application %d", saved.ID)
		}
		if err := upsertStandards(ctx, repo, saved, p.cat); err != nil {
			return err
		}

		entry := log.WithFields(log.Fields{
			"agency_id":      saved.AgencyID,
			"application_id": saved.ID,
			"stage":          saved.Stage.String(),
		})
		if p.previous != nil {
			entry = entry.WithField("previous_id", p.previous.ID)
		}
		entry.Info("application saved")
		return nil
	})

	if errors.Is(err, errRejected) {
		log.WithField("application_id", app.ID).WithField("errors", verrs).Debug("application rejected")
		return nil, verrs, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return saved, nil, nil
}

// Validate runs the derivations and rules of Save without writing.
func (e *Engine) Validate(ctx context.Context, app *models.Application) (FieldErrors, error) {
	candidate := cloneApplication(app)
	var verrs FieldErrors

	err := e.store.InTx(ctx, func(repo Repository) error {
		p, err := e.prepare(ctx, repo, candidate, true)
		if err != nil {
			return err
		}
		verrs = p.errs
		// never commit anything from a dry run
		return errRejected
	})
	if err != nil && !errors.Is(err, errRejected) {
		return nil, err
	}
	return verrs, nil
}

type prepared struct {
	cat      models.Catalogue
	agency   *models.Agency
	previous *models.Application
	errs     FieldErrors
}

// prepare loads what app depends on, derives its computed fields and
// validates it. The agency is nil when app names no existing agency; the
// other rules are still checked in that case. A dry run accepts an id that
// does not exist yet.
func (e *Engine) prepare(ctx context.Context, repo Repository, app *models.Application, dryRun bool) (prepared, error) {
	var p prepared
	var err error
	if p.cat, err = loadCatalogue(ctx, repo); err != nil {
		return p, err
	}

	var stored *models.Application
	if app.ID != 0 {
		stored, err = repo.GetApplication(ctx, app.ID)
		if dryRun && errors.Is(err, models.ErrNotFound) {
			err = nil
		}
		if err != nil {
			return p, errors.Wrapf(err, "load application %d", app.ID)
		}
	}

	if app.AgencyID != 0 {
		p.agency, err = repo.GetAgency(ctx, app.AgencyID)
		if errors.Is(err, models.ErrNotFound) {
			p.agency, err = nil, nil
		}
		if err != nil {
			return p, errors.Wrapf(err, "load agency %d", app.AgencyID)
		}
	}

	p.previous, err = e.derive(ctx, repo, app, stored, p.agency, p.cat)
	if err != nil {
		return p, err
	}

	p.errs = Validate(app, p.cat, e.today())
	if p.agency == nil {
		p.errs["agencyId"] = msgAgencyRequired
	}
	return p, nil
}

// derive fills the fields computed from stored state: defaults, previous
// and inherited conclusions. It returns the previous application if any.
// Without an agency there is no previous application.
func (e *Engine) derive(ctx context.Context, repo Repository, app, stored *models.Application, agency *models.Agency, cat models.Catalogue) (*models.Application, error) {
	applyDefaults(app)

	var ids []int
	if agency != nil {
		var err error
		ids, err = repo.ApplicationIDsByAgency(ctx, agency.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "list applications of agency %d", agency.ID)
		}
	}
	app.PreviousID = PreviousID(ids, app.ID)

	var previous *models.Application
	if app.PreviousID != nil {
		var err error
		previous, err = repo.GetApplication(ctx, *app.PreviousID)
		if err != nil {
			return nil, errors.Wrapf(err, "load previous application %d", *app.PreviousID)
		}
	}

	protectInherited(app, stored, cat)
	PropagateInheritedCompliance(app, previous, cat)
	return previous, nil
}

func applyDefaults(app *models.Application) {
	if app.Stage == 0 {
		app.Stage = models.StageEligibilityCheck
	}
	if app.Review == "" {
		app.Review = models.ReviewFull
	}
}

func loadCatalogue(ctx context.Context, repo Repository) (models.Catalogue, error) {
	cat, err := repo.ActiveCatalogue(ctx)
	if err == nil || IsConfigurationError(err) {
		return cat, err
	}
	if errors.Is(err, ErrNoActiveCatalogue) || errors.Is(err, ErrSeveralActiveCatalogues) {
		return cat, &ConfigurationError{Err: err}
	}
	return cat, errors.Wrap(err, "load active ESG catalogue")
}

// upsertStandards mirrors the conclusions of app into one row per active
// standard. Rows whose conclusions were all cleared are cleared as well.
func upsertStandards(ctx context.Context, repo Repository, app *models.Application, cat models.Catalogue) error {
	for _, std := range cat.Standards {
		as := app.Assessment(std.Code())
		if !as.HasConclusion() {
			if err := repo.ClearApplicationStandard(ctx, app.ID, std.ID); err != nil {
				return errors.Wrapf(err, "clear %s of application %d", std.ShortName(), app.ID)
			}
			continue
		}
		row := &models.ApplicationStandard{
			ApplicationID: app.ID,
			StandardID:    std.ID,
			Panel:         as.Panel,
			Rapporteurs:   as.Rapporteurs,
			RC:            as.RC,
		}
		if err := repo.UpsertApplicationStandard(ctx, row); err != nil {
			return errors.Wrapf(err, "upsert %s of application %d", std.ShortName(), app.ID)
		}
	}
	return nil
}

func cloneApplication(app *models.Application) *models.Application {
	c := *app
	c.Standards = make(map[string]models.Assessment, len(app.Standards))
	for code, as := range app.Standards {
		c.SetAssessment(code, as)
	}
	return &c
}
