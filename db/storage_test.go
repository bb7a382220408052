package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EQAR/eqar-db/db"
	"github.com/EQAR/eqar-db/db/migrations"
	"github.com/EQAR/eqar-db/internal/workflow"
	"github.com/EQAR/eqar-db/models"
)

func newTestStorage(t *testing.T) *db.Storage {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "registry.db") + "?_pragma=foreign_keys(1)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(conn.DB, db.DriverSQLite))
	return db.NewStorage(conn)
}

func createAgency(t *testing.T, s *db.Storage, shortName string) *models.Agency {
	t.Helper()
	a := &models.Agency{ShortName: shortName, Name: shortName + " agency"}
	require.NoError(t, s.CreateAgency(context.Background(), a))
	return a
}

func date(s string) *models.Date {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestSeededCatalogue(t *testing.T) {
	s := newTestStorage(t)

	cat, err := s.ActiveCatalogue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ESG 2015", cat.Version.Name)
	require.Len(t, cat.Standards, 13)
	require.Equal(t, "2.1", cat.Standards[0].Code())
	require.Equal(t, "2.7", cat.Standards[6].Code())
	require.Equal(t, "3.6", cat.Standards[12].Code())
	require.Equal(t, "Independence", cat.Standards[9].Title)
}

func TestActivateEsgVersion(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	v := &models.EsgVersion{Name: "ESG 2025"}
	require.NoError(t, s.CreateEsgVersion(ctx, v))
	std := &models.EsgStandard{VersionID: v.ID, Part: "1", Number: "1", Title: "Policy for quality assurance"}
	require.NoError(t, s.AddEsgStandard(ctx, std))

	require.NoError(t, s.ActivateEsgVersion(ctx, v.ID))
	cat, err := s.ActiveCatalogue(ctx)
	require.NoError(t, err)
	require.Equal(t, v.ID, cat.Version.ID)
	require.Len(t, cat.Standards, 1)

	require.ErrorIs(t, s.ActivateEsgVersion(ctx, 999), db.ErrNotFound)
	// the failed activation is rolled back
	cat, err = s.ActiveCatalogue(ctx)
	require.NoError(t, err)
	require.Equal(t, v.ID, cat.Version.ID)
}

func TestActiveCatalogueMisconfigured(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx, `UPDATE esg_version SET active = TRUE`)
	require.NoError(t, err)
	_, err = s.DB().ExecContext(ctx, `INSERT INTO esg_version (name, active) VALUES ('draft', TRUE)`)
	require.NoError(t, err)
	_, err = s.ActiveCatalogue(ctx)
	require.ErrorIs(t, err, workflow.ErrSeveralActiveCatalogues)

	_, err = s.DB().ExecContext(ctx, `UPDATE esg_version SET active = FALSE`)
	require.NoError(t, err)
	_, err = s.ActiveCatalogue(ctx)
	require.ErrorIs(t, err, workflow.ErrNoActiveCatalogue)
}

func TestApplicationRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")

	comment := "resubmitted after clarification"
	app := &models.Application{
		AgencyID:        agency.ID,
		SubmitDate:      *date("2019-05-02"),
		Type:            models.TypeRenewal,
		Review:          models.ReviewTargeted,
		Stage:           models.StageWaitingReport,
		EligibilityDate: date("2019-06-01"),
		Secretary:       intPtr(3),
		Comment:         &comment,
	}
	app.SetAssessment("2.1", models.Assessment{Inherit: true})
	app.SetAssessment("3.3", models.Assessment{Panel: models.ConclusionFullCompliance, RC: models.ConclusionCompliance})

	require.NoError(t, s.InsertApplication(ctx, app))
	require.NotZero(t, app.ID)

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, agency.ID, got.AgencyID)
	require.Equal(t, "2019-05-02", got.SubmitDate.String())
	require.Equal(t, "2019-06-01", got.EligibilityDate.String())
	require.Nil(t, got.ReportExpected)
	require.Equal(t, models.StageWaitingReport, got.Stage)
	require.Equal(t, models.ReviewTargeted, got.Review)
	require.Empty(t, got.Result)
	require.Equal(t, &comment, got.Comment)
	require.Equal(t, app.Standards, got.Standards)

	got.Stage = models.StageWithdrawn
	got.SetAssessment("2.1", models.Assessment{})
	require.NoError(t, s.UpdateApplication(ctx, got))

	again, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, models.StageWithdrawn, again.Stage)
	require.Len(t, again.Standards, 1)

	_, err = s.GetApplication(ctx, 12345)
	require.ErrorIs(t, err, db.ErrNotFound)

	missing := *got
	missing.ID = 12345
	require.ErrorIs(t, s.UpdateApplication(ctx, &missing), db.ErrNotFound)
}

func TestApplicationLists(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	a := createAgency(t, s, "A")
	b := createAgency(t, s, "B")

	insert := func(agencyID int, submitted string, stage models.Stage) int {
		app := &models.Application{
			AgencyID:   agencyID,
			SubmitDate: *date(submitted),
			Type:       models.TypeInitial,
			Review:     models.ReviewFull,
			Stage:      stage,
		}
		require.NoError(t, s.InsertApplication(ctx, app))
		return app.ID
	}
	first := insert(a.ID, "2018-01-01", models.StageCompleted)
	second := insert(b.ID, "2019-01-01", models.StageWaitingReport)
	third := insert(a.ID, "2020-01-01", models.StageWaitingReport)
	fourth := insert(a.ID, "2020-02-01", models.StageWithdrawn)
	fifth := insert(b.ID, "2020-03-01", models.StageEligibilityCheck)

	ids, err := s.ApplicationIDsByAgency(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, []int{first, third, fourth}, ids)

	open, err := s.OpenApplications(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{fifth, third, second}, applicationIDs(open))

	withdrawn, err := s.WithdrawnApplications(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{fourth}, applicationIDs(withdrawn))

	all, err := s.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	ofB, err := s.ApplicationsByAgency(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, []int{second, fifth}, applicationIDs(ofB))
}

func TestApplicationStandardUpsert(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")
	cat, err := s.ActiveCatalogue(ctx)
	require.NoError(t, err)
	std := cat.Standards[0]

	app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2020-01-01"), Type: models.TypeInitial, Review: models.ReviewFull, Stage: models.StageCompleted}
	require.NoError(t, s.InsertApplication(ctx, app))

	row := &models.ApplicationStandard{ApplicationID: app.ID, StandardID: std.ID, Panel: models.ConclusionCompliance, RC: models.ConclusionCompliance}
	require.NoError(t, s.UpsertApplicationStandard(ctx, row))
	firstID := row.ID

	// upserting the same conclusions twice leaves one row
	require.NoError(t, s.UpsertApplicationStandard(ctx, row))
	require.Equal(t, firstID, row.ID)

	keywords := "appeals"
	decision := "Complaints procedure lacks independence."
	annotated, verrs, err := s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Keywords: &keywords, Decision: &decision})
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.Equal(t, &decision, annotated.Decision)

	update := &models.ApplicationStandard{ApplicationID: app.ID, StandardID: std.ID, RC: models.ConclusionPartialCompliance}
	require.NoError(t, s.UpsertApplicationStandard(ctx, update))
	require.Equal(t, firstID, update.ID)

	rows, err := s.ApplicationStandards(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.ConclusionPartialCompliance, rows[0].RC)
	require.Empty(t, rows[0].Panel)
	require.Equal(t, &keywords, rows[0].Keywords)

	precedents, err := s.Precedents(ctx, db.PrecedentFilter{Standard: "2.1", Search: "INDEPENDENCE"})
	require.NoError(t, err)
	require.Len(t, precedents, 1)
	require.Equal(t, "ESG 2.1", precedents[0].Standard)

	precedents, err = s.Precedents(ctx, db.PrecedentFilter{RC: models.ConclusionNonCompliance})
	require.NoError(t, err)
	require.Empty(t, precedents)

	stats, err := s.ComplianceStats(ctx, db.ComplianceFilter{})
	require.NoError(t, err)
	require.Len(t, stats, 13)
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", PartialCompliance: 1}, stats[0])

	// annotated rows survive clearing, bare rows do not
	require.NoError(t, s.ClearApplicationStandard(ctx, app.ID, std.ID))
	rows, err = s.ApplicationStandards(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].RC)

	empty := ""
	_, verrs, err = s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Keywords: &empty, Decision: &empty})
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.NoError(t, s.ClearApplicationStandard(ctx, app.ID, std.ID))
	rows, err = s.ApplicationStandards(ctx, app.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestAnnotateApplicationStandard(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")

	app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2019-05-02"), Type: models.TypeRenewal, Review: models.ReviewFull, Stage: models.StageCompleted}
	require.NoError(t, s.InsertApplication(ctx, app))
	cat, err := s.ActiveCatalogue(ctx)
	require.NoError(t, err)
	row := &models.ApplicationStandard{ApplicationID: app.ID, StandardID: cat.Standards[0].ID, RC: models.ConclusionCompliance}
	require.NoError(t, s.UpsertApplicationStandard(ctx, row))

	// annotations of different fields do not overwrite each other
	keywords := "appeals"
	_, verrs, err := s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Keywords: &keywords})
	require.NoError(t, err)
	require.Empty(t, verrs)
	notes := "check with the panel chair"
	_, verrs, err = s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{InternalNotes: &notes})
	require.NoError(t, err)
	require.Empty(t, verrs)

	// a decision is accepted because keywords are already stored
	decision := "Appeals are heard by the board."
	got, verrs, err := s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Decision: &decision})
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.Equal(t, &keywords, got.Keywords)
	require.Equal(t, &decision, got.Decision)
	require.Equal(t, &notes, got.InternalNotes)
	require.Equal(t, models.ConclusionCompliance, got.RC)

	// clearing keywords while a decision is kept is rejected and rolled back
	empty := ""
	got, verrs, err = s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Keywords: &empty})
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, workflow.FieldErrors{"keywords": "Keywords must be filled if decision text is filled."}, verrs)
	stored, err := s.GetApplicationStandard(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, &keywords, stored.Keywords)

	_, _, err = s.AnnotateApplicationStandard(ctx, 12345, models.Annotation{Keywords: &keywords})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestPrecedentSearchFields(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")

	app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2019-05-02"), Type: models.TypeRenewal, Review: models.ReviewFull, Stage: models.StageCompleted}
	require.NoError(t, s.InsertApplication(ctx, app))
	cat, err := s.ActiveCatalogue(ctx)
	require.NoError(t, err)
	row := &models.ApplicationStandard{ApplicationID: app.ID, StandardID: cat.Standards[0].ID, RC: models.ConclusionCompliance}
	require.NoError(t, s.UpsertApplicationStandard(ctx, row))
	keywords := "appeals"
	_, _, err = s.AnnotateApplicationStandard(ctx, row.ID, models.Annotation{Keywords: &keywords})
	require.NoError(t, err)

	for _, search := range []string{"APPEALS", "acquin", "internal quality assurance"} {
		precedents, err := s.Precedents(ctx, db.PrecedentFilter{Search: search})
		require.NoError(t, err)
		require.Len(t, precedents, 1, search)
	}
	precedents, err := s.Precedents(ctx, db.PrecedentFilter{Search: "student involvement"})
	require.NoError(t, err)
	require.Empty(t, precedents)
}

func TestInvoiceNumberIsUnique(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")

	insert := func(invoiceNo *int) error {
		app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2019-05-02"), Type: models.TypeRenewal, Review: models.ReviewFull, Stage: models.StageEligibilityCheck, InvoiceNo: invoiceNo}
		return s.InsertApplication(ctx, app)
	}
	require.NoError(t, insert(intPtr(2019001)))
	require.Error(t, insert(intPtr(2019001)))
	require.NoError(t, insert(nil))
	require.NoError(t, insert(nil))
}

func TestStatistics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")
	cat, err := s.ActiveCatalogue(ctx)
	require.NoError(t, err)

	insert := func(typ models.ApplicationType, stage models.Stage, result models.Result, decided string, rc models.Conclusion) {
		app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2015-01-10"), Type: typ, Review: models.ReviewFull, Stage: stage, Result: result}
		if decided != "" {
			app.DecisionDate = date(decided)
		}
		require.NoError(t, s.InsertApplication(ctx, app))
		if rc != "" {
			row := &models.ApplicationStandard{ApplicationID: app.ID, StandardID: cat.Standards[0].ID, RC: rc}
			require.NoError(t, s.UpsertApplicationStandard(ctx, row))
		}
	}
	insert(models.TypeInitial, models.StageCompleted, models.ResultApproved, "2016-06-20", models.ConclusionCompliance)
	insert(models.TypeRenewal, models.StageCompleted, models.ResultApproved, "2017-03-01", models.ConclusionPartialCompliance)
	insert(models.TypeRenewal, models.StageCompleted, models.ResultApproved, "2017-11-15", models.ConclusionCompliance)
	insert(models.TypeInitial, models.StageCompleted, models.ResultRejected, "2017-12-01", models.ConclusionNonCompliance)
	insert(models.TypeInitial, models.StageWithdrawn, models.ResultWithdrawn, "", "")
	// open applications are never counted
	insert(models.TypeRenewal, models.StageWaitingReport, models.ResultApproved, "", models.ConclusionCompliance)
	insert(models.TypeRenewal, models.StageWithdrawn, "", "", "")

	totals, err := s.ApplicationsTotals(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.ApplicationTotal{
		{Result: models.ResultApproved, Initial: 1, Renewal: 2},
		{Result: models.ResultRejected, Initial: 1},
		{Result: models.ResultWithdrawn, Initial: 1},
	}, totals)

	stats, err := s.ComplianceStats(ctx, db.ComplianceFilter{Type: models.TypeRenewal})
	require.NoError(t, err)
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 1, PartialCompliance: 1}, stats[0])

	stats, err = s.ComplianceStats(ctx, db.ComplianceFilter{Year: 2017, Result: models.ResultApproved})
	require.NoError(t, err)
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 1, PartialCompliance: 1}, stats[0])

	extended, err := s.ComplianceExtendedStats(ctx)
	require.NoError(t, err)
	require.Len(t, extended, 7)
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 2, PartialCompliance: 1, NonCompliance: 1}, extended["All"][0])
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 1, NonCompliance: 1}, extended["Initial"][0])
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", NonCompliance: 1}, extended["Rejected"][0])
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 1}, extended["2016"][0])
	require.Equal(t, models.ComplianceStat{Standard: "ESG 2.1", Compliance: 1, PartialCompliance: 1, NonCompliance: 1}, extended["2017"][0])
	require.Len(t, extended["2017"], 13)
}

func TestInTxRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")

	boom := workflow.FieldErrors{"review": "bad"}
	err := s.InTx(ctx, func(repo workflow.Repository) error {
		app := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2020-01-01"), Type: models.TypeInitial, Review: models.ReviewFull, Stage: models.StageEligibilityCheck}
		require.NoError(t, repo.InsertApplication(ctx, app))
		return boom
	})
	require.Equal(t, boom, err)

	ids, err := s.ApplicationIDsByAgency(ctx, agency.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestEngineOnSQLite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	agency := createAgency(t, s, "ACQUIN")
	engine := workflow.NewEngine(s).WithClock(func() time.Time {
		return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	})

	first := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2016-03-01"), Type: models.TypeInitial}
	first.SetAssessment("2.4", models.Assessment{Panel: models.ConclusionCompliance, Rapporteurs: models.ConclusionCompliance, RC: models.ConclusionPartialCompliance})
	savedFirst, verrs, err := engine.Save(ctx, first)
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.Equal(t, "A1 ACQUIN (2016 Initial, Full)", savedFirst.Label)

	renewal := &models.Application{AgencyID: agency.ID, SubmitDate: *date("2020-11-11"), Type: models.TypeRenewal, Review: models.ReviewFocused}
	renewal.SetAssessment("2.4", models.Assessment{Inherit: true})
	saved, verrs, err := engine.Save(ctx, renewal)
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.Equal(t, &savedFirst.ID, saved.PreviousID)
	require.Equal(t, models.ConclusionPartialCompliance, saved.Assessment("2.4").RC)

	stored, err := s.GetApplication(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, saved.Label, stored.Label)
	require.Equal(t, saved.Standards, stored.Standards)

	rows, err := s.ApplicationStandards(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.ConclusionPartialCompliance, rows[0].RC)

	invalid := *stored
	invalid.Stage = models.StageFirstConsideration
	_, verrs, err = engine.Save(ctx, &invalid)
	require.NoError(t, err)
	require.Contains(t, verrs, "sitevisitDate")

	unchanged, err := s.GetApplication(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, models.StageEligibilityCheck, unchanged.Stage)
}

func applicationIDs(apps []models.Application) []int {
	ids := make([]int, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.ID)
	}
	return ids
}

func intPtr(v int) *int { return &v }
