package export_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/EQAR/eqar-db/internal/export"
	"github.com/EQAR/eqar-db/models"
)

func TestApplications(t *testing.T) {
	decided := models.NewDate(2021, 6, 20)
	prev := 3
	apps := []models.Application{
		{
			ID:           4,
			AgencyID:     1,
			Label:        "A4 ACQUIN (2020 Renewal, Focused)",
			SubmitDate:   models.NewDate(2020, 2, 1),
			Type:         models.TypeRenewal,
			Review:       models.ReviewFocused,
			Stage:        models.StageCompleted,
			Result:       models.ResultApproved,
			DecisionDate: &decided,
			PreviousID:   &prev,
		},
		{
			ID:         5,
			AgencyID:   9,
			SubmitDate: models.NewDate(2021, 1, 5),
			Type:       models.TypeInitial,
			Review:     models.ReviewFull,
			Stage:      models.StageEligibilityCheck,
		},
	}
	agencies := map[int]models.Agency{1: {ID: 1, ShortName: "ACQUIN"}}

	buf, err := export.Applications(apps, agencies)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Applications")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "ID", rows[0][0])
	require.Equal(t, "Previous", rows[0][12])
	require.Equal(t, []string{
		"4", "A4 ACQUIN (2020 Renewal, Focused)", "ACQUIN", "Renewal", "Focused", "8. Completed",
		"2020-02-01", "", "", "", "Approved", "2021-06-20", "3",
	}, rows[1])
	require.Equal(t, "[id=9]", rows[2][2])
	require.Equal(t, "1. Eligibility check", rows[2][5])
}

func TestApplicationsEmpty(t *testing.T) {
	buf, err := export.Applications(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Applications"}, f.GetSheetList())
	rows, err := f.GetRows("Applications")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
