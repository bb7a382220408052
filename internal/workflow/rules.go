package workflow

import (
	"fmt"

	"github.com/EQAR/eqar-db/models"
)

// PreviousID returns the application preceding id in the agency's
// ascending id list. A new application (id 0) follows the last one.
func PreviousID(agencyIDs []int, id int) *int {
	var prev *int
	for i := range agencyIDs {
		if id != 0 && agencyIDs[i] >= id {
			continue
		}
		if prev == nil || agencyIDs[i] > *prev {
			v := agencyIDs[i]
			prev = &v
		}
	}
	return prev
}

// PropagateInheritedCompliance copies the conclusions of every inherited
// standard from previous. Nothing is copied unless the review is focused
// or targeted.
func PropagateInheritedCompliance(app, previous *models.Application, cat models.Catalogue) {
	if previous == nil || !app.Review.AllowsInheritance() {
		return
	}
	for _, std := range cat.Standards {
		code := std.Code()
		as := app.Assessment(code)
		if !as.Inherit {
			continue
		}
		from := previous.Assessment(code)
		as.Panel = from.Panel
		as.Rapporteurs = from.Rapporteurs
		as.RC = from.RC
		app.SetAssessment(code, as)
	}
}

// protectInherited makes conclusions of inherited standards immune to
// client input: they start from the stored values (or empty for a new
// application) before inheritance overwrites them.
func protectInherited(app, stored *models.Application, cat models.Catalogue) {
	for _, std := range cat.Standards {
		code := std.Code()
		as := app.Assessment(code)
		if !as.Inherit {
			continue
		}
		var from models.Assessment
		if stored != nil {
			from = stored.Assessment(code)
		}
		as.Panel = from.Panel
		as.Rapporteurs = from.Rapporteurs
		as.RC = from.RC
		app.SetAssessment(code, as)
	}
}

// Label renders the display name stored with each application.
func Label(app *models.Application, agency models.Agency) string {
	return fmt.Sprintf("A%d %s (%d %s, %s)", app.ID, agency, app.SubmitDate.Year(), app.Type, app.Review)
}

// StandardField names the flat field of a conclusion level, e.g. panel_2_1.
func StandardField(level string, std models.EsgStandard) string {
	return level + "_" + std.AttributeName()
}

// ReadOnlyFields lists the fields a client may not set directly.
func ReadOnlyFields(app *models.Application, cat models.Catalogue) []string {
	fields := []string{"previous", "label"}
	for _, std := range cat.Standards {
		if app.Assessment(std.Code()).Inherit {
			fields = append(fields,
				StandardField("panel", std),
				StandardField("rapp", std),
				StandardField("rc", std),
			)
		}
	}
	return fields
}
