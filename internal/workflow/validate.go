package workflow

import (
	"github.com/EQAR/eqar-db/models"
)

const (
	msgTargetedOnlyRenewal  = "Targeted reviews allowed only for Renewal."
	msgDateAfterEligibility = "Date must be specified after eligibility stage."
	msgCoordinatorRequired  = "Coordinator must be specified."
	msgSecretaryRequired    = "EQAR team member must be specified."
	msgDateRequired         = "Date must be specified."
	msgConclusionRequired   = "Must be specified."
	msgResultRequired       = "Decision needs to be specified for completed decisions."
	msgBeforeSubmission     = "Cannot be before submission date."
	msgInheritNotAllowed    = "Inheriting compliance is only possible for focused or targeted reviews."
	msgDateInFuture         = "This date must not be in the future."
	msgAgencyRequired       = "Agency must be specified."
	msgKeywordsForDecision  = "Keywords must be filled if decision text is filled."
	msgSubmitDateRequired   = "Submission date must be specified."
)

// Validate checks app against the stage-gated workflow rules and returns
// every problem found. today bounds the submission date.
func Validate(app *models.Application, cat models.Catalogue, today models.Date) FieldErrors {
	errs := FieldErrors{}

	if app.AgencyID == 0 {
		errs["agencyId"] = msgAgencyRequired
	}
	if app.SubmitDate.IsZero() {
		errs["submitDate"] = msgSubmitDateRequired
	} else if app.SubmitDate.After(today) {
		errs["submitDate"] = msgDateInFuture
	}

	if app.Type == models.TypeInitial && app.Review == models.ReviewTargeted {
		errs["review"] = msgTargetedOnlyRenewal
	}

	if app.Stage.AtLeast(models.StageWaitingReport) {
		if app.EligibilityDate == nil {
			errs["eligibilityDate"] = msgDateAfterEligibility
		}
		if app.ReportExpected == nil {
			errs["reportExpected"] = msgDateAfterEligibility
		}
		if app.Coordinator == nil {
			errs["coordinator"] = msgCoordinatorRequired
		}
		if app.Secretary == nil {
			errs["secretary"] = msgSecretaryRequired
		}
	}

	if app.Stage.AtLeast(models.StageFirstConsideration) {
		if app.SitevisitDate == nil {
			errs["sitevisitDate"] = msgDateRequired
		}
		if app.ReportDate == nil {
			errs["reportDate"] = msgDateRequired
		}
		if app.ReportSubmitted == nil {
			errs["reportSubmitted"] = msgDateRequired
		}
	}

	if app.Stage.AtLeast(models.StageWaitingRepresentation) {
		for _, std := range cat.Standards {
			as := app.Assessment(std.Code())
			if as.Inherit {
				continue
			}
			if as.Panel == "" {
				errs[StandardField("panel", std)] = msgConclusionRequired
			}
			if as.Rapporteurs == "" {
				errs[StandardField("rapp", std)] = msgConclusionRequired
			}
			if as.RC == "" {
				errs[StandardField("rc", std)] = msgConclusionRequired
			}
		}
	}

	if app.Stage.AtLeast(models.StageCompleted) && app.Result == "" {
		errs["result"] = msgResultRequired
	}

	if app.Result != "" && app.DecisionDate == nil {
		errs["decisionDate"] = msgDateRequired
	}

	if app.EligibilityDate != nil && !app.SubmitDate.IsZero() && app.EligibilityDate.Before(app.SubmitDate) {
		errs["eligibilityDate"] = msgBeforeSubmission
	}

	if !app.Review.AllowsInheritance() {
		for _, std := range cat.Standards {
			if app.Assessment(std.Code()).Inherit {
				errs[NonFieldErrors] = msgInheritNotAllowed
				break
			}
		}
	}

	return errs
}

// ValidateAnnotation checks the precedent annotations of a materialized
// standard row.
func ValidateAnnotation(row *models.ApplicationStandard) FieldErrors {
	errs := FieldErrors{}
	if filled(row.Decision) && !filled(row.Keywords) {
		errs["keywords"] = msgKeywordsForDecision
	}
	return errs
}

func filled(s *string) bool {
	return s != nil && *s != ""
}
