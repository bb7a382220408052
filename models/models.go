package models

import (
	"fmt"
	"time"
)

// Registered (or applying) quality assurance agency
type Agency struct {
	ID         int       `db:"id" json:"id"`
	ShortName  string    `db:"short_name" json:"shortName" validate:"max=255"`
	Name       string    `db:"name" json:"name" validate:"required,max=255"`
	Registered bool      `db:"registered" json:"registered"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (a Agency) String() string {
	if a.ShortName != "" {
		return a.ShortName
	}
	return fmt.Sprintf("[id=%d]", a.ID)
}

// Version of the European Standards and Guidelines
type EsgVersion struct {
	ID     int    `db:"id" json:"id"`
	Name   string `db:"name" json:"name" validate:"required,max=255"`
	Active bool   `db:"active" json:"active"`
}

// Single ESG standard within a version
type EsgStandard struct {
	ID        int    `db:"id" json:"id"`
	VersionID int    `db:"version_id" json:"versionId"`
	Part      string `db:"part" json:"part" validate:"required,max=3"`
	Number    string `db:"number" json:"number" validate:"required,max=3"`
	Title     string `db:"title" json:"title" validate:"required,max=255"`
}

// Code is the dotted standard number, e.g. "2.1".
func (s EsgStandard) Code() string {
	return s.Part + "." + s.Number
}

// AttributeName is the legacy flat field suffix, e.g. "2_1".
func (s EsgStandard) AttributeName() string {
	return s.Part + "_" + s.Number
}

func (s EsgStandard) ShortName() string {
	return "ESG " + s.Code()
}

// Catalogue is the ordered standard list of one ESG version.
type Catalogue struct {
	Version   EsgVersion    `json:"version"`
	Standards []EsgStandard `json:"standards"`
}

func (c Catalogue) Standard(code string) (EsgStandard, bool) {
	for _, s := range c.Standards {
		if s.Code() == code {
			return s, true
		}
	}
	return EsgStandard{}, false
}

// Assessment holds the three conclusions recorded for one standard.
type Assessment struct {
	Panel       Conclusion `db:"panel" json:"panel,omitempty" validate:"omitempty,oneof='Compliance' 'Full compliance' 'Substantial compliance' 'Partial compliance' 'Non-compliance'"`
	Rapporteurs Conclusion `db:"rapporteurs" json:"rapporteurs,omitempty" validate:"omitempty,oneof='Compliance' 'Partial compliance' 'Non-compliance'"`
	RC          Conclusion `db:"rc" json:"rc,omitempty" validate:"omitempty,oneof='Compliance' 'Partial compliance' 'Non-compliance'"`
	Inherit     bool       `db:"inherit" json:"inherit"`
}

func (a Assessment) HasConclusion() bool {
	return a.Panel != "" || a.Rapporteurs != "" || a.RC != ""
}

func (a Assessment) IsZero() bool {
	return !a.HasConclusion() && !a.Inherit
}

// Application for registration or renewal of registration
type Application struct {
	ID              int                   `db:"id" json:"id"`
	AgencyID        int                   `db:"agency_id" json:"agencyId" validate:"required,gt=0"`
	Label           string                `db:"label" json:"label"`
	SubmitDate      Date                  `db:"submit_date" json:"submitDate"`
	Type            ApplicationType       `db:"type" json:"type" validate:"required,oneof=Initial Renewal"`
	Review          ReviewType            `db:"review" json:"review" validate:"omitempty,oneof=Full Focused Targeted"`
	PreviousID      *int                  `db:"previous_id" json:"previous"`
	Stage           Stage                 `db:"stage" json:"stage"`
	EligibilityDate *Date                 `db:"eligibility_date" json:"eligibilityDate"`
	ReportExpected  *Date                 `db:"report_expected" json:"reportExpected"`
	SitevisitDate   *Date                 `db:"sitevisit_date" json:"sitevisitDate"`
	ReportDate      *Date                 `db:"report_date" json:"reportDate"`
	ReportSubmitted *Date                 `db:"report_submitted" json:"reportSubmitted"`
	Rapporteur1     *int                  `db:"rapporteur1" json:"rapporteur1"`
	Rapporteur2     *int                  `db:"rapporteur2" json:"rapporteur2"`
	Rapporteur3     *int                  `db:"rapporteur3" json:"rapporteur3"`
	Secretary       *int                  `db:"secretary" json:"secretary"`
	Coordinator     *int                  `db:"coordinator" json:"coordinator"`
	Standards       map[string]Assessment `db:"-" json:"standards" validate:"dive"`
	InvoiceNo       *int                  `db:"invoice_no" json:"invoiceNo"`
	Result          Result                `db:"result" json:"result,omitempty" validate:"omitempty,oneof=Approved Rejected Withdrawn"`
	DecisionDate    *Date                 `db:"decision_date" json:"decisionDate"`
	Comment         *string               `db:"comment" json:"comment"`
	UpdatedAt       time.Time             `db:"updated_at" json:"updatedAt"`
}

func (a *Application) Assessment(code string) Assessment {
	return a.Standards[code]
}

// SetAssessment stores as for the standard code, dropping empty entries.
func (a *Application) SetAssessment(code string, as Assessment) {
	if as.IsZero() {
		delete(a.Standards, code)
		return
	}
	if a.Standards == nil {
		a.Standards = make(map[string]Assessment)
	}
	a.Standards[code] = as
}

// Materialized conclusions of one application on one standard, with
// precedent annotations
type ApplicationStandard struct {
	ID            int        `db:"id" json:"id"`
	ApplicationID int        `db:"application_id" json:"applicationId"`
	StandardID    int        `db:"standard_id" json:"standardId"`
	Panel         Conclusion `db:"panel" json:"panel,omitempty"`
	Rapporteurs   Conclusion `db:"rapporteurs" json:"rapporteurs,omitempty"`
	RC            Conclusion `db:"rc" json:"rc,omitempty"`
	Keywords      *string    `db:"keywords" json:"keywords" validate:"omitempty,max=255"`
	Decision      *string    `db:"decision" json:"decision"`
	InternalNotes *string    `db:"internal_notes" json:"internalNotes"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Annotation is a partial update of the precedent fields of a standard
// row. Nil fields are left unchanged, empty strings clear them.
type Annotation struct {
	Keywords      *string `json:"keywords" validate:"omitempty,max=255"`
	Decision      *string `json:"decision"`
	InternalNotes *string `json:"internalNotes"`
}

// Precedent row as listed for search
type Precedent struct {
	ApplicationStandard
	Standard         string `db:"standard" json:"standard"`
	ApplicationLabel string `db:"application_label" json:"application"`
}

// Register Committee conclusion counts for one standard
type ComplianceStat struct {
	Standard          string `json:"standard"`
	Compliance        int    `json:"Compliance"`
	PartialCompliance int    `json:"Partial compliance"`
	NonCompliance     int    `json:"Non-compliance"`
}

// ApplicationTotal counts decided applications with one result by type
type ApplicationTotal struct {
	Result  Result `json:"result"`
	Initial int    `json:"initial"`
	Renewal int    `json:"renewal"`
}
