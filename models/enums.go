package models

import (
	"database/sql/driver"
	"fmt"
)

// Stage is the position of an application in the review lifecycle.
type Stage int

const (
	StageEligibilityCheck Stage = iota + 1
	StageWaitingReport
	StageFirstConsideration
	StageWaitingRepresentation
	StageSecondConsideration
	StageWaitingAppeal
	StageAppealConsideration
	StageCompleted
	StageWithdrawn
)

var stageLabels = map[Stage]string{
	StageEligibilityCheck:      "1. Eligibility check",
	StageWaitingReport:         "2. Waiting report",
	StageFirstConsideration:    "3. First consideration",
	StageWaitingRepresentation: "4. Waiting representation",
	StageSecondConsideration:   "5. Second consideration",
	StageWaitingAppeal:         "6. Waiting appeal",
	StageAppealConsideration:   "7. Appeal consideration",
	StageCompleted:             "8. Completed",
	StageWithdrawn:             "-- Withdrawn",
}

// Stages lists all stages in lifecycle order, Withdrawn last.
func Stages() []Stage {
	return []Stage{
		StageEligibilityCheck,
		StageWaitingReport,
		StageFirstConsideration,
		StageWaitingRepresentation,
		StageSecondConsideration,
		StageWaitingAppeal,
		StageAppealConsideration,
		StageCompleted,
		StageWithdrawn,
	}
}

// ParseStage maps a stage label back to its Stage.
func ParseStage(label string) (Stage, error) {
	for s, l := range stageLabels {
		if l == label {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", label)
}

func (s Stage) String() string {
	return stageLabels[s]
}

func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// rank orders the lifecycle; Withdrawn is off the scale.
func (s Stage) rank() int {
	if s == StageWithdrawn || !s.Valid() {
		return 0
	}
	return int(s)
}

// AtLeast reports whether s has reached threshold t. A withdrawn
// application never reaches any threshold.
func (s Stage) AtLeast(t Stage) bool {
	r := s.rank()
	return r > 0 && r >= t.rank()
}

func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageWithdrawn
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = 0
		return nil
	}
	v, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Stage) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return s.String(), nil
}

func (s *Stage) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	case nil:
		*s = 0
		return nil
	}
	return fmt.Errorf("cannot scan %T into Stage", src)
}

// ApplicationType distinguishes first registrations from renewals.
type ApplicationType string

const (
	TypeInitial ApplicationType = "Initial"
	TypeRenewal ApplicationType = "Renewal"
)

// ReviewType is the scope of the external review behind an application.
type ReviewType string

const (
	ReviewFull     ReviewType = "Full"
	ReviewFocused  ReviewType = "Focused"
	ReviewTargeted ReviewType = "Targeted"
)

// AllowsInheritance reports whether conclusions may be carried over
// from the previous application.
func (r ReviewType) AllowsInheritance() bool {
	return r == ReviewFocused || r == ReviewTargeted
}

// Result is the final decision on an application.
type Result string

const (
	ResultApproved  Result = "Approved"
	ResultRejected  Result = "Rejected"
	ResultWithdrawn Result = "Withdrawn"
)

func (r Result) Value() (driver.Value, error) {
	return nullableString(string(r)), nil
}

func (r *Result) Scan(src interface{}) error {
	v, err := scanNullableString(src)
	*r = Result(v)
	return err
}

// Conclusion is a compliance assessment of one ESG standard.
// Panels use the full scale, rapporteurs and the Register Committee
// the three-level one.
type Conclusion string

const (
	ConclusionCompliance            Conclusion = "Compliance"
	ConclusionFullCompliance        Conclusion = "Full compliance"
	ConclusionSubstantialCompliance Conclusion = "Substantial compliance"
	ConclusionPartialCompliance     Conclusion = "Partial compliance"
	ConclusionNonCompliance         Conclusion = "Non-compliance"
)

func (c Conclusion) Value() (driver.Value, error) {
	return nullableString(string(c)), nil
}

func (c *Conclusion) Scan(src interface{}) error {
	v, err := scanNullableString(src)
	*c = Conclusion(v)
	return err
}

func nullableString(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}

func scanNullableString(src interface{}) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return "", fmt.Errorf("cannot scan %T into string", src)
}
