package core

import (
	"errors"
	"fmt"
	"time"

	"hopon/pkg/datasetapi"
	"hopon/pkg/domain"
)

// DateRange bounds project start and end dates inclusively. A nil bound
// leaves that side open. Once either bound is set, projects with a null
// start or end date no longer match.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Between returns the closed range [start, end].
func Between(start, end time.Time) *DateRange {
	return &DateRange{Start: &start, End: &end}
}

// Open reports whether r leaves both sides unbounded.
func (r *DateRange) Open() bool {
	return r == nil || (r.Start == nil && r.End == nil)
}

// Contains reports whether a project running from start to end lies within
// r. Null dates are only contained by an open range.
func (r *DateRange) Contains(start, end domain.Date) bool {
	if r.Open() {
		return true
	}
	if !start.Valid() || !end.Valid() {
		return false
	}
	if r.Start != nil && !start.AtOrAfter(*r.Start) {
		return false
	}
	return r.End == nil || end.AtOrBefore(*r.End)
}

// ProjectParams selects projects. Every field composes by AND.
type ProjectParams struct {
	DateRange         *DateRange
	Clusters          Set
	FundingSchemes    Set
	ObjectiveContains string
	ProjectIDContains string
}

// Validate rejects a date range whose start falls after its end.
func (p ProjectParams) Validate() error {
	if r := p.DateRange; r != nil && r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return &FilterError{Errors: []datasetapi.ParameterError{{
			Name:    ParamStartDate,
			Message: fmt.Sprintf("start %s is after end %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)),
		}}}
	}
	return nil
}

// OrganizationParams selects organizations. Every field composes by AND.
type OrganizationParams struct {
	Countries     Set
	ActivityTypes Set
	Roles         Set
	NameContains  string
}

// ViewParams is the complete parameter state of a session.
type ViewParams struct {
	Projects      ProjectParams
	Organizations OrganizationParams
	// SelectedProjectID picks the drill-down project; empty selects the
	// first filtered project.
	SelectedProjectID string
}

// FilterError reports parameters that could not be applied. The previous
// view stays in effect.
type FilterError struct {
	Errors []datasetapi.ParameterError
}

func (e *FilterError) Error() string {
	return "invalid filter parameters: " + datasetapi.ParameterErrors(e.Errors).Error()
}

func (e *FilterError) Unwrap() error { return datasetapi.ParameterErrors(e.Errors) }

// IsFilterError reports whether err carries a FilterError.
func IsFilterError(err error) bool {
	var fe *FilterError
	return errors.As(err, &fe)
}
