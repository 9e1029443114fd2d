package core

import (
	"encoding/json"
	"time"

	"hopon/pkg/datasetapi"
)

// Parameter names accepted from HTTP bodies and CLI flags.
const (
	ParamStartDate      = "startDate"
	ParamEndDate        = "endDate"
	ParamClusters       = "clusters"
	ParamFundingSchemes = "fundingSchemes"
	ParamObjective      = "objective"
	ParamProjectID      = "projectId"

	ParamCountries     = "countries"
	ParamActivityTypes = "activityTypes"
	ParamRoles         = "roles"
	ParamName          = "name"
)

// ProjectParameterSet declares the project filter parameters. List
// parameters left out disable their filter; an empty list matches nothing.
var ProjectParameterSet = []datasetapi.Parameter{
	{Name: ParamStartDate, Type: datasetapi.TypeDate, Description: "keep projects starting on or after this date"},
	{Name: ParamEndDate, Type: datasetapi.TypeDate, Description: "keep projects ending on or before this date"},
	{Name: ParamClusters, Type: datasetapi.TypeStringList, Description: "allowed clusters"},
	{Name: ParamFundingSchemes, Type: datasetapi.TypeStringList, Description: "allowed funding schemes"},
	{Name: ParamObjective, Type: datasetapi.TypeString, Description: "case-insensitive text the objective must contain"},
	{Name: ParamProjectID, Type: datasetapi.TypeString, Description: "case-insensitive text the project id must contain"},
}

// OrganizationParameterSet declares the organization filter parameters.
var OrganizationParameterSet = []datasetapi.Parameter{
	{Name: ParamCountries, Type: datasetapi.TypeStringList, Description: "allowed country names"},
	{Name: ParamActivityTypes, Type: datasetapi.TypeStringList, Description: "allowed activity types"},
	{Name: ParamRoles, Type: datasetapi.TypeStringList, Description: "allowed roles", Default: json.RawMessage(`["coordinator"]`)},
	{Name: ParamName, Type: datasetapi.TypeString, Description: "case-insensitive text the organization name must contain"},
}

// ParseProjectParams validates raw values into ProjectParams.
func ParseProjectParams(raw map[string]any) (ProjectParams, error) {
	cleaned, errs := datasetapi.ValidateParameters(ProjectParameterSet, raw)
	if len(errs) > 0 {
		return ProjectParams{}, &FilterError{Errors: errs}
	}
	var p ProjectParams
	var r DateRange
	if start, ok := cleaned[ParamStartDate].(time.Time); ok {
		r.Start = &start
	}
	if end, ok := cleaned[ParamEndDate].(time.Time); ok {
		r.End = &end
	}
	if !r.Open() {
		p.DateRange = &r
	}
	p.Clusters = setParam(cleaned, ParamClusters)
	p.FundingSchemes = setParam(cleaned, ParamFundingSchemes)
	p.ObjectiveContains, _ = cleaned[ParamObjective].(string)
	p.ProjectIDContains, _ = cleaned[ParamProjectID].(string)
	if err := p.Validate(); err != nil {
		return ProjectParams{}, err
	}
	return p, nil
}

// ParseOrganizationParams validates raw values into OrganizationParams.
// Roles default to coordinator when not supplied.
func ParseOrganizationParams(raw map[string]any) (OrganizationParams, error) {
	cleaned, errs := datasetapi.ValidateParameters(OrganizationParameterSet, raw)
	if len(errs) > 0 {
		return OrganizationParams{}, &FilterError{Errors: errs}
	}
	var p OrganizationParams
	p.Countries = setParam(cleaned, ParamCountries)
	p.ActivityTypes = setParam(cleaned, ParamActivityTypes)
	p.Roles = setParam(cleaned, ParamRoles)
	p.NameContains, _ = cleaned[ParamName].(string)
	return p, nil
}

func setParam(cleaned map[string]any, name string) Set {
	values, ok := cleaned[name].([]string)
	if !ok {
		return nil
	}
	return NewSet(values...)
}

// ProjectParamValues renders p back into raw parameter values.
func ProjectParamValues(p ProjectParams) map[string]any {
	out := make(map[string]any)
	if r := p.DateRange; r != nil {
		if r.Start != nil {
			out[ParamStartDate] = r.Start.Format(time.DateOnly)
		}
		if r.End != nil {
			out[ParamEndDate] = r.End.Format(time.DateOnly)
		}
	}
	if p.Clusters != nil {
		out[ParamClusters] = p.Clusters.Values()
	}
	if p.FundingSchemes != nil {
		out[ParamFundingSchemes] = p.FundingSchemes.Values()
	}
	if p.ObjectiveContains != "" {
		out[ParamObjective] = p.ObjectiveContains
	}
	if p.ProjectIDContains != "" {
		out[ParamProjectID] = p.ProjectIDContains
	}
	return out
}

// OrganizationParamValues renders p back into raw parameter values. A
// disabled role filter is omitted and so parses back as the default.
func OrganizationParamValues(p OrganizationParams) map[string]any {
	out := make(map[string]any)
	if p.Countries != nil {
		out[ParamCountries] = p.Countries.Values()
	}
	if p.ActivityTypes != nil {
		out[ParamActivityTypes] = p.ActivityTypes.Values()
	}
	if p.Roles != nil {
		out[ParamRoles] = p.Roles.Values()
	}
	if p.NameContains != "" {
		out[ParamName] = p.NameContains
	}
	return out
}
