package core

import (
	"hopon/internal/dataset"
	"hopon/pkg/domain"
)

// Summary carries the counters and date bounds shown next to a view.
type Summary struct {
	Projects              int         `json:"projects"`
	Organizations         int         `json:"organizations"`
	SelectedOrganizations int         `json:"selectedOrganizations"`
	TotalProjects         int         `json:"totalProjects"`
	TotalOrganizations    int         `json:"totalOrganizations"`
	MinStartDate          domain.Date `json:"minStartDate"`
	MaxEndDate            domain.Date `json:"maxEndDate"`
}

// View is the derived state for one parameter set: both filtered tables and
// the organizations of the selected project.
type View struct {
	SnapshotKey           string                `json:"snapshotKey"`
	Projects              []domain.Project      `json:"projects"`
	Organizations         []domain.Organization `json:"organizations"`
	SelectedProjectID     string                `json:"selectedProjectId"`
	SelectedOrganizations []domain.Organization `json:"selectedOrganizations"`
	Summary               Summary               `json:"summary"`
}

// ComputeView derives the view for params. It is a pure function of its
// inputs. The join runs against the filtered organizations, and a selected
// project outside the filtered projects yields no organizations.
func ComputeView(snap *dataset.Snapshot, params ViewParams) View {
	projects := FilterProjects(snap.Projects, params.Projects)
	orgs := FilterOrganizations(snap.Organizations, params.Organizations)

	selected := params.SelectedProjectID
	selectable := false
	if selected == "" && len(projects) > 0 {
		selected = projects[0].ID
	}
	for _, p := range projects {
		if p.ID == selected {
			selectable = true
			break
		}
	}
	selectedOrgs := make([]domain.Organization, 0)
	if selectable {
		selectedOrgs = OrganizationsForProject(orgs, selected)
	}

	minStart, maxEnd := dateBounds(snap.Projects)
	return View{
		SnapshotKey:           snap.Key,
		Projects:              projects,
		Organizations:         orgs,
		SelectedProjectID:     selected,
		SelectedOrganizations: selectedOrgs,
		Summary: Summary{
			Projects:              len(projects),
			Organizations:         len(orgs),
			SelectedOrganizations: len(selectedOrgs),
			TotalProjects:         len(snap.Projects),
			TotalOrganizations:    len(snap.Organizations),
			MinStartDate:          minStart,
			MaxEndDate:            maxEnd,
		},
	}
}

// dateBounds returns the earliest start and latest end over valid dates.
func dateBounds(projects []domain.Project) (domain.Date, domain.Date) {
	minStart, maxEnd := domain.NullDate, domain.NullDate
	for _, p := range projects {
		if t, ok := p.StartDate.Time(); ok && (!minStart.Valid() || minStart.After(t)) {
			minStart = p.StartDate
		}
		if t, ok := p.EndDate.Time(); ok && (!maxEnd.Valid() || maxEnd.Before(t)) {
			maxEnd = p.EndDate
		}
	}
	return minStart, maxEnd
}

// Options lists the distinct values offered by each list filter, in load
// order, plus the overall date bounds.
type Options struct {
	Clusters       []string    `json:"clusters"`
	FundingSchemes []string    `json:"fundingSchemes"`
	Countries      []string    `json:"countries"`
	ActivityTypes  []string    `json:"activityTypes"`
	Roles          []string    `json:"roles"`
	MinStartDate   domain.Date `json:"minStartDate"`
	MaxEndDate     domain.Date `json:"maxEndDate"`
}

// OptionsFor collects the filter options of snap.
func OptionsFor(snap *dataset.Snapshot) Options {
	var clusters, schemes, countries, types, roles distinct
	for _, p := range snap.Projects {
		clusters.add(p.Cluster)
		schemes.add(p.FundingScheme)
	}
	for _, o := range snap.Organizations {
		countries.add(o.Country)
		types.add(o.ActivityType)
		roles.add(o.Role)
	}
	minStart, maxEnd := dateBounds(snap.Projects)
	return Options{
		Clusters:       clusters.values(),
		FundingSchemes: schemes.values(),
		Countries:      countries.values(),
		ActivityTypes:  types.values(),
		Roles:          roles.values(),
		MinStartDate:   minStart,
		MaxEndDate:     maxEnd,
	}
}

// DefaultViewParams selects every option, restricts roles to coordinator
// and spans the overall date bounds.
func DefaultViewParams(snap *dataset.Snapshot) ViewParams {
	opts := OptionsFor(snap)
	params := ViewParams{
		Projects: ProjectParams{
			Clusters:       NewSet(opts.Clusters...),
			FundingSchemes: NewSet(opts.FundingSchemes...),
		},
		Organizations: OrganizationParams{
			Countries:     NewSet(opts.Countries...),
			ActivityTypes: NewSet(opts.ActivityTypes...),
			Roles:         NewSet(domain.RoleCoordinator),
		},
	}
	var r DateRange
	if start, ok := opts.MinStartDate.Time(); ok {
		r.Start = &start
	}
	if end, ok := opts.MaxEndDate.Time(); ok {
		r.End = &end
	}
	if !r.Open() {
		params.Projects.DateRange = &r
	}
	return params
}

type distinct struct {
	seen  map[string]struct{}
	order []string
}

func (d *distinct) add(v string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[v]; ok {
		return
	}
	d.seen[v] = struct{}{}
	d.order = append(d.order, v)
}

func (d *distinct) values() []string {
	if d.order == nil {
		return []string{}
	}
	return d.order
}
