package core

import "hopon/pkg/domain"

// ProjectPredicate decides whether a project stays in the view.
type ProjectPredicate func(domain.Project) bool

// OrganizationPredicate decides whether an organization stays in the view.
type OrganizationPredicate func(domain.Organization) bool

// ProjectPredicates returns the active predicates for p. Their order does
// not affect the result of applying all of them.
func ProjectPredicates(p ProjectParams) []ProjectPredicate {
	var preds []ProjectPredicate
	if r := p.DateRange; !r.Open() {
		preds = append(preds, func(pr domain.Project) bool { return r.Contains(pr.StartDate, pr.EndDate) })
	}
	if p.Clusters.Active() {
		set := p.Clusters
		preds = append(preds, func(pr domain.Project) bool { return set.Allows(pr.Cluster) })
	}
	if p.FundingSchemes.Active() {
		set := p.FundingSchemes
		preds = append(preds, func(pr domain.Project) bool { return set.Allows(pr.FundingScheme) })
	}
	if q := p.ObjectiveContains; q != "" {
		preds = append(preds, func(pr domain.Project) bool { return containsFold(pr.Objective, q) })
	}
	if q := p.ProjectIDContains; q != "" {
		preds = append(preds, func(pr domain.Project) bool { return containsFold(pr.ID, q) })
	}
	return preds
}

// OrganizationPredicates returns the active predicates for p.
func OrganizationPredicates(p OrganizationParams) []OrganizationPredicate {
	var preds []OrganizationPredicate
	if p.Countries.Active() {
		set := p.Countries
		preds = append(preds, func(o domain.Organization) bool { return set.Allows(o.Country) })
	}
	if p.ActivityTypes.Active() {
		set := p.ActivityTypes
		preds = append(preds, func(o domain.Organization) bool { return set.Allows(o.ActivityType) })
	}
	if p.Roles.Active() {
		set := p.Roles
		preds = append(preds, func(o domain.Organization) bool { return set.Allows(o.Role) })
	}
	if q := p.NameContains; q != "" {
		preds = append(preds, func(o domain.Organization) bool { return containsFold(o.Name, q) })
	}
	return preds
}

// ApplyProjectPredicates keeps projects passing every predicate, in input order.
func ApplyProjectPredicates(projects []domain.Project, preds []ProjectPredicate) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
next:
	for _, p := range projects {
		for _, pred := range preds {
			if !pred(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

// ApplyOrganizationPredicates keeps organizations passing every predicate, in input order.
func ApplyOrganizationPredicates(orgs []domain.Organization, preds []OrganizationPredicate) []domain.Organization {
	out := make([]domain.Organization, 0, len(orgs))
next:
	for _, o := range orgs {
		for _, pred := range preds {
			if !pred(o) {
				continue next
			}
		}
		out = append(out, o)
	}
	return out
}

// FilterProjects returns the projects matching every active parameter.
func FilterProjects(projects []domain.Project, p ProjectParams) []domain.Project {
	return ApplyProjectPredicates(projects, ProjectPredicates(p))
}

// FilterOrganizations returns the organizations matching every active parameter.
func FilterOrganizations(orgs []domain.Organization, p OrganizationParams) []domain.Organization {
	return ApplyOrganizationPredicates(orgs, OrganizationPredicates(p))
}

// OrganizationsForProject returns every organization whose ProjectID equals
// projectID exactly. It never fails; no match yields an empty slice.
func OrganizationsForProject(orgs []domain.Organization, projectID string) []domain.Organization {
	out := make([]domain.Organization, 0)
	if projectID == "" {
		return out
	}
	for _, o := range orgs {
		if o.ProjectID == projectID {
			out = append(out, o)
		}
	}
	return out
}
