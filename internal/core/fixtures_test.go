package core

import (
	"time"

	"hopon/internal/dataset"
	"hopon/pkg/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) *time.Time {
	t := day(s)
	return &t
}

func date(s string) domain.Date {
	if s == "" {
		return domain.NullDate
	}
	return domain.MustDate(s)
}

func project(id, cluster, scheme, start, end, objective string) domain.Project {
	return domain.Project{ID: id, Cluster: cluster, FundingScheme: scheme, StartDate: date(start), EndDate: date(end), Objective: objective}
}

func org(name, country, activity, role, projectID string) domain.Organization {
	return domain.Organization{Name: name, Country: country, ActivityType: activity, Role: role, ProjectID: projectID}
}

func fixtureSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{
		Key: "fixture",
		Projects: []domain.Project{
			project("101", "C1", "RIA", "2020-01-01", "2021-01-01", "Hydrogen storage"),
			project("102", "C2", "IA", "2021-03-01", "2023-06-30", "Battery recycling"),
			project("103", "C1", "CSA", "", "2022-01-01", "Urban mobility"),
			project("104", "C3", "RIA", "2019-05-01", "2024-12-31", "Hydrogen valleys"),
		},
		Organizations: []domain.Organization{
			org("Alpha", "Italy", "PRC", "coordinator", "101"),
			org("Beta", "France", "HES", "participant", "101"),
			org("Gamma", "Germany", "REC", "coordinator", "102"),
			org("Delta", "Italy", "HES", "participant", "104"),
			org("Orphan", "Spain", "PUB", "coordinator", "999"),
		},
	}
}

func ids(projects []domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func names(orgs []domain.Organization) []string {
	out := make([]string, len(orgs))
	for i, o := range orgs {
		out[i] = o.Name
	}
	return out
}

func fixtureSnapshotEmpty() *dataset.Snapshot { return &dataset.Snapshot{Key: "empty"} }
