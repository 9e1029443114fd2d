package testutil

import "strings"

// PipeTable renders header and rows as a pipe-delimited document with a
// trailing newline, the format of the project and organization exports.
func PipeTable(header []string, rows ...[]string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(header, "|"))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, "|"))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ProjectHeader is the column set of a well-formed project export.
var ProjectHeader = []string{
	"id", "acronym", "title", "objective", "cluster", "topics",
	"fundingScheme", "startDate", "endDate", "legalBasis", "grantDoi",
}

// OrganizationHeader is the column set of a well-formed organization export.
var OrganizationHeader = []string{
	"name", "activityType", "city", "country", "role", "organizationURL",
	"projectID", "order", "ecContribution", "contactForm",
}
