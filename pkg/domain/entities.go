// Package domain defines the read-only records served by hopon: research
// projects and the organizations participating in them.
package domain

// Role values observed in the organization dataset.
const (
	RoleCoordinator = "coordinator"
	RoleParticipant = "participant"
)

// Project is a funded research project. ID is opaque text and is never
// interpreted as a number.
type Project struct {
	ID            string `json:"id"`
	Acronym       string `json:"acronym"`
	Title         string `json:"title"`
	Objective     string `json:"objective"`
	Cluster       string `json:"cluster"`
	Topics        string `json:"topics"`
	FundingScheme string `json:"fundingScheme"`
	StartDate     Date   `json:"startDate"`
	EndDate       Date   `json:"endDate"`
	LegalBasis    string `json:"legalBasis"`
	GrantDOI      string `json:"grantDoi"`
}

// Organization participates in a project. ProjectID references Project.ID;
// the reference may dangle.
type Organization struct {
	Name            string   `json:"name"`
	ActivityType    string   `json:"activityType"`
	City            string   `json:"city"`
	Country         string   `json:"country"`
	Role            string   `json:"role"`
	OrganizationURL string   `json:"organizationURL"`
	ProjectID       string   `json:"projectID"`
	Order           *int     `json:"order"`
	ECContribution  *float64 `json:"ecContribution"`
	ContactForm     string   `json:"contactForm"`
}

// ProjectColumns lists the project fields in their canonical column order.
var ProjectColumns = []string{
	"id", "acronym", "title", "objective", "cluster", "topics",
	"fundingScheme", "startDate", "endDate", "legalBasis", "grantDoi",
}

// OrganizationColumns lists the organization fields in their canonical column order.
var OrganizationColumns = []string{
	"name", "activityType", "city", "country", "role", "organizationURL",
	"projectID", "order", "ecContribution", "contactForm",
}

// Values returns the project's fields as display values keyed by column name.
func (p Project) Values() map[string]any {
	return map[string]any{
		"id":            p.ID,
		"acronym":       p.Acronym,
		"title":         p.Title,
		"objective":     p.Objective,
		"cluster":       p.Cluster,
		"topics":        p.Topics,
		"fundingScheme": p.FundingScheme,
		"startDate":     p.StartDate,
		"endDate":       p.EndDate,
		"legalBasis":    p.LegalBasis,
		"grantDoi":      p.GrantDOI,
	}
}

// Values returns the organization's fields as display values keyed by column name.
func (o Organization) Values() map[string]any {
	values := map[string]any{
		"name":            o.Name,
		"activityType":    o.ActivityType,
		"city":            o.City,
		"country":         o.Country,
		"role":            o.Role,
		"organizationURL": o.OrganizationURL,
		"projectID":       o.ProjectID,
		"order":           nil,
		"ecContribution":  nil,
		"contactForm":     o.ContactForm,
	}
	if o.Order != nil {
		values["order"] = *o.Order
	}
	if o.ECContribution != nil {
		values["ecContribution"] = *o.ECContribution
	}
	return values
}
