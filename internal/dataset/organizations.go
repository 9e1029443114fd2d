package dataset

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"hopon/pkg/domain"
)

// OrganizationOptions tunes LoadOrganizations.
type OrganizationOptions struct {
	// Countries, when set, drops rows whose country code has no entry and
	// rewrites the rest to the mapped name.
	Countries *CountryMapping
	Logger    *zap.Logger
}

// LoadOrganizations reads src into organization records in source order.
func LoadOrganizations(ctx context.Context, src Source, opts OrganizationOptions) ([]domain.Organization, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := sourceName(ctx, src)
	table, err := src.Table(ctx)
	if err != nil {
		return nil, loadErr(name, err)
	}
	index, err := columnIndex(name, table.Header, domain.OrganizationColumns)
	if err != nil {
		return nil, err
	}
	orgs := make([]domain.Organization, 0, len(table.Rows))
	dropped := 0
	for i, cells := range table.Rows {
		rec, err := newRecord(name, i+1, len(table.Header), cells, index)
		if err != nil {
			return nil, err
		}
		o := domain.Organization{
			Name:            rec.get("name"),
			ActivityType:    rec.get("activityType"),
			City:            rec.get("city"),
			Country:         rec.get("country"),
			Role:            rec.get("role"),
			OrganizationURL: rec.get("organizationURL"),
			ProjectID:       rec.get("projectID"),
			Order:           parseInt(rec.get("order")),
			ECContribution:  parseFloat(rec.get("ecContribution")),
			ContactForm:     rec.get("contactForm"),
		}
		if opts.Countries != nil {
			mapped, ok := opts.Countries.Name(o.Country)
			if !ok {
				dropped++
				continue
			}
			o.Country = mapped
		}
		orgs = append(orgs, o)
	}
	logger.Debug("organizations loaded",
		zap.String("source", name),
		zap.Int("rows", len(orgs)),
		zap.Int("dropped_unmapped_country", dropped))
	return orgs, nil
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// exports sometimes write integral columns as floats ("3.0")
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil
		}
		v = int(f)
	}
	return &v
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
