package dataset

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"hopon/pkg/domain"
)

// ProjectOptions tunes LoadProjects.
type ProjectOptions struct {
	Logger *zap.Logger
}

// LoadProjects reads src into project records in source order. Dates that
// do not parse become domain.NullDate; identifiers stay text.
func LoadProjects(ctx context.Context, src Source, opts ProjectOptions) ([]domain.Project, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := sourceName(ctx, src)
	table, err := src.Table(ctx)
	if err != nil {
		return nil, loadErr(name, err)
	}
	index, err := columnIndex(name, table.Header, domain.ProjectColumns)
	if err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(table.Rows))
	var nullDates, inverted int
	for i, cells := range table.Rows {
		rec, err := newRecord(name, i+1, len(table.Header), cells, index)
		if err != nil {
			return nil, err
		}
		p := domain.Project{
			ID:            rec.get("id"),
			Acronym:       rec.get("acronym"),
			Title:         rec.get("title"),
			Objective:     rec.get("objective"),
			Cluster:       rec.get("cluster"),
			Topics:        rec.get("topics"),
			FundingScheme: rec.get("fundingScheme"),
			LegalBasis:    rec.get("legalBasis"),
			GrantDOI:      rec.get("grantDoi"),
		}
		if p.ID == "" {
			return nil, &LoadError{Source: name, Row: i + 1, Err: errors.New("empty project id")}
		}
		var ok bool
		if p.StartDate, ok = domain.ParseDate(rec.get("startDate")); !ok {
			nullDates++
		}
		if p.EndDate, ok = domain.ParseDate(rec.get("endDate")); !ok {
			nullDates++
		}
		if start, sok := p.StartDate.Time(); sok && p.EndDate.Before(start) {
			inverted++
		}
		projects = append(projects, p)
	}
	logger.Debug("projects loaded",
		zap.String("source", name),
		zap.Int("rows", len(projects)),
		zap.Int("null_dates", nullDates),
		zap.Int("inverted_ranges", inverted))
	return projects, nil
}

// sourceName identifies src in errors; it falls back to the Go type when
// the identity itself cannot be read.
func sourceName(ctx context.Context, src Source) string {
	id, err := src.Identity(ctx)
	if err != nil || id == "" {
		switch s := src.(type) {
		case *DelimitedSource:
			return s.Key
		case *SQLSource:
			return s.TableName
		}
		return "source"
	}
	return id
}
