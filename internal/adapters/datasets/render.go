package datasets

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"hopon/internal/core"
	"hopon/pkg/datasetapi"
	"hopon/pkg/domain"
)

// Table names one tabular part of a view.
type Table string

const (
	TableProjects      Table = "projects"
	TableOrganizations Table = "organizations"
	TableSelection     Table = "selection"
)

// ParseTable validates a table name.
func ParseTable(name string) (Table, bool) {
	switch t := Table(strings.ToLower(strings.TrimSpace(name))); t {
	case TableProjects, TableOrganizations, TableSelection:
		return t, true
	default:
		return "", false
	}
}

var columnTypes = map[string]string{
	"startDate":      "date",
	"endDate":        "date",
	"order":          "integer",
	"ecContribution": "number",
}

var columnDescriptions = map[string]string{
	"id":        "opaque project identifier",
	"projectID": "id of the project the organization takes part in",
	"country":   "country name, mapped from the two-letter code",
	"role":      "coordinator or participant",
}

// Columns describes the columns of table in output order.
func Columns(table Table) []datasetapi.Column {
	names := domain.OrganizationColumns
	if table == TableProjects {
		names = domain.ProjectColumns
	}
	columns := make([]datasetapi.Column, len(names))
	for i, name := range names {
		typ, ok := columnTypes[name]
		if !ok {
			typ = "string"
		}
		columns[i] = datasetapi.Column{Name: name, Type: typ, Description: columnDescriptions[name]}
	}
	return columns
}

// Rows returns the table's column names and rows taken from view.
func Rows(view core.View, table Table) ([]string, []map[string]any) {
	names := datasetapi.ColumnNames(Columns(table))
	switch table {
	case TableProjects:
		rows := make([]map[string]any, len(view.Projects))
		for i, p := range view.Projects {
			rows[i] = p.Values()
		}
		return names, rows
	case TableSelection:
		return names, orgRows(view.SelectedOrganizations)
	default:
		return names, orgRows(view.Organizations)
	}
}

func orgRows(orgs []domain.Organization) []map[string]any {
	rows := make([]map[string]any, len(orgs))
	for i, o := range orgs {
		rows[i] = o.Values()
	}
	return rows
}

func negotiateFormat(r *http.Request) datasetapi.Format {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			return datasetapi.FormatCSV
		}
		return datasetapi.FormatJSON
	}
	switch datasetapi.Format(wanted) {
	case datasetapi.FormatCSV, datasetapi.FormatJSON:
		return datasetapi.Format(wanted)
	}
	return ""
}

// WriteCSV encodes columns and rows as comma separated values.
func WriteCSV(out io.Writer, columns []string, rows []map[string]any) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i] = formatValue(row[column])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteText renders columns and rows as an aligned plain text table.
func WriteText(out io.Writer, columns []string, rows []map[string]any) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i] = formatValue(row[column])
		}
		fmt.Fprintln(tw, strings.Join(record, "\t"))
	}
	return tw.Flush()
}

func streamCSV(w http.ResponseWriter, table Table, columns []string, rows []map[string]any) {
	filename := fmt.Sprintf("%s-%s.csv", table, time.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	_ = WriteCSV(w, columns, rows)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
