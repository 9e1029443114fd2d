// Package datasetapi declares the parameter and column contracts shared by
// the hopon query layer and its HTTP and CLI surfaces.
package datasetapi

import (
	"encoding/json"
	"strings"
)

// Format identifies an output encoding for a view.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParameterType enumerates the coercions ValidateParameters understands.
type ParameterType string

const (
	TypeString     ParameterType = "string"
	TypeStringList ParameterType = "string_list"
	TypeDate       ParameterType = "date"
)

// Parameter declares one accepted filter option.
type Parameter struct {
	Name        string          `json:"name"`
	Type        ParameterType   `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// Column describes one column of a tabular view. Type is one of string,
// date, integer or number.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ParameterError reports a single invalid or unknown parameter.
type ParameterError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e ParameterError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// ParameterErrors aggregates validation failures so they can travel as an error.
type ParameterErrors []ParameterError

func (e ParameterErrors) Error() string {
	parts := make([]string, len(e))
	for i, pe := range e {
		parts[i] = pe.Error()
	}
	return strings.Join(parts, "; ")
}

// ColumnNames returns the names of columns in order.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
