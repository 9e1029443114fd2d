package datasetapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hopon/pkg/domain"
)

// ValidateParameters validates supplied values against definitions, returning
// the coerced values keyed by declared name plus any validation errors.
// Parameter names match case-insensitively; undeclared names are errors.
func ValidateParameters(definitions []Parameter, supplied map[string]any) (map[string]any, []ParameterError) {
	cleaned := make(map[string]any)
	var errs []ParameterError
	provided := make(map[string]string, len(supplied))
	for k := range supplied {
		provided[strings.ToLower(k)] = k
	}
	for _, param := range definitions {
		key := strings.ToLower(param.Name)
		val, ok := findParamValue(param.Name, supplied)
		if !ok {
			if len(param.Default) > 0 {
				coerced, err := coerceDefaultParameter(param)
				if err != nil {
					errs = append(errs, ParameterError{Name: param.Name, Message: err.Error()})
					continue
				}
				cleaned[param.Name] = coerced
			}
			continue
		}
		delete(provided, key)
		coerced, err := coerceParameter(param, val)
		if err != nil {
			errs = append(errs, ParameterError{Name: param.Name, Message: err.Error()})
			continue
		}
		cleaned[param.Name] = coerced
	}
	for _, original := range provided {
		errs = append(errs, ParameterError{Name: original, Message: "parameter not declared"})
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Name < errs[j].Name })
	}
	return cleaned, errs
}

func coerceDefaultParameter(param Parameter) (any, error) {
	var raw any
	if err := json.Unmarshal(param.Default, &raw); err != nil {
		return nil, fmt.Errorf("parameter %s default is invalid JSON: %w", param.Name, err)
	}
	return coerceParameter(param, raw)
}

func findParamValue(name string, supplied map[string]any) (any, bool) {
	if supplied == nil {
		return nil, false
	}
	if val, ok := supplied[name]; ok {
		return val, true
	}
	lower := strings.ToLower(name)
	for k, v := range supplied {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return nil, false
}

func coerceParameter(param Parameter, raw any) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("parameter %s cannot be null", param.Name)
	}
	switch param.Type {
	case TypeString:
		var val string
		switch v := raw.(type) {
		case string:
			val = v
		case fmt.Stringer:
			val = v.String()
		default:
			return nil, fmt.Errorf("parameter %s expects string", param.Name)
		}
		if len(param.Enum) > 0 && !containsString(param.Enum, val) {
			return nil, enumError(param.Enum)
		}
		return val, nil
	case TypeStringList:
		return coerceStringList(param, raw)
	case TypeDate:
		switch v := raw.(type) {
		case time.Time:
			return v.UTC(), nil
		case domain.Date:
			if t, ok := v.Time(); ok {
				return t, nil
			}
			return nil, fmt.Errorf("parameter %s expects date (YYYY-MM-DD)", param.Name)
		case string:
			parsed, ok := domain.ParseDate(v)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects date (YYYY-MM-DD)", param.Name)
			}
			t, _ := parsed.Time()
			return t, nil
		default:
			return nil, fmt.Errorf("parameter %s expects date (YYYY-MM-DD)", param.Name)
		}
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", param.Type)
	}
}

// coerceStringList accepts []string, []any of strings, or a single string.
// An empty list is preserved as a non-nil empty slice.
func coerceStringList(param Parameter, raw any) ([]string, error) {
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(make([]string, 0, len(v)), v...)
	case []any:
		out = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects a list of strings", param.Name)
			}
			out = append(out, s)
		}
	case string:
		out = []string{v}
	default:
		return nil, fmt.Errorf("parameter %s expects a list of strings", param.Name)
	}
	if len(param.Enum) > 0 {
		for _, item := range out {
			if !containsString(param.Enum, item) {
				return nil, enumError(param.Enum)
			}
		}
	}
	return out, nil
}

func containsString(list []string, target string) bool {
	for _, candidate := range list {
		if candidate == target {
			return true
		}
	}
	return false
}

func enumError(options []string) error {
	if len(options) == 0 {
		return errors.New("invalid enumeration")
	}
	return fmt.Errorf("value must be one of: %s", strings.Join(options, ", "))
}
