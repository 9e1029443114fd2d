package dataset

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CountryMapping translates two-letter country codes to display names.
// It is immutable once built.
type CountryMapping struct {
	names map[string]string
}

// NewCountryMapping copies pairs into a mapping. Codes are matched exactly.
func NewCountryMapping(pairs map[string]string) *CountryMapping {
	names := make(map[string]string, len(pairs))
	for code, name := range pairs {
		names[code] = name
	}
	return &CountryMapping{names: names}
}

// Name returns the display name for code.
func (m *CountryMapping) Name(code string) (string, bool) {
	name, ok := m.names[code]
	return name, ok
}

// Len reports the number of codes.
func (m *CountryMapping) Len() int { return len(m.names) }

// Codes returns the mapped codes in sorted order.
func (m *CountryMapping) Codes() []string {
	codes := make([]string, 0, len(m.names))
	for code := range m.names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Names returns the distinct display names in sorted order.
func (m *CountryMapping) Names() []string {
	seen := make(map[string]struct{}, len(m.names))
	names := make([]string, 0, len(m.names))
	for _, name := range m.names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint is a stable textual form used in cache keys.
func (m *CountryMapping) Fingerprint() string {
	var b strings.Builder
	for _, code := range m.Codes() {
		b.WriteString(code)
		b.WriteByte('=')
		b.WriteString(m.names[code])
		b.WriteByte(';')
	}
	return b.String()
}

// EuropeanCountries is the default mapping applied to organization rows.
var EuropeanCountries = NewCountryMapping(map[string]string{
	"IT": "Italy",
	"AT": "Austria",
	"CZ": "Czech Republic",
	"ES": "Spain",
	"FR": "France",
	"DE": "Germany",
	"NL": "Netherlands",
	"UK": "United Kingdom",
	"BE": "Belgium",
	"EE": "Estonia",
	"PL": "Poland",
	"HR": "Croatia",
	"IE": "Ireland",
	"FI": "Finland",
	"NO": "Norway",
	"LU": "Luxembourg",
	"DK": "Denmark",
	"CH": "Switzerland",
	"SE": "Sweden",
	"PT": "Portugal",
	"RO": "Romania",
	"BG": "Bulgaria",
	"LV": "Latvia",
	"SI": "Slovenia",
	"LT": "Lithuania",
	"SK": "Slovakia",
	"UA": "Ukraine",
	"RS": "Serbia",
	"CY": "Cyprus",
	"HU": "Hungary",
	"MT": "Malta",
	"MK": "North Macedonia",
	"IS": "Iceland",
	"BA": "Bosnia and Herzegovina",
	"AL": "Albania",
	"MD": "Moldova",
	"XK": "Kosovo",
	"ME": "Montenegro",
})

// LoadCountryMapping reads a YAML document of code: name pairs.
func LoadCountryMapping(path string) (*CountryMapping, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read country mapping: %w", err)
	}
	return ParseCountryMapping(raw)
}

// ParseCountryMapping decodes YAML code: name pairs.
func ParseCountryMapping(raw []byte) (*CountryMapping, error) {
	var pairs map[string]string
	if err := yaml.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("decode country mapping: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("country mapping is empty")
	}
	for code, name := range pairs {
		if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("country mapping has blank entry %q: %q", code, name)
		}
	}
	return NewCountryMapping(pairs), nil
}
