// Package openapi embeds the OpenAPI description of the hopon HTTP API.
package openapi

import _ "embed"

// Hopon is the OpenAPI document of the HTTP API.
//
//go:embed hopon.yaml
var Hopon []byte

// Document returns a copy of the embedded OpenAPI YAML.
func Document() []byte {
	return append([]byte(nil), Hopon...)
}
