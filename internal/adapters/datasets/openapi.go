package datasets

import (
	"net/http"

	"hopon/docs/schema/openapi"
)

// NewOpenAPIHandler serves the embedded OpenAPI description of the API.
func NewOpenAPIHandler() http.Handler {
	doc := openapi.Document()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	})
}
