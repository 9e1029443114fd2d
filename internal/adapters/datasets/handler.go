// Package datasets serves hopon views over HTTP: filter options, per-user
// sessions, table downloads and asynchronous exports.
package datasets

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hopon/internal/core"
	"hopon/internal/dataset"
	"hopon/pkg/datasetapi"
)

// Handler provides HTTP access to the query service.
type Handler struct {
	Service  *core.Service
	Exports  ExportScheduler
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewHandler constructs a handler for svc.
func NewHandler(svc *core.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Mount("/debug", middleware.Profiler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/openapi.yaml", NewOpenAPIHandler().ServeHTTP)
		r.Get("/options", h.handleOptions)
		r.Post("/sessions", h.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Post("/projects", h.handleProjectFilters)
			r.Post("/organizations", h.handleOrganizationFilters)
			r.Post("/selection", h.handleSelection)
			r.Get("/{table}", h.handleTable)
			r.Post("/exports", h.handleExportCreate)
		})
		r.Get("/exports/{exportID}", h.handleExportGet)
		r.Get("/exports/{exportID}/artifacts/{index}", h.handleArtifact)
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type optionsResponse struct {
	Options    core.Options `json:"options"`
	Parameters struct {
		Projects      []datasetapi.Parameter `json:"projects"`
		Organizations []datasetapi.Parameter `json:"organizations"`
		Exports       []datasetapi.Parameter `json:"exports"`
	} `json:"parameters"`
	Columns map[Table][]datasetapi.Column `json:"columns"`
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Service.Options(r.Context())
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	var resp optionsResponse
	resp.Options = opts
	resp.Parameters.Projects = core.ProjectParameterSet
	resp.Parameters.Organizations = core.OrganizationParameterSet
	resp.Parameters.Exports = ExportParameterSet
	resp.Columns = make(map[Table][]datasetapi.Column, 3)
	for _, t := range []Table{TableProjects, TableOrganizations, TableSelection} {
		resp.Columns[t] = Columns(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

type paramsPayload struct {
	Projects          map[string]any `json:"projects"`
	Organizations     map[string]any `json:"organizations"`
	SelectedProjectID string         `json:"selectedProjectId"`
}

type sessionResponse struct {
	Session string         `json:"session"`
	Params  *paramsPayload `json:"params,omitempty"`
	View    core.View      `json:"view"`
}

func encodeParams(p core.ViewParams) *paramsPayload {
	return &paramsPayload{
		Projects:          core.ProjectParamValues(p.Projects),
		Organizations:     core.OrganizationParamValues(p.Organizations),
		SelectedProjectID: p.SelectedProjectID,
	}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Service.CreateSession(r.Context())
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess.ID(), Params: encodeParams(sess.Params()), View: sess.View()})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, view, err := h.Service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess.ID(), Params: encodeParams(sess.Params()), View: view})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.Service.CloseSession(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, core.ErrSessionNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterRequest struct {
	Parameters map[string]any `json:"parameters"`
}

type filterErrorResponse struct {
	Error  string                      `json:"error"`
	Errors []datasetapi.ParameterError `json:"errors,omitempty"`
	View   *core.View                  `json:"view,omitempty"`
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) handleProjectFilters(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter request payload")
		return
	}
	id := chi.URLParam(r, "sessionID")
	view, err := h.Service.ApplyProjectFilters(r.Context(), id, req.Parameters)
	if err != nil {
		h.writeServiceError(w, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: id, View: view})
}

func (h *Handler) handleOrganizationFilters(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter request payload")
		return
	}
	id := chi.URLParam(r, "sessionID")
	view, err := h.Service.ApplyOrganizationFilters(r.Context(), id, req.Parameters)
	if err != nil {
		h.writeServiceError(w, err, &view)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: id, View: view})
}

type selectionRequest struct {
	ProjectID string `json:"projectId"`
}

func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid selection request payload")
		return
	}
	id := chi.URLParam(r, "sessionID")
	view, err := h.Service.SelectProject(r.Context(), id, req.ProjectID)
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: id, View: view})
}

func (h *Handler) handleTable(w http.ResponseWriter, r *http.Request) {
	table, ok := ParseTable(chi.URLParam(r, "table"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	format := negotiateFormat(r)
	if format == "" {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}
	_, view, err := h.Service.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	columns, rows := Rows(view, table)
	if format == datasetapi.FormatCSV {
		streamCSV(w, table, columns, rows)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":   table,
		"columns": columns,
		"rows":    rows,
		"count":   len(rows),
	})
}

// ExportParameterSet declares the body accepted when creating an export.
var ExportParameterSet = []datasetapi.Parameter{
	{Name: "tables", Type: datasetapi.TypeStringList, Description: "tables to render; projects and organizations when omitted",
		Enum: []string{string(TableProjects), string(TableOrganizations), string(TableSelection)}},
	{Name: "formats", Type: datasetapi.TypeStringList, Description: "output encodings",
		Enum: []string{string(datasetapi.FormatCSV), string(datasetapi.FormatJSON)}, Default: json.RawMessage(`["csv"]`)},
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusNotFound, "exports not configured")
		return
	}
	var raw map[string]any
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}
	cleaned, errs := datasetapi.ValidateParameters(ExportParameterSet, raw)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, filterErrorResponse{Error: "invalid export request", Errors: errs})
		return
	}
	var tables []Table
	if names, ok := cleaned["tables"].([]string); ok {
		for _, name := range names {
			tables = append(tables, Table(name))
		}
	}
	var formats []datasetapi.Format
	if names, ok := cleaned["formats"].([]string); ok {
		for _, f := range names {
			formats = append(formats, datasetapi.Format(f))
		}
	}
	id := chi.URLParam(r, "sessionID")
	_, view, err := h.Service.Session(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, nil)
		return
	}
	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{SessionID: id, View: view, Tables: tables, Formats: formats})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, r *http.Request) {
	if h.Exports == nil {
		writeError(w, http.StatusNotFound, "exports not configured")
		return
	}
	record, ok := h.Exports.GetExport(chi.URLParam(r, "exportID"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	worker, ok := h.Exports.(*Worker)
	if !ok {
		writeError(w, http.StatusNotFound, "exports not configured")
		return
	}
	record, ok := worker.GetExport(chi.URLParam(r, "exportID"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(record.Artifacts) {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	artifact := record.Artifacts[index]
	_, rc, err := worker.Store().Get(r.Context(), artifact.Key)
	if err != nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer func() { _ = rc.Close() }()
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("ETag", strconv.Quote(artifact.ETag))
	_, _ = io.Copy(w, rc)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, previous *core.View) {
	var fe *core.FilterError
	var le *dataset.LoadError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, filterErrorResponse{Error: err.Error(), Errors: fe.Errors, View: previous})
	case errors.Is(err, core.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &le):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
