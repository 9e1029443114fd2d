package datasets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"hopon/internal/blob"
	"hopon/internal/core"
	"hopon/pkg/datasetapi"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportArtifact is one stored table rendering.
type ExportArtifact struct {
	Key         string            `json:"key"`
	Table       Table             `json:"table"`
	Format      datasetapi.Format `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	Rows        int               `json:"rows"`
	ETag        string            `json:"etag,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ExportRecord tracks an export request and its artifacts.
type ExportRecord struct {
	ID          string              `json:"id"`
	SessionID   string              `json:"session_id"`
	SnapshotKey string              `json:"snapshot_key"`
	Tables      []Table             `json:"tables"`
	Formats     []datasetapi.Format `json:"formats"`
	Status      ExportStatus        `json:"status"`
	Error       string              `json:"error,omitempty"`
	Artifacts   []ExportArtifact    `json:"artifacts,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ExportInput captures the view to export. The view is taken when the
// request is made, so later filter changes do not leak into the export.
type ExportInput struct {
	SessionID string
	View      core.View
	Tables    []Table
	Formats   []datasetapi.Format
}

// ExportScheduler queues view exports and exposes their status.
type ExportScheduler interface {
	EnqueueExport(ctx context.Context, input ExportInput) (ExportRecord, error)
	GetExport(id string) (ExportRecord, bool)
}

// Worker renders exports asynchronously into a blob store under Prefix.
type Worker struct {
	store  blob.Store
	prefix string
	logger *zap.Logger

	queue chan exportTask
	mu    sync.RWMutex
	jobs  *lru.Cache[string, *ExportRecord]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type exportTask struct {
	id    string
	input ExportInput
}

// DefaultExportPrefix is where artifacts are written.
const DefaultExportPrefix = "exports"

// DefaultMaxExports bounds the export records a worker remembers.
const DefaultMaxExports = 256

// NewWorker constructs an export worker writing to store. It remembers the
// maxRecords most recently used export records; evicted exports keep their
// artifacts but no longer report status. A non-positive maxRecords selects
// DefaultMaxExports.
func NewWorker(store blob.Store, logger *zap.Logger, maxRecords int) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxExports
	}
	jobs, _ := lru.NewWithEvict[string, *ExportRecord](maxRecords, func(id string, _ *ExportRecord) {
		logger.Debug("export record evicted", zap.String("export", id))
	})
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:  store,
		prefix: DefaultExportPrefix,
		logger: logger,
		queue:  make(chan exportTask, 32),
		jobs:   jobs,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Store returns the artifact store.
func (w *Worker) Store() blob.Store { return w.store }

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueExport schedules an export job and returns the queued record.
func (w *Worker) EnqueueExport(_ context.Context, input ExportInput) (ExportRecord, error) {
	if w.store == nil {
		return ExportRecord{}, fmt.Errorf("export store not configured")
	}
	tables := input.Tables
	if len(tables) == 0 {
		tables = []Table{TableProjects, TableOrganizations}
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []datasetapi.Format{datasetapi.FormatCSV}
	}
	uniqFormats := make([]datasetapi.Format, 0, len(formats))
	seen := make(map[datasetapi.Format]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		if format != datasetapi.FormatCSV && format != datasetapi.FormatJSON {
			return ExportRecord{}, fmt.Errorf("format %s not supported", format)
		}
		uniqFormats = append(uniqFormats, format)
		seen[format] = struct{}{}
	}

	id := ulid.Make().String()
	now := time.Now().UTC()
	record := ExportRecord{
		ID:          id,
		SessionID:   input.SessionID,
		SnapshotKey: input.View.SnapshotKey,
		Tables:      tables,
		Formats:     uniqFormats,
		Status:      ExportStatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs.Add(id, &record)
	queued := record.copy()
	w.mu.Unlock()

	select {
	case w.queue <- exportTask{id: id, input: input}:
	default:
		w.fail(id, "export queue full")
		return ExportRecord{}, fmt.Errorf("export queue full")
	}
	w.logger.Info("export queued", zap.String("export", id), zap.String("session", input.SessionID))
	return queued, nil
}

// GetExport returns a copy of the export record.
func (w *Worker) GetExport(id string) (ExportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs.Get(id)
	if !ok {
		return ExportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task exportTask) {
	w.updateStatus(task.id, ExportStatusRunning)
	record, _ := w.GetExport(task.id)

	artifacts := make([]ExportArtifact, 0, len(record.Tables)*len(record.Formats))
	for _, table := range record.Tables {
		columns, rows := Rows(task.input.View, table)
		for _, format := range record.Formats {
			payload, contentType, err := materialize(format, columns, rows)
			if err != nil {
				w.fail(task.id, err.Error())
				return
			}
			key := path.Join(w.prefix, task.id, fmt.Sprintf("%s.%s", table, format))
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
				ContentType: contentType,
				Metadata:    map[string]string{"session": task.input.SessionID, "table": string(table)},
			})
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact failed: %v", err))
				return
			}
			artifacts = append(artifacts, ExportArtifact{
				Key:         key,
				Table:       table,
				Format:      format,
				ContentType: contentType,
				SizeBytes:   int64(len(payload)),
				Rows:        len(rows),
				ETag:        info.ETag,
				CreatedAt:   time.Now().UTC(),
			})
		}
	}
	w.complete(task.id, artifacts)
}

func materialize(format datasetapi.Format, columns []string, rows []map[string]any) ([]byte, string, error) {
	switch format {
	case datasetapi.FormatJSON:
		payload, err := json.Marshal(map[string]any{"columns": columns, "rows": rows})
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case datasetapi.FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, columns, rows); err != nil {
			return nil, "", fmt.Errorf("encode csv: %w", err)
		}
		return buf.Bytes(), "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unsupported format %s", format)
	}
}

func (w *Worker) updateStatus(id string, status ExportStatus) {
	w.mu.Lock()
	if record, ok := w.jobs.Peek(id); ok {
		record.Status = status
		record.UpdatedAt = time.Now().UTC()
	}
	w.mu.Unlock()
}

func (w *Worker) complete(id string, artifacts []ExportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs.Peek(id); ok {
		record.Status = ExportStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.logger.Info("export succeeded", zap.String("export", id), zap.Int("artifacts", len(artifacts)))
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs.Peek(id); ok {
		record.Status = ExportStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.logger.Warn("export failed", zap.String("export", id), zap.String("reason", reason))
}

func (r ExportRecord) copy() ExportRecord {
	out := r
	out.Tables = append([]Table(nil), r.Tables...)
	out.Formats = append([]datasetapi.Format(nil), r.Formats...)
	out.Artifacts = append([]ExportArtifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
