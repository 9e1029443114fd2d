package blob

import (
	"context"
	"fmt"

	infrafs "hopon/internal/infra/blob/fs"
	"hopon/internal/infra/blob/memory"
	infraS3 "hopon/internal/infra/blob/s3"
)

// S3Config re-exports the infra S3 configuration type.
type S3Config = infraS3.Config

// Config selects and configures a blob backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open selects a Store implementation from cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// Filesystem is the directory-backed store; it exposes its root so a
// watcher can follow file changes.
type Filesystem = infrafs.Store

// Memory is the process-local store.
type Memory = memory.Store

// NewFilesystem returns a store rooted at root (default ./data).
func NewFilesystem(root string) (*Filesystem, error) { return infrafs.New(root) }

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return memory.New() }

// NewS3 constructs an S3-backed Store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, cfg)
}

// NewMockS3ForTests exposes the in-memory S3 fake for cross-package tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
