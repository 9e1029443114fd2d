package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hopon/internal/dataset"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Service answers view queries over the loader's current snapshot and keeps
// per-user sessions.
type Service struct {
	loader   *dataset.Loader
	sessions *SessionStore
	logger   *zap.Logger
	metrics  MetricsRecorder
	tracer   Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSessionStore replaces the default session store.
func WithSessionStore(st *SessionStore) Option {
	return func(s *Service) {
		if st != nil {
			s.sessions = st
		}
	}
}

// NewService returns a service reading snapshots from loader.
func NewService(loader *dataset.Loader, opts ...Option) *Service {
	s := &Service{
		loader:  loader,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = NewSessionStore(DefaultMaxSessions, DefaultSessionTTL)
	}
	return s
}

// Loader returns the snapshot loader.
func (s *Service) Loader() *dataset.Loader { return s.loader }

// Sessions returns the session store.
func (s *Service) Sessions() *SessionStore { return s.sessions }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil && !IsFilterError(err) && !errors.Is(err, ErrSessionNotFound) {
		s.logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

// Snapshot returns the current snapshot, loading it when the sources changed.
func (s *Service) Snapshot(ctx context.Context) (*dataset.Snapshot, error) {
	var snap *dataset.Snapshot
	err := s.run(ctx, "snapshot", func(ctx context.Context) error {
		var err error
		snap, err = s.loader.Snapshot(ctx)
		return err
	})
	return snap, err
}

// Options lists the filter choices of the current snapshot.
func (s *Service) Options(ctx context.Context) (Options, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Options{}, err
	}
	return OptionsFor(snap), nil
}

// Query computes a view without a session. Parameters are validated first.
func (s *Service) Query(ctx context.Context, params ViewParams) (View, error) {
	var view View
	err := s.run(ctx, "query", func(ctx context.Context) error {
		if err := params.Projects.Validate(); err != nil {
			return err
		}
		snap, err := s.loader.Snapshot(ctx)
		if err != nil {
			return err
		}
		view = ComputeView(snap, params)
		return nil
	})
	return view, err
}

// CreateSession starts a session with the default parameters.
func (s *Service) CreateSession(ctx context.Context) (*Session, error) {
	var sess *Session
	err := s.run(ctx, "create_session", func(ctx context.Context) error {
		snap, err := s.loader.Snapshot(ctx)
		if err != nil {
			return err
		}
		sess = s.sessions.Create(snap, DefaultViewParams(snap))
		s.logger.Debug("session created", zap.String("session", sess.ID()))
		return nil
	})
	return sess, err
}

// Session returns a live session whose view reflects the current snapshot.
func (s *Service) Session(ctx context.Context, id string) (*Session, View, error) {
	var (
		sess *Session
		view View
	)
	err := s.run(ctx, "get_session", func(ctx context.Context) error {
		var err error
		sess, err = s.refreshed(ctx, id)
		if err != nil {
			return err
		}
		view = sess.View()
		return nil
	})
	return sess, view, err
}

// ApplyProjectFilters validates raw project parameters and applies them. On
// a FilterError the previous view is returned alongside the error.
func (s *Service) ApplyProjectFilters(ctx context.Context, id string, raw map[string]any) (View, error) {
	var view View
	err := s.run(ctx, "apply_project_filters", func(ctx context.Context) error {
		sess, err := s.refreshed(ctx, id)
		if err != nil {
			return err
		}
		params, err := ParseProjectParams(raw)
		if err != nil {
			view = sess.View()
			return err
		}
		view, err = sess.ApplyProjectParams(params)
		return err
	})
	return view, err
}

// ApplyOrganizationFilters validates raw organization parameters and applies them.
func (s *Service) ApplyOrganizationFilters(ctx context.Context, id string, raw map[string]any) (View, error) {
	var view View
	err := s.run(ctx, "apply_organization_filters", func(ctx context.Context) error {
		sess, err := s.refreshed(ctx, id)
		if err != nil {
			return err
		}
		params, err := ParseOrganizationParams(raw)
		if err != nil {
			view = sess.View()
			return err
		}
		view = sess.ApplyOrganizationParams(params)
		return nil
	})
	return view, err
}

// SelectProject changes the drill-down project of a session.
func (s *Service) SelectProject(ctx context.Context, id, projectID string) (View, error) {
	var view View
	err := s.run(ctx, "select_project", func(ctx context.Context) error {
		sess, err := s.refreshed(ctx, id)
		if err != nil {
			return err
		}
		view = sess.Select(projectID)
		return nil
	})
	return view, err
}

// CloseSession ends a session.
func (s *Service) CloseSession(id string) bool { return s.sessions.Remove(id) }

func (s *Service) refreshed(ctx context.Context, id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	snap, err := s.loader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sess.Refresh(snap)
	return sess, nil
}
