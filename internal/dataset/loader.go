package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"hopon/pkg/domain"
)

// Snapshot is the immutable pair of tables produced by one load. Callers
// must not modify the slices.
type Snapshot struct {
	Key           string
	Projects      []domain.Project
	Organizations []domain.Organization
	LoadedAt      time.Time
}

// Loader produces snapshots from a project and an organization source,
// reusing cached snapshots while both identities are unchanged.
type Loader struct {
	projects      Source
	organizations Source
	countries     *CountryMapping
	cache         *Cache
	logger        *zap.Logger
	now           func() time.Time
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithCountries replaces the default country mapping; nil keeps every row
// with its raw country code.
func WithCountries(m *CountryMapping) LoaderOption {
	return func(l *Loader) { l.countries = m }
}

// WithCache shares a cache between loaders.
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader returns a loader using EuropeanCountries and a private cache
// unless overridden.
func NewLoader(projects, organizations Source, opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		projects:      projects,
		organizations: organizations,
		countries:     EuropeanCountries,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.cache == nil {
		c, err := NewCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		l.cache = c
	}
	return l, nil
}

// Cache exposes the snapshot cache for explicit invalidation.
func (l *Loader) Cache() *Cache { return l.cache }

// Key returns the composite identity of the current source contents.
func (l *Loader) Key(ctx context.Context) (string, error) {
	pid, err := l.projects.Identity(ctx)
	if err != nil {
		return "", loadErr("projects", err)
	}
	oid, err := l.organizations.Identity(ctx)
	if err != nil {
		return "", loadErr("organizations", err)
	}
	countries := "raw"
	if l.countries != nil {
		sum := sha256.Sum256([]byte(l.countries.Fingerprint()))
		countries = hex.EncodeToString(sum[:8])
	}
	return pid + "|" + oid + "|countries=" + countries, nil
}

// maxLoadAttempts bounds reloads while the sources keep changing under a load.
const maxLoadAttempts = 3

// Snapshot returns the cached snapshot for the current identities or loads
// both tables concurrently. Any LoadError aborts the whole load. Identities
// are read again after loading; if they moved, the tables may mix two
// versions and the load is retried. A snapshot whose identities never
// settle is returned under the latest key but not cached.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	key, err := l.Key(ctx)
	if err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		if snap, ok := l.cache.Get(key); ok {
			return snap, nil
		}
		snap, err := l.load(ctx)
		if err != nil {
			return nil, err
		}
		after, err := l.Key(ctx)
		if err != nil {
			return nil, err
		}
		if after == key {
			snap.Key = key
			l.cache.Add(key, snap)
			l.logger.Info("snapshot loaded",
				zap.String("key", key),
				zap.Int("projects", len(snap.Projects)),
				zap.Int("organizations", len(snap.Organizations)))
			return snap, nil
		}
		l.logger.Debug("sources changed during load",
			zap.String("before", key), zap.String("after", after), zap.Int("attempt", attempt))
		key = after
		if attempt == maxLoadAttempts {
			snap.Key = key
			l.logger.Warn("sources kept changing, snapshot not cached", zap.String("key", key))
			return snap, nil
		}
	}
}

func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		projects, err := LoadProjects(ctx, l.projects, ProjectOptions{Logger: l.logger})
		snap.Projects = projects
		return err
	})
	p.Go(func(ctx context.Context) error {
		orgs, err := LoadOrganizations(ctx, l.organizations, OrganizationOptions{Countries: l.countries, Logger: l.logger})
		snap.Organizations = orgs
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	snap.LoadedAt = l.now().UTC()
	return snap, nil
}
