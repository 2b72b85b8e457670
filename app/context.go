// Package app wires the process-wide dependencies: configuration, logger,
// storage clients and the data source factory. One Context is built at
// startup and passed explicitly to the HTTP server and CLI commands.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/pharmadex/access"
	"github.com/teranos/pharmadex/aggregate"
	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/datasource"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
	"github.com/teranos/pharmadex/store"
)

// Context holds the dependencies shared by request handlers and commands.
type Context struct {
	Config      *config.Config
	Logger      *zap.SugaredLogger
	Storage     *store.Provider
	DataSources *datasource.Factory

	// overridable for tests
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	watchers []*datasource.FixtureWatcher
}

// Option customizes a Context.
type Option func(*Context)

// WithStorage replaces the config-built storage provider.
func WithStorage(p *store.Provider) Option {
	return func(c *Context) { c.Storage = p }
}

// WithClock fixes the time source used by data sources.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// WithIDGenerator fixes the id source used by data sources.
func WithIDGenerator(newID func() string) Option {
	return func(c *Context) { c.newID = newID }
}

// New builds a Context and registers the memory and storage data source
// types. No data source is created until Activate.
func New(cfg *config.Config, log *zap.SugaredLogger, opts ...Option) (*Context, error) {
	if cfg == nil {
		return nil, errors.Configuration(nil, "configuration is required")
	}
	log = logger.OrNop(log)

	c := &Context{
		Config:      cfg,
		Logger:      log,
		DataSources: datasource.NewFactory(log.Named("datasource")),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Storage == nil {
		c.Storage = store.NewProvider(cfg.Storage, log.Named("store"))
	}

	for typ, ctor := range map[string]datasource.Constructor{
		datasource.TypeMemory:  c.newMemory,
		datasource.TypeStorage: c.newStorage,
	} {
		if res := c.DataSources.RegisterType(typ, ctor); !res.Success {
			return nil, errors.Internal(nil, "%s", res.Error)
		}
	}
	return c, nil
}

// Access builds data access functions over the anonymous client for reads
// and the privileged client for writes.
func (c *Context) Access() (*access.Access, error) {
	agg, err := aggregate.New(c.Config.Storage.Aggregation)
	if err != nil {
		return nil, errors.Configuration(err, "storage.aggregation")
	}
	return access.New(access.Options{
		Reader:      c.Storage.Anon(),
		Writer:      c.Storage.Privileged(),
		Aggregation: agg,
		Logger:      c.Logger.Named("access"),
		Now:         c.now,
		NewID:       c.newID,
	}), nil
}

func (c *Context) newStorage(string) (datasource.DataSource, error) {
	a, err := c.Access()
	if err != nil {
		return nil, err
	}
	// clients belong to the provider, which Close releases
	return datasource.NewStorage(a, nil), nil
}

func (c *Context) newMemory(string) (datasource.DataSource, error) {
	fx, err := datasource.LoadFixtures(c.Config.DataSource.Fixtures)
	if err != nil {
		return nil, err
	}
	m, err := datasource.NewMemoryFromFixtures(context.Background(), fx,
		datasource.WithClock(c.now),
		datasource.WithIDGenerator(c.newID),
		datasource.WithLogger(c.Logger.Named("memory")))
	if err != nil {
		return nil, err
	}

	ds := c.Config.DataSource
	if ds.Fixtures == "" || !ds.WatchFixtures {
		return m, nil
	}
	w, err := datasource.WatchFixtures(ds.Fixtures, m, c.Logger.Named("fixtures"))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()
	return m, nil
}

// Activate creates the configured data source type (default instance) and
// makes it active.
func (c *Context) Activate() error {
	typ := c.Config.DataSource.Type
	res := c.DataSources.CreateDataSource(typ, datasource.DefaultInstance)
	if !res.Success {
		return errors.WithHint(
			errors.Configuration(nil, "%s", res.Error),
			"datasource.type must be memory or storage")
	}
	if set := c.DataSources.SetActive(res.ID); !set.Success {
		return errors.Internal(nil, "%s", set.Error)
	}
	c.Logger.Infow("Data source active", logger.FieldDataSource, res.ID)
	return nil
}

// DataSource returns the active data source.
func (c *Context) DataSource() (datasource.DataSource, error) {
	ds, _ := c.DataSources.Active()
	if ds == nil {
		return nil, errors.Configuration(nil, "no active data source")
	}
	return ds, nil
}

// Close stops fixture watchers and releases data sources and storage clients.
func (c *Context) Close() error {
	c.mu.Lock()
	watchers := c.watchers
	c.watchers = nil
	c.mu.Unlock()

	errs := []error{c.DataSources.Close(), c.Storage.Close()}
	for _, w := range watchers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
