package datasource

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

// DefaultInstance is the instance id used when none is given.
const DefaultInstance = "default"

// Constructor builds a DataSource for an instance id.
type Constructor func(instanceID string) (DataSource, error)

// Result reports the outcome of a Factory operation. Failures are carried
// in Error rather than returned, so callers can forward them as-is.
type Result struct {
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
	ID         string     `json:"id,omitempty"`
	DataSource DataSource `json:"-"`
}

func failed(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Info describes a cached instance.
type Info struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Instance string `json:"instance"`
	Active   bool   `json:"active"`
}

// Factory registers DataSource constructors by type and caches the
// instances they build under "type:instance". Safe for concurrent use.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	instances    map[string]DataSource
	active       string
	logger       *zap.SugaredLogger
}

// NewFactory creates an empty factory.
func NewFactory(log *zap.SugaredLogger) *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
		instances:    make(map[string]DataSource),
		logger:       logger.OrNop(log),
	}
}

// Key returns the cache key of an instance.
func Key(typ, instanceID string) string {
	if instanceID == "" {
		instanceID = DefaultInstance
	}
	return typ + ":" + instanceID
}

// RegisterType makes typ constructible. Registering a type twice fails.
func (f *Factory) RegisterType(typ string, c Constructor) Result {
	if typ == "" || c == nil {
		return failed("data source type and constructor are required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.constructors[typ]; exists {
		return failed("data source type %q is already registered", typ)
	}
	f.constructors[typ] = c
	return Result{Success: true, ID: typ}
}

// Types returns the registered types in sorted order.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.constructors))
	for t := range f.constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CreateDataSource builds and caches an instance of typ. The first
// instance created becomes active. Unregistered types, duplicate instance
// ids and constructor failures are reported in the Result.
func (f *Factory) CreateDataSource(typ, instanceID string) Result {
	key := Key(typ, instanceID)

	f.mu.RLock()
	c, registered := f.constructors[typ]
	_, exists := f.instances[key]
	f.mu.RUnlock()

	if !registered {
		return failed("data source type %q is not registered", typ)
	}
	if exists {
		return failed("data source %q already exists", key)
	}

	ds, err := c(instanceID)
	if err != nil {
		f.logger.Errorw("Data source construction failed",
			logger.FieldDataSource, key,
			logger.FieldError, err,
			logger.FieldErrorCategory, errors.CategoryOf(err),
		)
		return failed("create data source %q: %v", key, err)
	}

	f.mu.Lock()
	if _, raced := f.instances[key]; raced {
		f.mu.Unlock()
		_ = ds.Close()
		return failed("data source %q already exists", key)
	}
	f.instances[key] = ds
	if f.active == "" {
		f.active = key
	}
	f.mu.Unlock()

	f.logger.Infow("Data source created", logger.FieldDataSource, key)
	return Result{Success: true, ID: key, DataSource: ds}
}

// Get returns a cached instance.
func (f *Factory) Get(key string) (DataSource, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ds, ok := f.instances[key]
	return ds, ok
}

// SetActive designates a cached instance as active.
func (f *Factory) SetActive(key string) Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	ds, ok := f.instances[key]
	if !ok {
		return failed("data source %q does not exist", key)
	}
	f.active = key
	f.logger.Infow("Active data source changed", logger.FieldDataSource, key)
	return Result{Success: true, ID: key, DataSource: ds}
}

// Active returns the active instance and its key, or nil when none exists.
func (f *Factory) Active() (DataSource, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.active == "" {
		return nil, ""
	}
	return f.instances[f.active], f.active
}

// List describes every cached instance in key order.
func (f *Factory) List() []Info {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Info, 0, len(f.instances))
	for key, ds := range f.instances {
		_, instance, _ := strings.Cut(key, ":")
		out = append(out, Info{ID: key, Type: ds.Type(), Instance: instance, Active: key == f.active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove closes and forgets an instance. Removing the active instance
// leaves no instance active.
func (f *Factory) Remove(key string) Result {
	f.mu.Lock()
	ds, ok := f.instances[key]
	delete(f.instances, key)
	if f.active == key {
		f.active = ""
	}
	f.mu.Unlock()

	if !ok {
		return failed("data source %q does not exist", key)
	}
	if err := ds.Close(); err != nil {
		return failed("close data source %q: %v", key, err)
	}
	return Result{Success: true, ID: key}
}

// Close closes every instance and empties the cache.
func (f *Factory) Close() error {
	f.mu.Lock()
	instances := f.instances
	f.instances = make(map[string]DataSource)
	f.active = ""
	f.mu.Unlock()

	keys := make([]string, 0, len(instances))
	for k := range instances {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := instances[k].Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s", k))
		}
	}
	return errors.Join(errs...)
}
