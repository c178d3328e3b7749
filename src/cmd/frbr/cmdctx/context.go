// Package cmdctx lazily builds the configuration, logger, stores and
// service shared by the frbr subcommands.
package cmdctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"catalog/src/internal/catalog"
	"catalog/src/internal/config"
	"catalog/src/internal/logging"
	"catalog/src/internal/metrics"
	"catalog/src/internal/ordering"
	"catalog/src/internal/store"
	"catalog/src/internal/store/sqlite"
)

// Context is shared by every subcommand of one invocation.
type Context struct {
	ConfigFlag  *string
	MetricsFile *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	overrides []func(*catalog.Flags)

	mu        sync.Mutex
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	members   *sqlite.Store
	relations *ordering.Catalog
}

// New returns a Context reading the given flag values at first use.
func New(configFlag, metricsFile *string) *Context {
	return &Context{ConfigFlag: configFlag, MetricsFile: metricsFile}
}

// Config loads the configuration once.
func (c *Context) Config() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.ConfigFlag != nil {
			path = strings.TrimSpace(*c.ConfigFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.configPath, c.configSeen = cfg, resolved, exists
	})
	return c.config, c.configErr
}

// ConfigSource reports the resolved configuration path and whether the file
// existed. It loads the configuration if needed.
func (c *Context) ConfigSource() (string, bool, error) {
	if _, err := c.Config(); err != nil {
		return "", false, err
	}
	return c.configPath, c.configSeen, nil
}

// Override adjusts the policy flags for this invocation, as a command-line
// switch does. It must be called before Service.
func (c *Context) Override(fn func(*catalog.Flags)) {
	c.overrides = append(c.overrides, fn)
}

// Flags returns the catalog policy flags of the loaded configuration with
// overrides applied.
func (c *Context) Flags() (catalog.Flags, error) {
	cfg, err := c.Config()
	if err != nil {
		return catalog.Flags{}, err
	}
	flags, err := cfg.Flags()
	if err != nil {
		return catalog.Flags{}, err
	}
	for _, fn := range c.overrides {
		fn(&flags)
	}
	return flags, nil
}

// Logger returns the configured logger.
func (c *Context) Logger() (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

// Metrics returns the counters registered with this invocation's registry.
func (c *Context) Metrics() (*metrics.Metrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics != nil {
		return c.metrics, nil
	}
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	c.registry, c.metrics = reg, m
	return m, nil
}

// Store returns the YAML record store in the configured data directory.
func (c *Context) Store() (*store.Store, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Paths.DataDir, logger.With("component", "store")), nil
}

// Relations opens the membership database and returns relations hydrated
// from it. Every mutation is committed to the database.
func (c *Context) Relations(ctx context.Context) (*ordering.Catalog, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.relations != nil {
		return c.relations, nil
	}
	db, err := sqlite.Open(ctx, cfg.Paths.DatabasePath, logger.With("component", "memberships"))
	if err != nil {
		return nil, err
	}
	rel, err := db.NewCatalog(ctx, cfg.Catalog.ManifestationHasOneItem)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	c.members, c.relations = db, rel
	return rel, nil
}

// Service wires the save pipeline to the record store and memberships.
func (c *Context) Service(ctx context.Context) (*catalog.Service, error) {
	flags, err := c.Flags()
	if err != nil {
		return nil, err
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}
	rel, err := c.Relations(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	m, err := c.Metrics()
	if err != nil {
		return nil, err
	}
	return catalog.NewService(catalog.Options{
		Flags:      flags,
		Repository: st,
		Logger:     logger.With("component", "catalog"),
		Metrics:    m,
		Relations:  rel,
	}), nil
}

// Close flushes metrics to the requested textfile and closes the database.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.MetricsFile != nil && strings.TrimSpace(*c.MetricsFile) != "" && c.registry != nil {
		if err := prometheus.WriteToTextfile(*c.MetricsFile, c.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if c.members != nil {
		errs = append(errs, c.members.Close())
		c.members, c.relations = nil, nil
	}
	return errors.Join(errs...)
}
