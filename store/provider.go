package store

import (
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/pharmadex/config"
	"github.com/teranos/pharmadex/db"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

// placeholderPattern matches credentials that were never filled in
var placeholderPattern = regexp.MustCompile(`(?i)^(|your[-_].*|.*placeholder.*|changeme|xxx+|<.*>)$`)

// IsPlaceholder reports whether a credential value is missing or obviously
// a template value.
func IsPlaceholder(value string) bool {
	return placeholderPattern.MatchString(strings.TrimSpace(value))
}

// Provider owns the process's storage clients. The anonymous client serves
// request paths; the privileged client is only handed to server-side
// maintenance code (seeding, market data refresh, writes).
// Clients are built on first use.
type Provider struct {
	cfg    config.StorageConfig
	logger *zap.SugaredLogger

	anonOnce sync.Once
	anon     Client

	privOnce   sync.Once
	privileged Client

	// local mode shares one SQLite handle between both roles
	localOnce sync.Once
	local     Client
}

// NewProvider creates a provider for cfg. No connection is made until a
// client is requested.
func NewProvider(cfg config.StorageConfig, log *zap.SugaredLogger) *Provider {
	return &Provider{cfg: cfg, logger: logger.OrNop(log)}
}

// NewProviderFromClients wraps prebuilt clients (tests, embedding).
func NewProviderFromClients(anon, privileged Client) *Provider {
	p := &Provider{logger: zap.NewNop().Sugar(), anon: anon, privileged: privileged}
	p.anonOnce.Do(func() {})
	p.privOnce.Do(func() {})
	return p
}

// Anon returns the anonymous client, or a stub when credentials are invalid.
func (p *Provider) Anon() Client {
	p.anonOnce.Do(func() {
		p.anon = p.build("anon", p.cfg.AnonKey)
	})
	return p.anon
}

// Privileged returns the service-role client, or a stub when the service
// key is invalid.
func (p *Provider) Privileged() Client {
	p.privOnce.Do(func() {
		p.privileged = p.build("service", p.cfg.ServiceKey)
	})
	return p.privileged
}

func (p *Provider) build(role, key string) Client {
	if p.cfg.UseLocal {
		return p.localClient()
	}
	if IsPlaceholder(p.cfg.URL) || IsPlaceholder(key) {
		p.logger.Warnw("Storage credentials missing or placeholder, using stub client",
			"role", role,
		)
		return NewStubClient()
	}

	sqlDB, err := db.OpenPostgres(p.cfg.URL, key, p.logger)
	if err != nil {
		p.logger.Errorw("Storage connection failed, using stub client",
			"role", role,
			logger.FieldError, err,
		)
		return newFailedClient(errors.Database(err, "connect storage (%s)", role))
	}
	return NewSQLClient(sqlDB, db.DialectPostgres, p.cfg.Timeout(), p.logger.Named(role))
}

func (p *Provider) localClient() Client {
	p.localOnce.Do(func() {
		path := p.cfg.GetLocalPath()
		sqlDB, err := db.OpenWithMigrations(path, p.logger)
		if err != nil {
			p.logger.Errorw("Local database unavailable, using stub client",
				logger.FieldPath, path,
				logger.FieldError, err,
			)
			p.local = newFailedClient(errors.Database(err, "open local database %s", path))
			return
		}
		p.local = NewSQLClient(sqlDB, db.DialectSQLite, p.cfg.Timeout(), p.logger.Named("local"))
	})
	return p.local
}

// Close closes every client the provider built.
func (p *Provider) Close() error {
	var errs []error
	seen := map[Client]bool{}
	for _, c := range []Client{p.anon, p.privileged, p.local} {
		if c == nil || seen[c] {
			continue
		}
		seen[c] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "close storage (%d errors)", len(errs))
	}
	return nil
}
