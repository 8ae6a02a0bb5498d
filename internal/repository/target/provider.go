package target

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/kailas-cloud/searchmesh/internal/config"
	"github.com/kailas-cloud/searchmesh/internal/domain"
	domtarget "github.com/kailas-cloud/searchmesh/internal/domain/target"
)

// Provider owns the connection pool for every federated database and resolves
// which targets a caller may search. Targets are read-only from the
// orchestrator's perspective.
type Provider struct {
	handles map[string]*sql.DB
	targets map[string]domtarget.Target
	// order preserves the configured database order for deterministic fan-out.
	order  []string
	owned  map[string][]string // callerID -> owned database ids
	logger *zap.Logger
}

// NewProvider opens one connection pool per configured database.
func NewProvider(databases []config.Database, callers []config.Caller, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Provider{
		handles: make(map[string]*sql.DB, len(databases)),
		targets: make(map[string]domtarget.Target, len(databases)),
		owned:   make(map[string][]string, len(callers)),
		logger:  logger,
	}

	for _, dbCfg := range databases {
		handle, err := sql.Open("sqlite", dbCfg.DSN)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open database %s: %w", dbCfg.ID, err)
		}
		// One writer at a time keeps SQLite happy; searches are read-only anyway.
		handle.SetMaxOpenConns(4)

		tables := make([]domtarget.Table, len(dbCfg.Tables))
		for i, t := range dbCfg.Tables {
			tables[i] = domtarget.NewTable(t.Name, t.Columns, t.TitleColumn)
		}

		p.handles[dbCfg.ID] = handle
		p.targets[dbCfg.ID] = domtarget.New(dbCfg.ID, tables)
		p.order = append(p.order, dbCfg.ID)
	}

	for _, c := range callers {
		ids := c.Databases
		if len(ids) == 0 {
			// No explicit grant means the caller owns every database.
			ids = p.order
		}
		p.owned[c.ID] = ids
	}

	return p, nil
}

// Targets resolves the databases a search call fans out to. An empty requested
// list means all databases owned by the caller. A requested id the caller does
// not own fails with domain.ErrNotFound.
func (p *Provider) Targets(callerID string, requested []string) ([]domtarget.Target, error) {
	owned, ok := p.owned[callerID]
	if !ok {
		// Unknown caller identity owns nothing; treat as full grant only when
		// no callers are configured at all (auth disabled).
		if len(p.owned) > 0 {
			return nil, fmt.Errorf("caller %s: %w", callerID, domain.ErrNotFound)
		}
		owned = p.order
	}

	ownedSet := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	if len(requested) == 0 {
		requested = owned
	}

	targets := make([]domtarget.Target, 0, len(requested))
	for _, id := range requested {
		if _, ok := ownedSet[id]; !ok {
			return nil, fmt.Errorf("database %s: %w", id, domain.ErrNotFound)
		}
		t, ok := p.targets[id]
		if !ok {
			return nil, fmt.Errorf("database %s: %w", id, domain.ErrNotFound)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Handle returns the connection pool for a database id.
func (p *Provider) Handle(id string) (*sql.DB, bool) {
	h, ok := p.handles[id]
	return h, ok
}

// Ping verifies connectivity to every database.
func (p *Provider) Ping(ctx context.Context) error {
	for _, id := range p.order {
		if err := p.handles[id].PingContext(ctx); err != nil {
			return fmt.Errorf("ping database %s: %w", id, err)
		}
	}
	return nil
}

// Close releases every connection pool.
func (p *Provider) Close() {
	for id, h := range p.handles {
		if err := h.Close(); err != nil {
			p.logger.Warn("close database", zap.String("database", id), zap.Error(err))
		}
	}
}
