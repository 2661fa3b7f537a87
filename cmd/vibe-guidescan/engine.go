package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/bam"
	"github.com/inodb/vibe-guidescan/internal/duckdb"
	"github.com/inodb/vibe-guidescan/internal/query"
)

// openStore opens the metadata database named by the config.
func (a *app) openStore() (*duckdb.Store, error) {
	store, err := duckdb.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store.SetLogger(a.logger)
	return store, nil
}

// newEngine wires the configured guide backend, the metadata store and the
// query settings into an Engine. The returned store must be closed by the caller.
func (a *app) newEngine() (*query.Engine, *duckdb.Store, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}

	var genome query.GenomeStore = store
	if a.cfg.Guides.Backend == "bam" {
		bs := bam.NewStore(a.cfg.GuidePath)
		bs.SetLogger(a.logger)
		genome = bs
	}

	engine, err := query.NewEngine(query.Stores{
		Genome:      genome,
		Names:       store,
		Annotations: store,
		Lookup:      store,
	}, a.settings())
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	engine.SetLogger(a.logger)

	a.logger.Debug("query engine ready",
		zap.String("backend", a.cfg.Guides.Backend),
		zap.String("database", store.Path()))
	return engine, store, nil
}

func (a *app) settings() query.Settings {
	return query.Settings{
		Enzymes:          a.cfg.EnzymeSet(),
		Offset:           a.cfg.OffsetFor,
		SummaryDistances: a.cfg.Query.SummaryDistances,
		MaxMismatches:    a.cfg.Query.MaxMismatches,
		Workers:          a.cfg.Query.Workers,
		CacheSize:        a.cfg.Query.CacheSize,
	}
}

// staticNames serves a chromosome-name registry loaded outside the database.
type staticNames map[string]string

func (n staticNames) ChromosomeNames(context.Context, string) (map[string]string, error) {
	return n, nil
}
