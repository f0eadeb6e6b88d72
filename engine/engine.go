// Package engine assembles the production services around one event bus
// and relays lifecycle events to logging, metrics and the outbox.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"prodflow/access"
	"prodflow/aggregate"
	"prodflow/catalog"
	"prodflow/config"
	"prodflow/metrics"
	"prodflow/operations"
	"prodflow/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	// Redis mirrors the path catalog when set.
	Redis   *redis.Client
	LogFunc LogFunc
}

type Engine struct {
	cfg        *config.Config
	db         *store.DB
	catalog    *catalog.Catalog
	access     *access.Resolver
	aggregator *aggregate.Aggregator
	operations *operations.Manager
	Events     *EventBus
	logFn      LogFunc
	subs       []SubscriberID
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	e := &Engine{
		cfg:    c.AppConfig,
		db:     c.DB,
		Events: NewEventBus(),
		logFn:  logFn,
	}
	e.Events.SetLogFunc(logFn)

	opts := []catalog.Option{
		catalog.WithLogFunc(catalog.LogFunc(logFn)),
		catalog.WithObserver(metrics.ObserveCatalogRefresh),
	}
	if c.AppConfig != nil && c.AppConfig.Catalog.TTL > 0 {
		opts = append(opts, catalog.WithTTL(c.AppConfig.Catalog.TTL))
	}
	if c.Redis != nil {
		opts = append(opts, catalog.WithMirror(catalog.NewRedisMirror(c.Redis)))
	}
	e.catalog = catalog.New(catalog.StoreSource{DB: c.DB}, opts...)

	e.access = access.NewResolver(c.DB)
	e.aggregator = aggregate.New(c.DB, e.catalog, &aggregateEmitter{bus: e.Events})
	e.aggregator.SetLogFunc(aggregate.LogFunc(logFn))
	e.operations = operations.NewManager(c.DB, e.catalog, e.access, e.aggregator, &operationEmitter{bus: e.Events})
	e.operations.SetLogFunc(operations.LogFunc(logFn))
	e.operations.SetObserver(metrics.ObserveTransition)
	return e
}

// Start wires event handlers and warms the path catalog. A failed warm-up is
// logged; the catalog keeps retrying on demand.
func (e *Engine) Start(ctx context.Context) {
	e.wireEventHandlers()

	warmCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.catalog.Refresh(warmCtx); err != nil {
		e.logFn("engine: catalog warm-up: %v", err)
	}

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	for _, id := range e.subs {
		e.Events.Unsubscribe(id)
	}
	e.subs = nil
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB { return e.db }
func (e *Engine) AppConfig() *config.Config { return e.cfg }
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }
func (e *Engine) Access() *access.Resolver { return e.access }
func (e *Engine) Aggregator() *aggregate.Aggregator { return e.aggregator }
func (e *Engine) Operations() *operations.Manager { return e.operations }
