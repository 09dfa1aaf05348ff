// Package mergejoin joins the instrument catalog with one account's holdings
// into a materialized holdings view.
//
// The join only ever adds or updates keys. An instrument that later drops out
// of the catalog, or a holding that drops out of the holdings feed, keeps its
// merged entry for the lifetime of the engine.
package mergejoin

import (
	"context"
	"sync"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

// Sink receives the whole view after every applied snapshot. It runs with
// the engine lock held, so a slow sink holds back both feeds.
type Sink func(ctx context.Context, view []models.MergedHolding) error

type Option func(e *Engine)

func WithCatalogKey(fn func(models.Instrument) string) Option {
	return func(e *Engine) { e.catalogKey = fn }
}

func WithHoldingKey(fn func(models.Holding) string) Option {
	return func(e *Engine) { e.holdingKey = fn }
}

func instrumentKey(i models.Instrument) string { return i.ID }

func holdingKey(h models.Holding) string {
	if h.InstrumentID != "" {
		return h.InstrumentID
	}
	return h.ID
}

type Engine struct {
	sink       Sink
	catalogKey func(models.Instrument) string
	holdingKey func(models.Holding) string

	mu    sync.Mutex
	index map[string]*models.MergedHolding
	order []string
}

func New(sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sink:       sink,
		catalogKey: instrumentKey,
		holdingKey: holdingKey,
		index:      make(map[string]*models.MergedHolding),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// entry must be called with mu held.
func (e *Engine) entry(key string) *models.MergedHolding {
	if m, ok := e.index[key]; ok {
		return m
	}
	m := &models.MergedHolding{InstrumentID: key}
	e.index[key] = m
	e.order = append(e.order, key)
	return m
}

// ApplyCatalog attaches every instrument of the snapshot to its entry and
// emits the view. Quantities and holding ids already recorded are kept.
func (e *Engine) ApplyCatalog(ctx context.Context, instruments []models.Instrument) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, inst := range instruments {
		key := e.catalogKey(inst)
		if key == "" {
			continue
		}
		m := e.entry(key)
		cp := inst.Clone()
		m.Instrument = &cp
	}
	return e.emit(ctx)
}

// ApplyHoldings records id and quantity of every holding of the snapshot and
// emits the view. Attached instruments are kept.
func (e *Engine) ApplyHoldings(ctx context.Context, holdings []models.Holding) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, h := range holdings {
		key := e.holdingKey(h)
		if key == "" {
			continue
		}
		m := e.entry(key)
		m.ID = h.ID
		m.Quantity = h.Quantity
	}
	return e.emit(ctx)
}

func (e *Engine) emit(ctx context.Context) error {
	if e.sink == nil {
		return nil
	}
	return e.sink(ctx, e.view())
}

func (e *Engine) view() []models.MergedHolding {
	out := make([]models.MergedHolding, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.index[key].Clone())
	}
	return out
}

// View returns a copy of the current view in insertion order.
func (e *Engine) View() []models.MergedHolding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view()
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}
