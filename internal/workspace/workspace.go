// Package workspace orchestrates the itinerary-detail engine: the event
// collection, hotel options, pricing ledger, overrides and settings of one
// itinerary, with every mutation recomputing derived state and writing the
// changed slices through to storage.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
	"github.com/tripdesk/tripdesk/internal/store"
)

var (
	// ErrDayOutOfRange is returned for a day outside 1..duration.
	ErrDayOutOfRange = fmt.Errorf("%w: day outside itinerary duration", shared.ErrValidation)
	// ErrSubjectRequired is returned when an event has no subject and, for
	// accommodation, no hotel option to take one from.
	ErrSubjectRequired = fmt.Errorf("%w: subject is required", shared.ErrValidation)
	// ErrEventNotFound is returned when the addressed event is not on the day.
	ErrEventNotFound = fmt.Errorf("%w: event", shared.ErrNotFound)
	// ErrDuplicateEvent is returned when a new event reuses an id held by any day.
	ErrDuplicateEvent = fmt.Errorf("%w: event id already in use", shared.ErrValidation)
	// ErrInvalidAmount is returned for NaN or infinite amounts.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a finite number", shared.ErrValidation)
)

// SliceWriter persists the four workspace slices.
type SliceWriter interface {
	SaveEvents(ctx context.Context, id int64, byDay map[int][]planner.Event) error
	SaveLedger(ctx context.Context, id int64, entries map[pricing.Key]pricing.Entry) error
	SaveOverrides(ctx context.Context, id int64, overrides map[int]float64) error
	SaveSettings(ctx context.Context, id int64, settings pricing.Settings) error
}

// Metrics receives workspace instrumentation.
type Metrics interface {
	PersistenceFailure(slice string)
	ProposalsGenerated(count int)
}

type noopMetrics struct{}

func (noopMetrics) PersistenceFailure(string) {}
func (noopMetrics) ProposalsGenerated(int)    {}

// View is the read contract handed to the pricing and final views.
type View struct {
	Itinerary       itinerary.Itinerary           `json:"itinerary"`
	Days            []int                         `json:"days"`
	EventsByDay     map[int][]planner.Event       `json:"eventsByDay"`
	Ledger          map[pricing.Key]pricing.Entry `json:"ledger"`
	Overrides       map[int]float64               `json:"overrides"`
	Settings        pricing.Settings              `json:"settings"`
	MaxHotelOptions int                           `json:"maxHotelOptions"`
}

// Workspace is the in-memory state of one itinerary. In-memory state is
// authoritative: failed writes are logged and never roll a mutation back.
type Workspace struct {
	mu        sync.Mutex
	itinerary itinerary.Itinerary
	events    *planner.Collection
	options   *planner.OptionManager
	ledger    *pricing.Ledger
	overrides *pricing.Overrides
	settings  pricing.Settings
	stale     pricing.StalePolicy
	slices    SliceWriter
	logger    *slog.Logger
	metrics   Metrics
}

// Config carries the dependencies of a workspace.
type Config struct {
	Itinerary   itinerary.Itinerary
	Snapshot    store.Snapshot
	IDs         *shared.IDClock
	Options     *planner.OptionManager
	StalePolicy pricing.StalePolicy
	Slices      SliceWriter
	Logger      *slog.Logger
	Metrics     Metrics
}

// New builds a workspace from a loaded snapshot. Ledger rows missing for
// loaded options are seeded immediately.
func New(ctx context.Context, cfg Config) *Workspace {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Options == nil {
		cfg.Options = planner.NewOptionManager(planner.DefaultMaxHotelOptions)
	}
	w := &Workspace{
		itinerary: cfg.Itinerary,
		events:    planner.NewCollection(cfg.IDs),
		options:   cfg.Options,
		ledger:    pricing.NewLedger(),
		overrides: pricing.NewOverrides(),
		settings:  cfg.Snapshot.Settings,
		stale:     cfg.StalePolicy,
		slices:    cfg.Slices,
		logger:    cfg.Logger.With(slog.Int64("itinerary_id", cfg.Itinerary.ID)),
		metrics:   cfg.Metrics,
	}
	w.events.Load(cfg.Snapshot.Events)
	w.ledger.Load(cfg.Snapshot.Ledger)
	w.overrides.Load(cfg.Snapshot.Overrides)
	if w.ledger.InitializeFrom(w.events.ByDay()) > 0 {
		w.saveLedger(ctx)
	}
	return w
}

// ID returns the itinerary id.
func (w *Workspace) ID() int64 {
	return w.itinerary.ID
}

// View returns a copy of the full state.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{
		Itinerary:       w.itinerary,
		Days:            w.itinerary.Days(),
		EventsByDay:     w.events.ByDay(),
		Ledger:          w.ledger.Entries(),
		Overrides:       w.overrides.Map(),
		Settings:        w.settings,
		MaxHotelOptions: w.options.MaxOptions(),
	}
}

// Itinerary returns the anchoring record.
func (w *Workspace) Itinerary() itinerary.Itinerary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.itinerary
}

// SetItinerary swaps the anchoring record after a backend update.
func (w *Workspace) SetItinerary(it itinerary.Itinerary) {
	w.mu.Lock()
	w.itinerary = it
	w.mu.Unlock()
}

// Events returns the events of day.
func (w *Workspace) Events(day int) []planner.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.events.Events(day)
}

// AddEvent validates ev and appends it to day, assigning an id when ev has
// none. Explicit ids must be unique across all days. Options carried by an
// accommodation draft are attached one by one through the option manager so
// they are numbered and capped like form additions.
func (w *Workspace) AddEvent(ctx context.Context, day int, ev planner.Event) (planner.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return planner.Event{}, err
	}
	if err := ev.Normalize(); err != nil {
		return planner.Event{}, err
	}
	if ev.ID != 0 {
		if _, exists := w.events.DayOf(ev.ID); exists {
			return planner.Event{}, ErrDuplicateEvent
		}
	}
	drafts := ev.HotelOptions()
	if ev.IsAccommodation() {
		if strings.TrimSpace(ev.Subject) == "" && len(drafts) == 0 {
			return planner.Event{}, ErrSubjectRequired
		}
		ev.Payload = planner.Accommodation{}
		for _, d := range drafts {
			if _, err := w.options.AddOption(&ev, d); err != nil {
				return planner.Event{}, err
			}
		}
		if strings.TrimSpace(ev.Subject) == "" && len(drafts) > 0 {
			ev.Subject = drafts[0].HotelName
		}
	} else if strings.TrimSpace(ev.Subject) == "" {
		return planner.Event{}, ErrSubjectRequired
	}
	added, _ := w.events.Add(day, ev)
	w.eventsChanged(ctx)
	return added, nil
}

// UpdateEvent replaces the event with ev.ID on day, keeping its position.
// The kind can't change, and the hotel options of an accommodation event are
// kept: they are edited through the option operations only.
func (w *Workspace) UpdateEvent(ctx context.Context, day int, ev planner.Event) (planner.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return planner.Event{}, err
	}
	current, ok := w.events.Find(day, ev.ID)
	if !ok {
		return planner.Event{}, ErrEventNotFound
	}
	if ev.Kind != current.Kind {
		return planner.Event{}, planner.ErrKindImmutable
	}
	if err := ev.Normalize(); err != nil {
		return planner.Event{}, err
	}
	if ev.IsAccommodation() {
		ev.Payload = current.Payload
	} else if strings.TrimSpace(ev.Subject) == "" {
		return planner.Event{}, ErrSubjectRequired
	}
	if _, err := w.events.Update(day, ev); err != nil {
		return planner.Event{}, err
	}
	w.eventsChanged(ctx)
	return ev.Clone(), nil
}

// RemoveEvent deletes id from day. Its ledger rows follow the stale policy.
func (w *Workspace) RemoveEvent(ctx context.Context, day int, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return err
	}
	if !w.events.Remove(day, id) {
		return ErrEventNotFound
	}
	w.eventsChanged(ctx)
	return nil
}

// MoveEvent reorders id within day.
func (w *Workspace) MoveEvent(ctx context.Context, day int, id int64, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return err
	}
	if !w.events.Move(day, id, to) {
		return ErrEventNotFound
	}
	w.eventsChanged(ctx)
	return nil
}

// AddOption attaches draft to the accommodation event id on day.
func (w *Workspace) AddOption(ctx context.Context, day int, id int64, draft planner.Option) (planner.Option, error) {
	return w.editOptions(ctx, day, id, func(ev *planner.Event) (planner.Option, error) {
		return w.options.AddOption(ev, draft)
	})
}

// UpdateOption replaces the option at index, keeping its number.
func (w *Workspace) UpdateOption(ctx context.Context, day int, id int64, index int, draft planner.Option) (planner.Option, error) {
	return w.editOptions(ctx, day, id, func(ev *planner.Event) (planner.Option, error) {
		return w.options.UpdateOption(ev, index, draft)
	})
}

// RemoveOption deletes the option at index without renumbering the rest.
func (w *Workspace) RemoveOption(ctx context.Context, day int, id int64, index int) (planner.Option, error) {
	return w.editOptions(ctx, day, id, func(ev *planner.Event) (planner.Option, error) {
		return w.options.RemoveOption(ev, index)
	})
}

func (w *Workspace) editOptions(ctx context.Context, day int, id int64, edit func(*planner.Event) (planner.Option, error)) (planner.Option, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return planner.Option{}, err
	}
	ev, ok := w.events.Find(day, id)
	if !ok {
		return planner.Option{}, ErrEventNotFound
	}
	opt, err := edit(&ev)
	if err != nil {
		return planner.Option{}, err
	}
	if _, err := w.events.Update(day, ev); err != nil {
		return planner.Option{}, err
	}
	w.eventsChanged(ctx)
	return opt, nil
}

// QuickAddHotel synthesizes a one-option accommodation event on day.
func (w *Workspace) QuickAddHotel(ctx context.Context, day int, req planner.QuickAdd) (planner.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkDay(day); err != nil {
		return planner.Event{}, err
	}
	ev, err := w.options.QuickAddHotel(w.events, day, req)
	if err != nil {
		return planner.Event{}, err
	}
	w.eventsChanged(ctx)
	return ev, nil
}

// Ledger returns every pricing row.
func (w *Workspace) Ledger() map[pricing.Key]pricing.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Entries()
}

// SetPricing writes net and/or markup at key; gross follows.
func (w *Workspace) SetPricing(ctx context.Context, key pricing.Key, net, markup *float64) (pricing.Entry, error) {
	if net == nil && markup == nil {
		return pricing.Entry{}, fmt.Errorf("%w: net or markup required", shared.ErrValidation)
	}
	if (net != nil && !finite(*net)) || (markup != nil && !finite(*markup)) {
		return pricing.Entry{}, ErrInvalidAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var entry pricing.Entry
	if net != nil {
		entry = w.ledger.SetNet(key, *net)
	}
	if markup != nil {
		entry = w.ledger.SetMarkup(key, *markup)
	}
	w.saveLedger(ctx)
	return entry, nil
}

// SetOverride stores or, for nil, clears the final price of optionNumber.
func (w *Workspace) SetOverride(ctx context.Context, optionNumber int, price *float64) error {
	if optionNumber < 1 {
		return fmt.Errorf("%w: option number must be positive", shared.ErrValidation)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overrides.Set(optionNumber, price)
	w.saveOverrides(ctx)
	return nil
}

// Settings returns the markup and tax settings.
func (w *Workspace) Settings() pricing.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// UpdateSettings replaces the settings.
func (w *Workspace) UpdateSettings(ctx context.Context, s pricing.Settings) pricing.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = s
	w.saveSettings(ctx)
	return w.settings
}

// RollupInput captures what the proposal generator reads. Under the prune
// policy dead ledger rows are dropped first.
func (w *Workspace) RollupInput(ctx context.Context) proposals.Input {
	w.mu.Lock()
	defer w.mu.Unlock()
	byDay := w.events.ByDay()
	if w.stale == pricing.StalePrune {
		if removed := w.ledger.Prune(byDay); removed > 0 {
			w.logger.Info("pruned stale ledger rows", slog.Int("count", removed))
			w.saveLedger(ctx)
		}
	}
	return proposals.Input{
		Itinerary:   w.itinerary,
		EventsByDay: byDay,
		Ledger:      w.ledger.Entries(),
		Overrides:   w.overrides.Map(),
		Settings:    w.settings,
	}
}

func (w *Workspace) checkDay(day int) error {
	if day < 1 {
		return planner.ErrNoDaySelected
	}
	if !w.itinerary.HasDay(day) {
		return ErrDayOutOfRange
	}
	return nil
}

// eventsChanged is the recompute step every event mutation ends with: seed
// ledger rows for new options, then write the changed slices through.
func (w *Workspace) eventsChanged(ctx context.Context) {
	seeded := w.ledger.InitializeFrom(w.events.ByDay())
	w.saveEvents(ctx)
	if seeded > 0 {
		w.saveLedger(ctx)
	}
}

func (w *Workspace) saveEvents(ctx context.Context) {
	w.persisted(store.SliceEvents, w.slices.SaveEvents(ctx, w.itinerary.ID, w.events.ByDay()))
}

func (w *Workspace) saveLedger(ctx context.Context) {
	w.persisted(store.SlicePricing, w.slices.SaveLedger(ctx, w.itinerary.ID, w.ledger.Entries()))
}

func (w *Workspace) saveOverrides(ctx context.Context) {
	w.persisted(store.SliceOverrides, w.slices.SaveOverrides(ctx, w.itinerary.ID, w.overrides.Map()))
}

func (w *Workspace) saveSettings(ctx context.Context) {
	w.persisted(store.SliceSettings, w.slices.SaveSettings(ctx, w.itinerary.ID, w.settings))
}

func (w *Workspace) persisted(slice store.Slice, err error) {
	if err == nil {
		return
	}
	w.metrics.PersistenceFailure(string(slice))
	w.logger.Error("write-through failed", slog.String("slice", string(slice)), slog.Any("error", err))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
