package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
)

// Snapshot is the decoded state of the four workspace slices.
type Snapshot struct {
	Events    map[int][]planner.Event
	Ledger    map[pricing.Key]pricing.Entry
	Overrides map[int]*float64
	Settings  pricing.Settings
}

// Slices serializes workspace state into itinerary-keyed slices. Every save
// rewrites the whole slice.
type Slices struct {
	store  Store
	logger *slog.Logger
}

// NewSlices constructs the adapter.
func NewSlices(s Store, logger *slog.Logger) *Slices {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slices{store: s, logger: logger}
}

// Load reads every workspace slice of id independently. Absent slices
// default to empty values; a slice that fails to decode is logged and
// treated as absent. Only store read failures are returned.
func (s *Slices) Load(ctx context.Context, id int64) (Snapshot, error) {
	snap := Snapshot{
		Events:    map[int][]planner.Event{},
		Ledger:    map[pricing.Key]pricing.Entry{},
		Overrides: map[int]*float64{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.read(gctx, id, SliceEvents, &snap.Events) })
	g.Go(func() error { return s.read(gctx, id, SlicePricing, &snap.Ledger) })
	g.Go(func() error { return s.read(gctx, id, SliceOverrides, &snap.Overrides) })
	g.Go(func() error { return s.read(gctx, id, SliceSettings, &snap.Settings) })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveEvents rewrites the events slice.
func (s *Slices) SaveEvents(ctx context.Context, id int64, byDay map[int][]planner.Event) error {
	return s.write(ctx, id, SliceEvents, byDay)
}

// SaveLedger rewrites the pricing slice.
func (s *Slices) SaveLedger(ctx context.Context, id int64, entries map[pricing.Key]pricing.Entry) error {
	return s.write(ctx, id, SlicePricing, entries)
}

// SaveOverrides rewrites the final price slice.
func (s *Slices) SaveOverrides(ctx context.Context, id int64, overrides map[int]float64) error {
	return s.write(ctx, id, SliceOverrides, overrides)
}

// SaveSettings rewrites the settings slice.
func (s *Slices) SaveSettings(ctx context.Context, id int64, settings pricing.Settings) error {
	return s.write(ctx, id, SliceSettings, settings)
}

// LoadProposals reads the stored proposal list of id.
func (s *Slices) LoadProposals(ctx context.Context, id int64) ([]proposals.Proposal, error) {
	list := []proposals.Proposal{}
	if err := s.read(ctx, id, SliceProposals, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []proposals.Proposal{}
	}
	return list, nil
}

// SaveProposals rewrites the proposal list of id.
func (s *Slices) SaveProposals(ctx context.Context, id int64, list []proposals.Proposal) error {
	return s.write(ctx, id, SliceProposals, list)
}

func (s *Slices) read(ctx context.Context, id int64, slice Slice, dest any) error {
	key := Key(id, slice)
	raw, found, err := s.store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", shared.ErrPersistence, key, err)
	}
	if !found || len(raw) == 0 {
		return nil
	}
	// Decode into a fresh value so a failure midway leaves dest untouched.
	target := reflect.ValueOf(dest).Elem()
	fresh := reflect.New(target.Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		s.logger.Warn("discarding undecodable slice", slog.String("key", key), slog.Any("error", err))
		return nil
	}
	target.Set(fresh.Elem())
	return nil
}

func (s *Slices) write(ctx context.Context, id int64, slice Slice, value any) error {
	key := Key(id, slice)
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", shared.ErrPersistence, key, err)
	}
	if err := s.store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: save %s: %v", shared.ErrPersistence, key, err)
	}
	return nil
}
