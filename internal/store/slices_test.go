package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func TestSlicesRoundTripWithFreshAdapter(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	writer := NewSlices(backend, quietLogger())

	p := 5000.0
	events := map[int][]planner.Event{
		1: {{
			ID:      100,
			Kind:    planner.KindAccommodation,
			Subject: "Stay",
			Payload: planner.Accommodation{HotelOptions: []planner.Option{{HotelName: "Harbour View", Price: &p, OptionNumber: 1}}},
		}},
		2: {{ID: 101, Kind: planner.KindMeal, Subject: "Dinner", Payload: planner.Meal{MealType: "dinner"}}},
	}
	ledger := map[pricing.Key]pricing.Entry{{OptionNumber: 1, Day: 1, Index: 0}: {Net: 5000, Markup: 500, Gross: 5500}}
	settings := pricing.Settings{BaseMarkupPct: 12, CGSTPct: 2.5, SGSTPct: 2.5}

	require.NoError(t, writer.SaveEvents(ctx, 42, events))
	require.NoError(t, writer.SaveLedger(ctx, 42, ledger))
	require.NoError(t, writer.SaveOverrides(ctx, 42, map[int]float64{1: 6000}))
	require.NoError(t, writer.SaveSettings(ctx, 42, settings))

	snap, err := NewSlices(backend, quietLogger()).Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, events, snap.Events)
	assert.Equal(t, ledger, snap.Ledger)
	require.NotNil(t, snap.Overrides[1])
	assert.Equal(t, 6000.0, *snap.Overrides[1])
	assert.Equal(t, settings, snap.Settings)
}

func TestSlicesLoadAbsentDefaultsToEmpty(t *testing.T) {
	snap, err := NewSlices(NewMemoryStore(), quietLogger()).Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.Ledger)
	assert.Empty(t, snap.Overrides)
	assert.Equal(t, pricing.Settings{}, snap.Settings)
}

func TestSlicesCorruptSliceIsDiscarded(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	require.NoError(t, backend.Save(ctx, Key(7, SliceEvents), []byte("{not json")))
	require.NoError(t, backend.Save(ctx, Key(7, SliceSettings), []byte(`{"tcsPct":5}`)))

	snap, err := NewSlices(backend, quietLogger()).Load(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
	assert.Equal(t, 5.0, snap.Settings.TCSPct)
}

func TestSlicesPartiallyDecodableSliceIsDiscardedWhole(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	events := `{"1":[{"id":1,"kind":"meal","subject":"Lunch"}],"2":[{"id":2,"kind":"bogus"}]}`
	require.NoError(t, backend.Save(ctx, Key(42, SliceEvents), []byte(events)))
	require.NoError(t, backend.Save(ctx, Key(42, SliceSettings), []byte(`{"tcsPct":5,"cgstPct":"x"}`)))
	require.NoError(t, backend.Save(ctx, Key(42, SliceOverrides), []byte(`{"1":6000,"2":"high"}`)))

	snap, err := NewSlices(backend, quietLogger()).Load(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, snap.Events)
	assert.Empty(t, snap.Events)
	assert.Equal(t, pricing.Settings{}, snap.Settings)
	assert.NotNil(t, snap.Overrides)
	assert.Empty(t, snap.Overrides)
}

func TestSlicesStoreFailures(t *testing.T) {
	s := NewSlices(failingStore{}, quietLogger())

	_, err := s.Load(context.Background(), 1)
	assert.ErrorIs(t, err, shared.ErrPersistence)

	err = s.SaveSettings(context.Background(), 1, pricing.Settings{})
	assert.ErrorIs(t, err, shared.ErrPersistence)
}

func TestSlicesProposals(t *testing.T) {
	ctx := context.Background()
	s := NewSlices(NewMemoryStore(), quietLogger())

	list, err := s.LoadProposals(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	stored := []proposals.Proposal{{ID: "1-1", OptionNumber: 1, Price: 180, CreatedAt: created, HotelDetails: []proposals.HotelDetail{}}}
	require.NoError(t, s.SaveProposals(ctx, 42, stored))

	list, err = s.LoadProposals(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, stored, list)
}
