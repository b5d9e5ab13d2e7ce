package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk/internal/catalog"
	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/proposals"
	"github.com/tripdesk/tripdesk/internal/shared"
	"github.com/tripdesk/tripdesk/internal/store"
)

type fakeSource struct {
	mu    sync.Mutex
	items map[int64]itinerary.Itinerary
	gets  int
	gates map[int64]*sourceGate
}

// sourceGate holds Get for one id until release is closed.
type sourceGate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *fakeSource) hold(id int64) *sourceGate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = make(map[int64]*sourceGate)
	}
	g := &sourceGate{entered: make(chan struct{}), release: make(chan struct{})}
	f.gates[id] = g
	return g
}

func (f *fakeSource) put(it itinerary.Itinerary) {
	f.mu.Lock()
	f.items[it.ID] = it
	f.mu.Unlock()
}

func (f *fakeSource) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func newFakeSource(its ...itinerary.Itinerary) *fakeSource {
	f := &fakeSource{items: make(map[int64]itinerary.Itinerary)}
	for _, it := range its {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeSource) Get(ctx context.Context, id int64) (itinerary.Itinerary, error) {
	f.mu.Lock()
	f.gets++
	it, ok := f.items[id]
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		gate.once.Do(func() { close(gate.entered) })
		select {
		case <-gate.release:
		case <-ctx.Done():
			return itinerary.Itinerary{}, ctx.Err()
		}
	}
	if !ok {
		return itinerary.Itinerary{}, shared.ErrNotFound
	}
	return it, nil
}

func (f *fakeSource) Update(_ context.Context, id int64, u itinerary.Update) (itinerary.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return itinerary.Itinerary{}, shared.ErrNotFound
	}
	if u.Image != nil {
		it.Image = *u.Image
	}
	if u.Terms != nil {
		it.Terms = *u.Terms
	}
	f.items[id] = it
	return it, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	failures  map[string]int
	generated int
}

func (m *fakeMetrics) PersistenceFailure(slice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[slice]++
}

func (m *fakeMetrics) ProposalsGenerated(n int) {
	m.mu.Lock()
	m.generated += n
	m.mu.Unlock()
}

type brokenStore struct{ *store.MemoryStore }

func (brokenStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

type fakeHotels map[string]catalog.Hotel

func (f fakeHotels) Hotel(_ context.Context, id string) (catalog.Hotel, error) {
	h, ok := f[id]
	if !ok {
		return catalog.Hotel{}, shared.ErrNotFound
	}
	return h, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(v float64) *float64 { return &v }

var kerala = itinerary.Itinerary{ID: 42, Name: "Kerala Escape", DurationDays: 3, Destinations: []string{"Kochi", "Munnar"}}

type harness struct {
	svc     *Service
	backend *store.MemoryStore
	source  *fakeSource
	metrics *fakeMetrics
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	backend := store.NewMemoryStore()
	source := newFakeSource(kerala)
	metrics := &fakeMetrics{}
	svc := NewService(source, store.NewSlices(backend, quietLogger()), fakeHotels{
		"h-7": {ID: "h-7", Name: "Backwater Lodge", City: "Alleppey", StarCategory: "4"},
	}, opts, quietLogger(), metrics)
	return &harness{svc: svc, backend: backend, source: source, metrics: metrics}
}

func (h *harness) open(t *testing.T) *Workspace {
	t.Helper()
	ws, err := h.svc.Open(context.Background(), 42)
	require.NoError(t, err)
	return ws
}

func accommodation(subject string) planner.Event {
	ev, _ := planner.NewEvent(planner.KindAccommodation, subject)
	return ev
}

func TestOptionNumbersSurviveSiblingDelete(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)

	ev, err := ws.AddEvent(ctx, 1, accommodation("Kochi stay"))
	require.NoError(t, err)

	a, err := ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "A"})
	require.NoError(t, err)
	b, err := ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "B"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.OptionNumber)
	assert.Equal(t, 2, b.OptionNumber)

	_, err = ws.RemoveOption(ctx, 1, ev.ID, 0)
	require.NoError(t, err)

	opts := ws.Events(1)[0].HotelOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, "B", opts[0].HotelName)
	assert.Equal(t, 2, opts[0].OptionNumber)
}

func TestQuickAddRespectsConfiguredCap(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{MaxHotelOptions: 1}).open(t)

	first, err := ws.QuickAddHotel(ctx, 2, planner.QuickAdd{Source: planner.SourceSearch, Hotel: planner.HotelPick{Name: "Tea Hills"}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.HotelOptions()[0].OptionNumber)

	_, err = ws.QuickAddHotel(ctx, 2, planner.QuickAdd{Source: planner.SourceSearch, Hotel: planner.HotelPick{Name: "Misty Peaks"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrLimitExceeded)
	assert.Equal(t, "you can only add up to 1 hotel options", err.Error())
	assert.Len(t, ws.Events(2), 1)
}

func TestAddRemoveRoundTripEveryDay(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)

	for _, day := range kerala.Days() {
		_, err := ws.AddEvent(ctx, day, planner.Event{Kind: planner.KindMeal, Subject: "Breakfast", Payload: planner.Meal{MealType: "breakfast"}})
		require.NoError(t, err)
		before := ws.Events(day)

		ev, err := ws.AddEvent(ctx, day, planner.Event{Kind: planner.KindActivity, Subject: "Boat ride"})
		require.NoError(t, err)
		require.NoError(t, ws.RemoveEvent(ctx, day, ev.ID))

		assert.Equal(t, before, ws.Events(day), "day %d", day)
	}
}

func TestDayGuards(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)
	meal := planner.Event{Kind: planner.KindMeal, Subject: "Lunch"}

	_, err := ws.AddEvent(ctx, 0, meal)
	assert.ErrorIs(t, err, planner.ErrNoDaySelected)
	_, err = ws.AddEvent(ctx, 4, meal)
	assert.ErrorIs(t, err, ErrDayOutOfRange)
	_, err = ws.QuickAddHotel(ctx, 0, planner.QuickAdd{Source: planner.SourceSearch, Hotel: planner.HotelPick{Name: "X"}})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, ws.View().EventsByDay)
}

func TestAddEventValidation(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)

	_, err := ws.AddEvent(ctx, 1, planner.Event{Kind: planner.KindActivity, Subject: "  "})
	assert.ErrorIs(t, err, ErrSubjectRequired)

	_, err = ws.AddEvent(ctx, 1, planner.Event{Kind: "spa"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	draft := accommodation("")
	draft.Payload = planner.Accommodation{HotelOptions: []planner.Option{{HotelName: "A", OptionNumber: 9}, {HotelName: "B"}}}
	ev, err := ws.AddEvent(ctx, 1, draft)
	require.NoError(t, err)
	assert.Equal(t, "A", ev.Subject)
	assert.Equal(t, 1, ev.HotelOptions()[0].OptionNumber)
	assert.Equal(t, 2, ev.HotelOptions()[1].OptionNumber)

	dup := planner.Event{ID: ev.ID, Kind: planner.KindMeal, Subject: "Dinner"}
	_, err = ws.AddEvent(ctx, 1, dup)
	assert.ErrorIs(t, err, ErrDuplicateEvent)
	_, err = ws.AddEvent(ctx, 2, dup)
	assert.ErrorIs(t, err, ErrDuplicateEvent)
	assert.Empty(t, ws.Events(2))

	_, err = ws.AddEvent(ctx, 2, accommodation("  "))
	assert.ErrorIs(t, err, ErrSubjectRequired)
	assert.Empty(t, ws.Events(2))

	_, err = ws.AddOption(ctx, 1, ev.ID, planner.Option{})
	assert.ErrorIs(t, err, planner.ErrHotelNameRequired)
}

func TestUpdateEventKeepsKindAndOptions(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)

	ev, err := ws.AddEvent(ctx, 1, accommodation("Stay"))
	require.NoError(t, err)
	_, err = ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "A"})
	require.NoError(t, err)

	_, err = ws.UpdateEvent(ctx, 1, planner.Event{ID: ev.ID, Kind: planner.KindMeal, Subject: "Stay"})
	assert.ErrorIs(t, err, planner.ErrKindImmutable)

	edit := accommodation("Renamed stay")
	edit.ID = ev.ID
	updated, err := ws.UpdateEvent(ctx, 1, edit)
	require.NoError(t, err)
	assert.Equal(t, "Renamed stay", updated.Subject)
	require.Len(t, updated.HotelOptions(), 1)

	_, err = ws.UpdateEvent(ctx, 1, planner.Event{ID: 999, Kind: planner.KindMeal, Subject: "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMoveEvent(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)
	a, _ := ws.AddEvent(ctx, 1, planner.Event{Kind: planner.KindMeal, Subject: "a"})
	b, _ := ws.AddEvent(ctx, 1, planner.Event{Kind: planner.KindMeal, Subject: "b"})

	require.NoError(t, ws.MoveEvent(ctx, 1, b.ID, 0))
	events := ws.Events(1)
	assert.Equal(t, b.ID, events[0].ID)
	assert.Equal(t, a.ID, events[1].ID)
	assert.ErrorIs(t, ws.MoveEvent(ctx, 1, 12345, 0), ErrEventNotFound)
}

func TestLedgerSeededAndEditable(t *testing.T) {
	ctx := context.Background()
	ws := newHarness(t, Options{}).open(t)

	ev, err := ws.AddEvent(ctx, 1, accommodation("Stay"))
	require.NoError(t, err)
	_, err = ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "A", Price: price(4000)})
	require.NoError(t, err)

	key := pricing.Key{OptionNumber: 1, Day: 1, Index: 0}
	assert.Equal(t, pricing.Entry{Net: 4000, Gross: 4000}, ws.Ledger()[key])

	_, err = ws.SetPricing(ctx, key, price(100), nil)
	require.NoError(t, err)
	entry, err := ws.SetPricing(ctx, key, nil, price(20))
	require.NoError(t, err)
	assert.Equal(t, 120.0, entry.Gross)

	_, err = ws.SetPricing(ctx, key, nil, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestStateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	ws := h.open(t)

	ev, err := ws.AddEvent(ctx, 1, accommodation("Stay"))
	require.NoError(t, err)
	_, err = ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "A", Price: price(4000)})
	require.NoError(t, err)
	_, err = ws.SetPricing(ctx, pricing.Key{OptionNumber: 1, Day: 1}, nil, price(500))
	require.NoError(t, err)
	require.NoError(t, ws.SetOverride(ctx, 1, price(4200)))
	ws.UpdateSettings(ctx, pricing.Settings{CGSTPct: 2.5, SGSTPct: 2.5})
	before := ws.View()

	h.svc.Evict(42)
	reloaded := h.open(t)
	assert.NotSame(t, ws, reloaded)
	assert.Equal(t, before, reloaded.View())

	next, err := reloaded.AddEvent(ctx, 1, planner.Event{Kind: planner.KindMeal, Subject: "Dinner"})
	require.NoError(t, err)
	assert.Greater(t, next.ID, ev.ID)
}

func TestWriteFailuresAreLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	metrics := &fakeMetrics{}
	svc := NewService(newFakeSource(kerala), store.NewSlices(brokenStore{store.NewMemoryStore()}, quietLogger()), nil, Options{}, quietLogger(), metrics)
	ws, err := svc.Open(ctx, 42)
	require.NoError(t, err)

	_, err = ws.AddEvent(ctx, 1, planner.Event{Kind: planner.KindMeal, Subject: "Dinner"})
	require.NoError(t, err)
	require.NoError(t, ws.SetOverride(ctx, 1, price(10)))

	assert.Len(t, ws.Events(1), 1)
	assert.Equal(t, 1, metrics.failures["events"])
	assert.Equal(t, 1, metrics.failures["final_prices"])
}

func TestOpenUnknownItinerary(t *testing.T) {
	_, err := newHarness(t, Options{}).svc.Open(context.Background(), 7)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOpenCachesWorkspace(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Same(t, h.open(t), h.open(t))
	assert.Equal(t, 1, h.source.getCount())
}

func TestOpenLoadsItinerariesIndependently(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h := newHarness(t, Options{})
	munnar := kerala
	munnar.ID = 43
	munnar.Name = "Munnar Hills"
	h.source.put(munnar)
	gate := h.source.hold(42)

	type opened struct {
		ws  *Workspace
		err error
	}
	slow := make(chan opened, 2)
	for i := 0; i < 2; i++ {
		go func() {
			ws, err := h.svc.Open(ctx, 42)
			slow <- opened{ws, err}
		}()
	}
	<-gate.entered

	fast := make(chan opened, 1)
	go func() {
		ws, err := h.svc.Open(ctx, 43)
		fast <- opened{ws, err}
	}()
	select {
	case got := <-fast:
		require.NoError(t, got.err)
		assert.Equal(t, "Munnar Hills", got.ws.Itinerary().Name)
	case <-time.After(2 * time.Second):
		t.Fatal("open of another itinerary waited on a pending load")
	}

	close(gate.release)
	first, second := <-slow, <-slow
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Same(t, first.ws, second.ws)
	assert.Equal(t, 2, h.source.getCount())
}

func TestGenerateProposals(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	ws := h.open(t)

	result, err := h.svc.GenerateProposals(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, result.Generated)
	assert.Equal(t, "no pricing data available", result.Message)

	d1, _ := ws.AddEvent(ctx, 1, accommodation("Kochi"))
	d2, _ := ws.AddEvent(ctx, 2, accommodation("Munnar"))
	_, err = ws.AddOption(ctx, 1, d1.ID, planner.Option{HotelName: "Harbour View", Price: price(100)})
	require.NoError(t, err)
	_, err = ws.AddOption(ctx, 2, d2.ID, planner.Option{HotelName: "Tea Hills", Price: price(50)})
	require.NoError(t, err)
	_, err = ws.SetPricing(ctx, pricing.Key{OptionNumber: 1, Day: 1}, nil, price(20))
	require.NoError(t, err)
	_, err = ws.SetPricing(ctx, pricing.Key{OptionNumber: 1, Day: 2}, nil, price(10))
	require.NoError(t, err)

	result, err = h.svc.GenerateProposals(ctx, 42)
	require.NoError(t, err)
	require.Len(t, result.Generated, 1)
	p := result.Generated[0]
	assert.Equal(t, 1, p.OptionNumber)
	assert.Equal(t, 180.0, p.Price)
	assert.Len(t, p.HotelDetails, 2)
	assert.Equal(t, 1, h.metrics.generated)

	require.NoError(t, ws.SetOverride(ctx, 1, price(175)))
	_, err = h.svc.GenerateProposals(ctx, 42)
	require.NoError(t, err)

	stored, err := h.svc.ListProposals(ctx, 42)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 175.0, stored[1].Price)

	got, err := h.svc.Proposal(ctx, 42, stored[1].ID)
	require.NoError(t, err)
	assert.Equal(t, stored[1], got)
	_, err = h.svc.Proposal(ctx, 42, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGenerateProposalsReplacePolicy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{ProposalPolicy: proposals.PolicyReplace})
	ws := h.open(t)
	ev, _ := ws.AddEvent(ctx, 1, accommodation("Kochi"))
	_, err := ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "Harbour View", Price: price(100)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := h.svc.GenerateProposals(ctx, 42)
		require.NoError(t, err)
	}
	stored, err := h.svc.ListProposals(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestPrunePolicyDropsDeadRowsOnRollup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{StalePolicy: pricing.StalePrune})
	ws := h.open(t)
	ev, _ := ws.AddEvent(ctx, 1, accommodation("Kochi"))
	_, err := ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "Harbour View", Price: price(100)})
	require.NoError(t, err)
	require.NoError(t, ws.RemoveEvent(ctx, 1, ev.ID))
	assert.Len(t, ws.Ledger(), 1)

	result, err := h.svc.GenerateProposals(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, result.Generated)
	assert.Empty(t, ws.Ledger())
}

func TestCarryPolicyKeepsDeadRows(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	ws := h.open(t)
	ev, _ := ws.AddEvent(ctx, 1, accommodation("Kochi"))
	_, err := ws.AddOption(ctx, 1, ev.ID, planner.Option{HotelName: "Harbour View", Price: price(100)})
	require.NoError(t, err)
	require.NoError(t, ws.RemoveEvent(ctx, 1, ev.ID))

	result, err := h.svc.GenerateProposals(ctx, 42)
	require.NoError(t, err)
	require.Len(t, result.Generated, 1)
	assert.Equal(t, 100.0, result.Generated[0].Price)
	assert.Empty(t, result.Generated[0].HotelDetails)
}

func TestQuickAddResolvesCatalogHotel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})

	ev, err := h.svc.QuickAddHotel(ctx, 42, 3, planner.QuickAdd{
		Source:      planner.SourceCatalog,
		Hotel:       planner.HotelPick{ID: "h-7"},
		Room:        planner.RoomPick{Name: "Deluxe", MealPlan: "MAP", Price: price(6500)},
		CheckInDate: "2026-04-03",
	})
	require.NoError(t, err)
	assert.Equal(t, "Backwater Lodge", ev.Subject)
	assert.Equal(t, "Alleppey", ev.Destination)
	opt := ev.HotelOptions()[0]
	assert.Equal(t, "4", opt.StarCategory)
	assert.Equal(t, 1, opt.OptionNumber)

	ledger := h.open(t).Ledger()
	assert.Equal(t, 6500.0, ledger[pricing.Key{OptionNumber: 1, Day: 3}].Net)

	_, err = h.svc.QuickAddHotel(ctx, 42, 3, planner.QuickAdd{Source: planner.SourceCatalog, Hotel: planner.HotelPick{ID: "missing"}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateItinerary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Options{})
	ws := h.open(t)
	terms := "Non-refundable"

	it, err := h.svc.UpdateItinerary(ctx, 42, itinerary.Update{Terms: &terms})
	require.NoError(t, err)
	assert.Equal(t, "Non-refundable", it.Terms)
	assert.Equal(t, "Non-refundable", ws.Itinerary().Terms)
}
