package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk/internal/shared"
)

func newTestCollection() *Collection {
	start := time.UnixMilli(1_700_000_000_000)
	return NewCollection(shared.NewIDClock(func() time.Time { return start }))
}

func activity(subject string) Event {
	ev, _ := NewEvent(KindActivity, subject)
	return ev
}

func TestAddAssignsIDAndKeepsOrder(t *testing.T) {
	c := newTestCollection()

	first, ok := c.Add(1, activity("Fort Kochi walk"))
	require.True(t, ok)
	second, ok := c.Add(1, activity("Kathakali show"))
	require.True(t, ok)

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	events := c.Events(1)
	require.Len(t, events, 2)
	assert.Equal(t, "Fort Kochi walk", events[0].Subject)
	assert.Equal(t, "Kathakali show", events[1].Subject)
}

func TestAddKeepsExplicitID(t *testing.T) {
	c := newTestCollection()
	ev := activity("Spice market")
	ev.ID = 99

	added, ok := c.Add(2, ev)
	require.True(t, ok)
	assert.Equal(t, int64(99), added.ID)
}

func TestDayOfSearchesEveryDay(t *testing.T) {
	c := newTestCollection()
	ev := activity("Houseboat cruise")
	ev.ID = 77
	_, ok := c.Add(3, ev)
	require.True(t, ok)

	day, found := c.DayOf(77)
	assert.True(t, found)
	assert.Equal(t, 3, day)
	_, found = c.DayOf(78)
	assert.False(t, found)
}

func TestOperationsWithoutDayAreNoOps(t *testing.T) {
	c := newTestCollection()

	_, ok := c.Add(0, activity("Orphan"))
	assert.False(t, ok)
	updated, err := c.Update(0, activity("Orphan"))
	require.NoError(t, err)
	assert.False(t, updated)
	assert.False(t, c.Remove(0, 1))
	assert.Empty(t, c.ByDay())
}

func TestAddRemoveRoundTripRestoresDay(t *testing.T) {
	for day := 1; day <= 3; day++ {
		c := newTestCollection()
		c.Add(day, activity("Existing"))
		before := c.Events(day)

		added, ok := c.Add(day, activity("Temporary"))
		require.True(t, ok)
		require.True(t, c.Remove(day, added.ID))

		assert.Equal(t, before, c.Events(day), "day %d", day)
	}
}

func TestRemoveLastEventClearsDay(t *testing.T) {
	c := newTestCollection()
	added, _ := c.Add(1, activity("Only"))

	require.True(t, c.Remove(1, added.ID))
	assert.Nil(t, c.Events(1))
	assert.Empty(t, c.Days())
}

func TestUpdateReplacesInPlace(t *testing.T) {
	c := newTestCollection()
	a, _ := c.Add(1, activity("A"))
	c.Add(1, activity("B"))

	a.Subject = "A revised"
	ok, err := c.Update(1, a)
	require.NoError(t, err)
	require.True(t, ok)

	events := c.Events(1)
	assert.Equal(t, "A revised", events[0].Subject)
	assert.Equal(t, "B", events[1].Subject)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	c := newTestCollection()
	c.Add(1, activity("A"))
	ghost := activity("Ghost")
	ghost.ID = 12345

	ok, err := c.Update(1, ghost)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, c.Events(1), 1)
}

func TestUpdateRejectsKindChange(t *testing.T) {
	c := newTestCollection()
	a, _ := c.Add(1, activity("A"))

	changed, err := NewEvent(KindMeal, "A")
	require.NoError(t, err)
	changed.ID = a.ID
	ok, err := c.Update(1, changed)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrKindImmutable)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, KindActivity, c.Events(1)[0].Kind)
}

func TestMoveReordersWithinDay(t *testing.T) {
	c := newTestCollection()
	a, _ := c.Add(1, activity("A"))
	c.Add(1, activity("B"))
	c.Add(1, activity("C"))

	require.True(t, c.Move(1, a.ID, 2))
	var subjects []string
	for _, ev := range c.Events(1) {
		subjects = append(subjects, ev.Subject)
	}
	assert.Equal(t, []string{"B", "C", "A"}, subjects)

	require.True(t, c.Move(1, a.ID, -5))
	assert.Equal(t, "A", c.Events(1)[0].Subject)
}

func TestEventsReturnsCopies(t *testing.T) {
	c := newTestCollection()
	ev, _ := NewEvent(KindAccommodation, "Hotel")
	ev.Payload = Accommodation{HotelOptions: []Option{{HotelName: "Taj", OptionNumber: 1}}}
	c.Add(1, ev)

	events := c.Events(1)
	events[0].HotelOptions()[0].HotelName = "mutated"

	assert.Equal(t, "Taj", c.Events(1)[0].HotelOptions()[0].HotelName)
}

func TestLoadObservesIDs(t *testing.T) {
	c := newTestCollection()
	loaded := activity("Persisted")
	loaded.ID = 1_800_000_000_000
	c.Load(map[int][]Event{1: {loaded}})

	added, _ := c.Add(1, activity("New"))
	assert.Greater(t, added.ID, loaded.ID)
}

func TestWalkOptionsOrder(t *testing.T) {
	hotel := func(names ...string) Event {
		ev, _ := NewEvent(KindAccommodation, names[0])
		var opts []Option
		for i, n := range names {
			opts = append(opts, Option{HotelName: n, OptionNumber: i + 1})
		}
		ev.Payload = Accommodation{HotelOptions: opts}
		return ev
	}
	byDay := map[int][]Event{
		2: {hotel("D2")},
		1: {activity("skip"), hotel("D1a", "D1b")},
	}

	var seen []string
	WalkOptions(byDay, func(ref OptionRef) {
		seen = append(seen, ref.Option.HotelName)
	})
	assert.Equal(t, []string{"D1a", "D1b", "D2"}, seen)
}
