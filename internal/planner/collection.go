package planner

import (
	"fmt"
	"sort"

	"github.com/tripdesk/tripdesk/internal/shared"
)

var (
	// ErrNoDaySelected is returned by callers that guard day-scoped operations.
	ErrNoDaySelected = fmt.Errorf("%w: no day selected", shared.ErrValidation)
	// ErrKindImmutable is returned when an update tries to change an event's kind.
	ErrKindImmutable = fmt.Errorf("%w: event kind cannot change", shared.ErrValidation)
)

// Collection holds the ordered event lists of one itinerary, keyed by day.
// Day 0 means "no day selected"; every operation on it is a no-op.
type Collection struct {
	days map[int][]Event
	ids  *shared.IDClock
}

// NewCollection constructs an empty collection drawing ids from ids.
func NewCollection(ids *shared.IDClock) *Collection {
	if ids == nil {
		ids = shared.NewIDClock(nil)
	}
	return &Collection{days: make(map[int][]Event), ids: ids}
}

// Load replaces the whole collection, typically with a persisted slice.
func (c *Collection) Load(byDay map[int][]Event) {
	c.days = make(map[int][]Event, len(byDay))
	for day, events := range byDay {
		if day < 1 || len(events) == 0 {
			continue
		}
		list := make([]Event, len(events))
		for i, ev := range events {
			list[i] = ev.Clone()
			c.ids.Observe(ev.ID)
		}
		c.days[day] = list
	}
}

// Add appends ev to day's list, assigning an id when ev has none. The second
// return value is false when no day is selected.
func (c *Collection) Add(day int, ev Event) (Event, bool) {
	if day < 1 {
		return Event{}, false
	}
	if ev.ID == 0 {
		ev.ID = c.ids.Next()
	} else {
		c.ids.Observe(ev.ID)
	}
	ev = ev.Clone()
	c.days[day] = append(c.days[day], ev)
	return ev.Clone(), true
}

// Update replaces the event with the same id in place. It reports false when
// the id is not present on that day.
func (c *Collection) Update(day int, ev Event) (bool, error) {
	idx := c.index(day, ev.ID)
	if idx < 0 {
		return false, nil
	}
	if c.days[day][idx].Kind != ev.Kind {
		return false, ErrKindImmutable
	}
	c.days[day][idx] = ev.Clone()
	return true, nil
}

// Remove filters id out of day's list.
func (c *Collection) Remove(day int, id int64) bool {
	idx := c.index(day, id)
	if idx < 0 {
		return false
	}
	list := c.days[day]
	next := make([]Event, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	if len(next) == 0 {
		delete(c.days, day)
		return true
	}
	c.days[day] = next
	return true
}

// Move relocates id to position to within the same day, clamping to the list bounds.
func (c *Collection) Move(day int, id int64, to int) bool {
	idx := c.index(day, id)
	if idx < 0 {
		return false
	}
	list := c.days[day]
	if to < 0 {
		to = 0
	}
	if to > len(list)-1 {
		to = len(list) - 1
	}
	ev := list[idx]
	next := make([]Event, 0, len(list))
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)
	next = append(next[:to], append([]Event{ev}, next[to:]...)...)
	c.days[day] = next
	return true
}

// Find returns a copy of the event with id on day.
func (c *Collection) Find(day int, id int64) (Event, bool) {
	idx := c.index(day, id)
	if idx < 0 {
		return Event{}, false
	}
	return c.days[day][idx].Clone(), true
}

// DayOf reports the day holding the event with id.
func (c *Collection) DayOf(id int64) (int, bool) {
	for day := range c.days {
		if c.index(day, id) >= 0 {
			return day, true
		}
	}
	return 0, false
}

// Events returns a copy of day's list in insertion order.
func (c *Collection) Events(day int) []Event {
	list, ok := c.days[day]
	if !ok {
		return nil
	}
	out := make([]Event, len(list))
	for i, ev := range list {
		out[i] = ev.Clone()
	}
	return out
}

// ByDay returns a deep copy of every day's list.
func (c *Collection) ByDay() map[int][]Event {
	out := make(map[int][]Event, len(c.days))
	for day := range c.days {
		out[day] = c.Events(day)
	}
	return out
}

// Days returns the days that hold at least one event, ascending.
func (c *Collection) Days() []int {
	days := make([]int, 0, len(c.days))
	for day := range c.days {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

// AccommodationCount counts accommodation events on day.
func (c *Collection) AccommodationCount(day int) int {
	n := 0
	for _, ev := range c.days[day] {
		if ev.IsAccommodation() {
			n++
		}
	}
	return n
}

func (c *Collection) index(day int, id int64) int {
	if day < 1 {
		return -1
	}
	for i, ev := range c.days[day] {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

// OptionRef locates one hotel option inside a per-day event map.
type OptionRef struct {
	Day     int
	EventID int64
	Index   int
	Option  Option
}

// WalkOptions visits every accommodation option in day order, then event
// order, then option order.
func WalkOptions(byDay map[int][]Event, fn func(OptionRef)) {
	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)
	for _, day := range days {
		for _, ev := range byDay[day] {
			for i, opt := range ev.HotelOptions() {
				fn(OptionRef{Day: day, EventID: ev.ID, Index: i, Option: opt})
			}
		}
	}
}
