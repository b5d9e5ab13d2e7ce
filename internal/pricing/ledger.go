// Package pricing holds the per-option net/markup/gross ledger, the manual
// final-price overrides and the global markup/tax settings of an itinerary.
package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/shared"
)

// Key addresses one ledger row: option number, day, and the option's index
// within its event's options array. Its text form is "option-day-index".
type Key struct {
	OptionNumber int
	Day          int
	Index        int
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%d-%d", k.OptionNumber, k.Day, k.Index)
}

// MarshalText lets Key be used as a JSON object key.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the "option-day-index" form.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses "option-day-index".
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: pricing key %q must be option-day-index", shared.ErrValidation, s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Key{}, fmt.Errorf("%w: pricing key %q must be option-day-index", shared.ErrValidation, s)
		}
		nums[i] = n
	}
	return Key{OptionNumber: nums[0], Day: nums[1], Index: nums[2]}, nil
}

// KeyFor builds the ledger key of an option location.
func KeyFor(ref planner.OptionRef) Key {
	return Key{OptionNumber: ref.Option.OptionNumber, Day: ref.Day, Index: ref.Index}
}

// Entry is one ledger row. Gross is always Net + Markup; only the ledger's
// setters write it.
type Entry struct {
	Net    float64 `json:"net"`
	Markup float64 `json:"markup"`
	Gross  float64 `json:"gross"`
}

func newEntry(net, markup float64) Entry {
	gross := decimal.NewFromFloat(net).Add(decimal.NewFromFloat(markup))
	return Entry{Net: net, Markup: markup, Gross: gross.InexactFloat64()}
}

// StalePolicy decides what happens to rows whose option no longer exists.
type StalePolicy string

const (
	// StaleCarry keeps dead rows for the life of the itinerary.
	StaleCarry StalePolicy = "carry"
	// StalePrune drops dead rows when the ledger is rolled up.
	StalePrune StalePolicy = "prune"
)

// ParseStalePolicy validates a configured policy name.
func ParseStalePolicy(s string) (StalePolicy, error) {
	switch StalePolicy(s) {
	case StaleCarry, "":
		return StaleCarry, nil
	case StalePrune:
		return StalePrune, nil
	}
	return "", fmt.Errorf("pricing: unknown stale policy %q", s)
}

// Ledger maps option locations to their pricing rows.
type Ledger struct {
	entries map[Key]Entry
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[Key]Entry)}
}

// Load replaces all rows.
func (l *Ledger) Load(entries map[Key]Entry) {
	l.entries = make(map[Key]Entry, len(entries))
	for k, e := range entries {
		l.entries[k] = newEntry(e.Net, e.Markup)
	}
}

// Len returns the row count.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Get returns the row at k.
func (l *Ledger) Get(k Key) (Entry, bool) {
	e, ok := l.entries[k]
	return e, ok
}

// Entries returns a copy of every row.
func (l *Ledger) Entries() map[Key]Entry {
	out := make(map[Key]Entry, len(l.entries))
	for k, e := range l.entries {
		out[k] = e
	}
	return out
}

// Keys returns every key sorted by option, day, index.
func (l *Ledger) Keys() []Key {
	return SortedKeys(l.entries)
}

// InitializeFrom seeds a row for every accommodation option that lacks one:
// net is the quoted price (zero when absent), markup zero. Existing rows are
// left alone. It returns the number of rows created.
func (l *Ledger) InitializeFrom(byDay map[int][]planner.Event) int {
	seeded := 0
	planner.WalkOptions(byDay, func(ref planner.OptionRef) {
		k := KeyFor(ref)
		if _, ok := l.entries[k]; ok {
			return
		}
		l.entries[k] = newEntry(ref.Option.QuotedPrice(), 0)
		seeded++
	})
	return seeded
}

// SetNet stores net at k and recomputes gross.
func (l *Ledger) SetNet(k Key, net float64) Entry {
	e := newEntry(net, l.entries[k].Markup)
	l.entries[k] = e
	return e
}

// SetMarkup stores markup at k and recomputes gross.
func (l *Ledger) SetMarkup(k Key, markup float64) Entry {
	e := newEntry(l.entries[k].Net, markup)
	l.entries[k] = e
	return e
}

// Prune deletes rows that no longer map to a live option and returns how
// many were removed.
func (l *Ledger) Prune(byDay map[int][]planner.Event) int {
	live := make(map[Key]struct{})
	planner.WalkOptions(byDay, func(ref planner.OptionRef) {
		live[KeyFor(ref)] = struct{}{}
	})
	removed := 0
	for k := range l.entries {
		if _, ok := live[k]; !ok {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// SortedKeys orders ledger keys by option, day, index.
func SortedKeys(entries map[Key]Entry) []Key {
	keys := make([]Key, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.OptionNumber != b.OptionNumber {
			return a.OptionNumber < b.OptionNumber
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Index < b.Index
	})
	return keys
}

// Sum adds the gross of every entry exactly before converting back to float.
func Sum(entries []Entry) float64 {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.Gross))
	}
	return total.InexactFloat64()
}
