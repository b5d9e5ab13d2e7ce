package proposals

import (
	"fmt"
	"sort"
	"time"

	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
	"github.com/tripdesk/tripdesk/internal/shared"
)

// Input is the read contract the generator consumes.
type Input struct {
	Itinerary   itinerary.Itinerary
	EventsByDay map[int][]planner.Event
	Ledger      map[pricing.Key]pricing.Entry
	Overrides   map[int]float64
	Settings    pricing.Settings
}

// Generator produces one proposal per option number present in the ledger.
type Generator struct {
	now   func() time.Time
	stamp *shared.IDClock
}

// NewGenerator constructs a generator. A nil now defaults to time.Now; a nil
// stamp clock is derived from now. Proposal ids combine a stamp unique per
// run with the option number.
func NewGenerator(now func() time.Time, stamp *shared.IDClock) *Generator {
	if now == nil {
		now = time.Now
	}
	if stamp == nil {
		stamp = shared.NewIDClock(now)
	}
	return &Generator{now: now, stamp: stamp}
}

// Generate rolls in up. Proposals come back ordered by option number. An
// empty ledger yields ErrNoPricingData and no proposals.
func (g *Generator) Generate(in Input) ([]Proposal, error) {
	if len(in.Ledger) == 0 {
		return nil, ErrNoPricingData
	}

	groups := make(map[int][]pricing.Entry)
	for _, k := range pricing.SortedKeys(in.Ledger) {
		groups[k.OptionNumber] = append(groups[k.OptionNumber], in.Ledger[k])
	}
	numbers := make([]int, 0, len(groups))
	for n := range groups {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	details := make(map[int][]HotelDetail)
	planner.WalkOptions(in.EventsByDay, func(ref planner.OptionRef) {
		n := ref.Option.OptionNumber
		if _, ok := groups[n]; !ok {
			return
		}
		entry := in.Ledger[pricing.KeyFor(ref)]
		details[n] = append(details[n], HotelDetail{
			Option:  ref.Option,
			Day:     ref.Day,
			Index:   ref.Index,
			Pricing: entry,
		})
	})

	now := g.now().UTC()
	stamp := g.stamp.Next()
	out := make([]Proposal, 0, len(numbers))
	for _, n := range numbers {
		price := pricing.Sum(groups[n])
		override, overridden := in.Overrides[n]
		if overridden {
			price = override
		}
		hotels := details[n]
		if hotels == nil {
			hotels = []HotelDetail{}
		}
		out = append(out, Proposal{
			ID:              fmt.Sprintf("%d-%d", stamp, n),
			OptionNumber:    n,
			ItineraryID:     in.Itinerary.ID,
			ItineraryName:   in.Itinerary.Name,
			Destinations:    append([]string(nil), in.Itinerary.Destinations...),
			DurationDays:    in.Itinerary.DurationDays,
			Price:           price,
			WebsiteCost:     price,
			Overridden:      overridden,
			HotelDetails:    hotels,
			PricingSnapshot: in.Settings,
			CreatedAt:       now,
		})
	}
	return out, nil
}
