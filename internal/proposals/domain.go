// Package proposals rolls the pricing ledger and accommodation options of an
// itinerary up into shareable, immutable proposal records.
package proposals

import (
	"errors"
	"fmt"
	"time"

	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
)

// ErrNoPricingData is reported when the ledger has no rows. It is not fatal:
// generation simply yields zero proposals.
var ErrNoPricingData = errors.New("no pricing data available")

// HotelDetail is one option of the proposal's option number with the day it
// sits on and its ledger row.
type HotelDetail struct {
	planner.Option
	Day     int           `json:"day"`
	Index   int           `json:"index"`
	Pricing pricing.Entry `json:"pricing"`
}

// Proposal is created once by the generator and never mutated afterwards.
type Proposal struct {
	ID              string           `json:"id"`
	OptionNumber    int              `json:"optionNumber"`
	ItineraryID     int64            `json:"itineraryId"`
	ItineraryName   string           `json:"itineraryName"`
	Destinations    []string         `json:"destinations"`
	DurationDays    int              `json:"duration"`
	Price           float64          `json:"price"`
	WebsiteCost     float64          `json:"websiteCost"`
	Overridden      bool             `json:"overridden"`
	HotelDetails    []HotelDetail    `json:"hotelDetails"`
	PricingSnapshot pricing.Settings `json:"pricingSnapshot"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Policy controls how freshly generated proposals join the stored list.
type Policy string

const (
	// PolicyAppend keeps every previously stored proposal.
	PolicyAppend Policy = "append"
	// PolicyReplace drops stored proposals sharing an option number with a new one.
	PolicyReplace Policy = "replace"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAppend, "":
		return PolicyAppend, nil
	case PolicyReplace:
		return PolicyReplace, nil
	}
	return "", fmt.Errorf("proposals: unknown policy %q", s)
}

// Merge combines the stored list with a new batch according to policy.
func Merge(existing, generated []Proposal, policy Policy) []Proposal {
	out := make([]Proposal, 0, len(existing)+len(generated))
	if policy == PolicyReplace {
		fresh := make(map[int]struct{}, len(generated))
		for _, p := range generated {
			fresh[p.OptionNumber] = struct{}{}
		}
		for _, p := range existing {
			if _, ok := fresh[p.OptionNumber]; !ok {
				out = append(out, p)
			}
		}
	} else {
		out = append(out, existing...)
	}
	return append(out, generated...)
}

// Find returns the proposal with id.
func Find(list []Proposal, id string) (Proposal, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return Proposal{}, false
}
