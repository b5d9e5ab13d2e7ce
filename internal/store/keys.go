package store

import "fmt"

// Slice names one independently persisted piece of itinerary state.
type Slice string

const (
	SliceEvents    Slice = "events"
	SlicePricing   Slice = "pricing"
	SliceOverrides Slice = "final_prices"
	SliceSettings  Slice = "settings"
	SliceProposals Slice = "proposals"
)

// Key returns the storage key of slice for itinerary id.
func Key(id int64, slice Slice) string {
	return fmt.Sprintf("itinerary_%d_%s", id, slice)
}
