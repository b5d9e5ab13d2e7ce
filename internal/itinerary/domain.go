// Package itinerary holds the itinerary record that anchors a workspace and the
// client for the backend that owns it.
package itinerary

// Itinerary is the read-only metadata fetched from the backend.
type Itinerary struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	DurationDays int      `json:"duration"`
	Destinations []string `json:"destinations"`
	Image        string   `json:"image,omitempty"`
	Terms        string   `json:"terms,omitempty"`
}

// Days returns the ordered day numbers 1..DurationDays.
func (it Itinerary) Days() []int {
	if it.DurationDays <= 0 {
		return []int{}
	}
	days := make([]int, it.DurationDays)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// HasDay reports whether day falls inside the itinerary duration.
func (it Itinerary) HasDay(day int) bool {
	return day >= 1 && day <= it.DurationDays
}

// Update carries the partial fields the workspace may write back.
type Update struct {
	Image *string `json:"image,omitempty"`
	Terms *string `json:"terms,omitempty"`
}

// Empty reports whether the update carries no field.
func (u Update) Empty() bool {
	return u.Image == nil && u.Terms == nil
}
