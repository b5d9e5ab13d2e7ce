// Package catalog serves the read-only hotel, activity and day-itinerary
// directories plus live hotel search, falling back to locally generated
// candidates when the provider is unavailable.
package catalog

// Hotel is a stored hotel record.
type Hotel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	City         string `json:"city"`
	StarCategory string `json:"starCategory,omitempty"`
	Address      string `json:"address,omitempty"`
	ImageRef     string `json:"imageRef,omitempty"`
}

// Activity is a bookable activity record.
type Activity struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Duration    string  `json:"duration,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	ImageRef    string  `json:"imageRef,omitempty"`
}

// DayItinerary is a reusable single-day template.
type DayItinerary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	City        string `json:"city"`
	Description string `json:"description,omitempty"`
	ImageRef    string `json:"imageRef,omitempty"`
}

// Candidate is one hotel search hit.
type Candidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Rating   float64 `json:"rating"`
	Price    float64 `json:"price"`
	ImageRef string  `json:"imageRef,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
}

// Room is a priced room offer of a hotel.
type Room struct {
	Name     string  `json:"name"`
	MealPlan string  `json:"mealPlan"`
	Price    float64 `json:"price"`
	Capacity int     `json:"capacity,omitempty"`
	Fallback bool    `json:"fallback,omitempty"`
}

// RoomParams narrows a room lookup.
type RoomParams struct {
	CheckIn  string `json:"checkIn,omitempty"`
	CheckOut string `json:"checkOut,omitempty"`
	Adults   int    `json:"adults,omitempty"`
	Rooms    int    `json:"rooms,omitempty"`
}
