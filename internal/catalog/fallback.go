package catalog

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
)

var hotelNameTemplates = []string{
	"%s Grand Hotel",
	"The %s Residency",
	"%s Palace Inn",
	"Hotel %s Heritage",
	"%s Bay Resort",
	"%s Comfort Suites",
}

var roomTemplates = []struct {
	name     string
	mealPlan string
	capacity int
	factor   float64
}{
	{"Standard Room", "CP", 2, 1.0},
	{"Deluxe Room", "MAP", 2, 1.4},
	{"Family Suite", "MAP", 4, 1.9},
	{"Executive Suite", "AP", 2, 2.5},
}

// Fallback synthesizes plausible search results without a provider. The
// same inputs always produce the same output.
type Fallback struct{}

// Search returns one candidate per name template for city. When query
// matches some names only those are returned.
func (Fallback) Search(city, query string) []Candidate {
	city = strings.TrimSpace(city)
	if city == "" {
		city = "City"
	}
	all := make([]Candidate, 0, len(hotelNameTemplates))
	for i, tpl := range hotelNameTemplates {
		name := fmt.Sprintf(tpl, city)
		r := seeded(strings.ToLower(city), name)
		all = append(all, Candidate{
			ID:       fmt.Sprintf("fallback-%s-%d", slug(city), i+1),
			Name:     name,
			City:     city,
			Rating:   math.Round((3.0+r.Float64()*2.0)*10) / 10,
			Price:    float64(2500 + r.IntN(16)*500),
			Fallback: true,
		})
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	matched := make([]Candidate, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return all
	}
	return matched
}

// Rooms returns the room templates priced off a per-hotel base rate.
func (Fallback) Rooms(hotelID string) []Room {
	r := seeded("rooms", hotelID)
	base := float64(2000 + r.IntN(12)*250)
	rooms := make([]Room, 0, len(roomTemplates))
	for _, t := range roomTemplates {
		rooms = append(rooms, Room{
			Name:     t.name,
			MealPlan: t.mealPlan,
			Capacity: t.capacity,
			Price:    math.Round(base * t.factor),
			Fallback: true,
		})
	}
	return rooms
}

func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
