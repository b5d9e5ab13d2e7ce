package planner

import (
	"fmt"
	"strings"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// QuickAddSource names the panel a quick-added hotel came from.
type QuickAddSource string

const (
	SourceCatalog QuickAddSource = "catalog"
	SourceStored  QuickAddSource = "stored"
	SourceSearch  QuickAddSource = "search"
)

// Valid reports whether s is a known source.
func (s QuickAddSource) Valid() bool {
	switch s {
	case SourceCatalog, SourceStored, SourceSearch:
		return true
	}
	return false
}

// HotelPick is the hotel record selected in a quick-add panel.
type HotelPick struct {
	ID           string
	Name         string
	StarCategory string
	City         string
	ImageRef     string
}

// RoomPick is the room chosen for the picked hotel, if any.
type RoomPick struct {
	Name     string
	MealPlan string
	Price    *float64
}

// QuickAdd is a one-step hotel selection that bypasses the nested option form.
type QuickAdd struct {
	Source       QuickAddSource
	Hotel        HotelPick
	Room         RoomPick
	RoomCounts   RoomCounts
	CheckInDate  string
	CheckInTime  string
	CheckOutDate string
	CheckOutTime string
}

// QuickAddHotel synthesizes an accommodation event holding a single option
// and appends it to day. The option number counts the accommodation events
// already on that day, one option per synthesized event; this differs from
// AddOption, which counts siblings inside one event.
func (m *OptionManager) QuickAddHotel(c *Collection, day int, req QuickAdd) (Event, error) {
	if day < 1 {
		return Event{}, ErrNoDaySelected
	}
	if !req.Source.Valid() {
		return Event{}, fmt.Errorf("%w: unknown quick-add source %q", shared.ErrValidation, req.Source)
	}
	name := strings.TrimSpace(req.Hotel.Name)
	if name == "" {
		return Event{}, ErrHotelNameRequired
	}
	existing := c.AccommodationCount(day)
	if existing >= m.maxOptions {
		return Event{}, &LimitError{Max: m.maxOptions}
	}

	opt := Option{
		HotelName:    name,
		HotelID:      req.Hotel.ID,
		StarCategory: req.Hotel.StarCategory,
		RoomName:     req.Room.Name,
		MealPlan:     req.Room.MealPlan,
		RoomCounts:   req.RoomCounts,
		CheckInDate:  req.CheckInDate,
		CheckInTime:  req.CheckInTime,
		CheckOutDate: req.CheckOutDate,
		CheckOutTime: req.CheckOutTime,
		Price:        req.Room.Price,
		OptionNumber: existing + 1,
	}
	ev := Event{
		Kind:        KindAccommodation,
		Subject:     name,
		ImageRef:    req.Hotel.ImageRef,
		Destination: req.Hotel.City,
		Schedule: Schedule{
			Date:      req.CheckInDate,
			StartTime: req.CheckInTime,
		},
		Payload: Accommodation{HotelOptions: []Option{opt.clone()}},
	}
	added, _ := c.Add(day, ev)
	return added, nil
}
