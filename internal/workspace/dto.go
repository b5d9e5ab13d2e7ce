package workspace

import (
	"github.com/tripdesk/tripdesk/internal/itinerary"
	"github.com/tripdesk/tripdesk/internal/planner"
	"github.com/tripdesk/tripdesk/internal/pricing"
)

type moveRequest struct {
	To *int `json:"to" validate:"required,gte=0"`
}

type hotelPickRequest struct {
	ID           string `json:"id,omitempty" validate:"omitempty,max=100"`
	Name         string `json:"name,omitempty" validate:"required_without=ID,max=200"`
	StarCategory string `json:"starCategory,omitempty" validate:"omitempty,max=20"`
	City         string `json:"city,omitempty" validate:"omitempty,max=100"`
	ImageRef     string `json:"imageRef,omitempty"`
}

type roomPickRequest struct {
	Name     string   `json:"name,omitempty" validate:"omitempty,max=200"`
	MealPlan string   `json:"mealPlan,omitempty" validate:"omitempty,max=50"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type quickAddRequest struct {
	Source       string             `json:"source" validate:"required,oneof=catalog stored search"`
	Hotel        hotelPickRequest   `json:"hotel"`
	Room         roomPickRequest    `json:"room"`
	RoomCounts   planner.RoomCounts `json:"roomCounts"`
	CheckInDate  string             `json:"checkInDate,omitempty"`
	CheckInTime  string             `json:"checkInTime,omitempty"`
	CheckOutDate string             `json:"checkOutDate,omitempty"`
	CheckOutTime string             `json:"checkOutTime,omitempty"`
}

func (r quickAddRequest) toDomain() planner.QuickAdd {
	return planner.QuickAdd{
		Source: planner.QuickAddSource(r.Source),
		Hotel: planner.HotelPick{
			ID:           r.Hotel.ID,
			Name:         r.Hotel.Name,
			StarCategory: r.Hotel.StarCategory,
			City:         r.Hotel.City,
			ImageRef:     r.Hotel.ImageRef,
		},
		Room: planner.RoomPick{
			Name:     r.Room.Name,
			MealPlan: r.Room.MealPlan,
			Price:    r.Room.Price,
		},
		RoomCounts:   r.RoomCounts,
		CheckInDate:  r.CheckInDate,
		CheckInTime:  r.CheckInTime,
		CheckOutDate: r.CheckOutDate,
		CheckOutTime: r.CheckOutTime,
	}
}

type pricingRequest struct {
	Net    *float64 `json:"net,omitempty" validate:"required_without=Markup"`
	Markup *float64 `json:"markup,omitempty"`
}

type overrideRequest struct {
	Price *float64 `json:"price"`
}

type itineraryUpdateRequest struct {
	Image *string `json:"image,omitempty" validate:"omitempty,max=2048"`
	Terms *string `json:"terms,omitempty" validate:"omitempty,max=20000"`
}

func (r itineraryUpdateRequest) toDomain() itinerary.Update {
	return itinerary.Update{Image: r.Image, Terms: r.Terms}
}

type pricingResponse struct {
	Entries   map[pricing.Key]pricing.Entry `json:"entries"`
	Overrides map[int]float64               `json:"overrides"`
}

type enqueueResponse struct {
	TaskID string `json:"taskId"`
}
