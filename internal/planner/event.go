// Package planner manages the day-scoped event lists of an itinerary and the
// hotel options nested inside accommodation events.
package planner

import (
	"encoding/json"
	"fmt"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// Kind discriminates the Event variants. It never changes after creation.
type Kind string

const (
	KindAccommodation  Kind = "accommodation"
	KindActivity       Kind = "activity"
	KindTransportation Kind = "transportation"
	KindVisa           Kind = "visa"
	KindMeal           Kind = "meal"
	KindFlight         Kind = "flight"
	KindLeisure        Kind = "leisure"
	KindCruise         Kind = "cruise"
	KindDayItinerary   Kind = "day-itinerary"
	KindGeneric        Kind = "generic"
)

var kinds = []Kind{
	KindAccommodation, KindActivity, KindTransportation, KindVisa, KindMeal,
	KindFlight, KindLeisure, KindCruise, KindDayItinerary, KindGeneric,
}

// Kinds lists every supported kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Schedule groups the optional timing fields shared by every kind.
type Schedule struct {
	Date      string `json:"date,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	ShowTime  string `json:"showTime,omitempty"`
}

// Event is one day-scoped record. Fields common to all kinds live on the
// struct; the kind-specific part lives in Payload, whose concrete type always
// matches Kind.
type Event struct {
	ID          int64
	Kind        Kind
	Subject     string
	Details     string
	ImageRef    string
	Destination string
	Schedule    Schedule
	Payload     Payload
}

// Payload is the kind-specific part of an Event.
type Payload interface {
	kind() Kind
}

// Accommodation carries the ordered hotel options of an accommodation event.
type Accommodation struct {
	HotelOptions []Option `json:"hotelOptions"`
}

// Activity links an event to a catalog activity.
type Activity struct {
	ActivityID string `json:"activityId,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

// Transportation describes a transfer.
type Transportation struct {
	TransferType string `json:"transferType,omitempty"`
}

// Visa describes a visa service.
type Visa struct {
	VisaType string `json:"visaType,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Meal describes a meal stop.
type Meal struct {
	MealType string `json:"mealType,omitempty"`
}

// Flight describes a flight segment.
type Flight struct {
	Airline      string `json:"airline,omitempty"`
	FlightNumber string `json:"flightNumber,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
}

// Leisure is free time with no extra data.
type Leisure struct{}

// Cruise describes a cruise leg.
type Cruise struct {
	CruiseName string `json:"cruiseName,omitempty"`
	CabinType  string `json:"cabinType,omitempty"`
}

// DayItinerary links an event to a catalog day plan.
type DayItinerary struct {
	TemplateID string `json:"templateId,omitempty"`
}

// Generic is a free-form event with no extra data.
type Generic struct{}

func (Accommodation) kind() Kind  { return KindAccommodation }
func (Activity) kind() Kind       { return KindActivity }
func (Transportation) kind() Kind { return KindTransportation }
func (Visa) kind() Kind           { return KindVisa }
func (Meal) kind() Kind           { return KindMeal }
func (Flight) kind() Kind         { return KindFlight }
func (Leisure) kind() Kind        { return KindLeisure }
func (Cruise) kind() Kind         { return KindCruise }
func (DayItinerary) kind() Kind   { return KindDayItinerary }
func (Generic) kind() Kind        { return KindGeneric }

// NewPayload returns the zero payload for k.
func NewPayload(k Kind) (Payload, error) {
	switch k {
	case KindAccommodation:
		return Accommodation{}, nil
	case KindActivity:
		return Activity{}, nil
	case KindTransportation:
		return Transportation{}, nil
	case KindVisa:
		return Visa{}, nil
	case KindMeal:
		return Meal{}, nil
	case KindFlight:
		return Flight{}, nil
	case KindLeisure:
		return Leisure{}, nil
	case KindCruise:
		return Cruise{}, nil
	case KindDayItinerary:
		return DayItinerary{}, nil
	case KindGeneric:
		return Generic{}, nil
	}
	return nil, fmt.Errorf("%w: unknown event kind %q", shared.ErrValidation, k)
}

// NewEvent builds an event of kind k with a zero payload.
func NewEvent(k Kind, subject string) (Event, error) {
	payload, err := NewPayload(k)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: k, Subject: subject, Payload: payload}, nil
}

// Normalize fills a missing payload and checks that the payload matches Kind.
func (e *Event) Normalize() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", shared.ErrValidation, e.Kind)
	}
	if e.Payload == nil {
		payload, err := NewPayload(e.Kind)
		if err != nil {
			return err
		}
		e.Payload = payload
		return nil
	}
	if e.Payload.kind() != e.Kind {
		return fmt.Errorf("%w: payload of kind %q on %q event", shared.ErrValidation, e.Payload.kind(), e.Kind)
	}
	return nil
}

// HotelOptions returns the options of an accommodation event, or nil for other kinds.
func (e Event) HotelOptions() []Option {
	acc, ok := e.Payload.(Accommodation)
	if !ok {
		return nil
	}
	return acc.HotelOptions
}

// IsAccommodation reports whether the event carries hotel options.
func (e Event) IsAccommodation() bool {
	return e.Kind == KindAccommodation
}

// Clone returns a deep copy so callers can't alias option slices.
func (e Event) Clone() Event {
	if acc, ok := e.Payload.(Accommodation); ok {
		e.Payload = Accommodation{HotelOptions: cloneOptions(acc.HotelOptions)}
	}
	return e
}

type eventJSON struct {
	ID          int64           `json:"id"`
	Kind        Kind            `json:"kind"`
	Subject     string          `json:"subject"`
	Details     string          `json:"details,omitempty"`
	ImageRef    string          `json:"imageRef,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Date        string          `json:"date,omitempty"`
	StartTime   string          `json:"startTime,omitempty"`
	EndTime     string          `json:"endTime,omitempty"`
	ShowTime    string          `json:"showTime,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON writes the event as {common fields..., kind, payload}.
func (e Event) MarshalJSON() ([]byte, error) {
	wire := eventJSON{
		ID:          e.ID,
		Kind:        e.Kind,
		Subject:     e.Subject,
		Details:     e.Details,
		ImageRef:    e.ImageRef,
		Destination: e.Destination,
		Date:        e.Schedule.Date,
		StartTime:   e.Schedule.StartTime,
		EndTime:     e.Schedule.EndTime,
		ShowTime:    e.Schedule.ShowTime,
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		wire.Payload = raw
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the payload into the concrete type selected by kind.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire eventJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	payload, err := NewPayload(wire.Kind)
	if err != nil {
		return err
	}
	if len(wire.Payload) > 0 && string(wire.Payload) != "null" {
		payload, err = decodePayload(wire.Kind, wire.Payload)
		if err != nil {
			return fmt.Errorf("decode %s payload: %w", wire.Kind, err)
		}
	}
	*e = Event{
		ID:          wire.ID,
		Kind:        wire.Kind,
		Subject:     wire.Subject,
		Details:     wire.Details,
		ImageRef:    wire.ImageRef,
		Destination: wire.Destination,
		Schedule: Schedule{
			Date:      wire.Date,
			StartTime: wire.StartTime,
			EndTime:   wire.EndTime,
			ShowTime:  wire.ShowTime,
		},
		Payload: payload,
	}
	return nil
}

func decodePayload(k Kind, raw json.RawMessage) (Payload, error) {
	switch k {
	case KindAccommodation:
		var p Accommodation
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindActivity:
		var p Activity
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindTransportation:
		var p Transportation
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindVisa:
		var p Visa
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindMeal:
		var p Meal
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindFlight:
		var p Flight
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindCruise:
		var p Cruise
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindDayItinerary:
		var p DayItinerary
		err := json.Unmarshal(raw, &p)
		return p, err
	}
	return NewPayload(k)
}
