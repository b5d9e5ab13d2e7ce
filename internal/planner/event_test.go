package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSONKeepsVariantPayload(t *testing.T) {
	events := []Event{
		{
			ID: 1, Kind: KindAccommodation, Subject: "Houseboat",
			Payload: Accommodation{HotelOptions: []Option{{HotelName: "Lake Queen", Price: price(8000), OptionNumber: 1}}},
		},
		{ID: 2, Kind: KindTransportation, Subject: "Airport pickup", Payload: Transportation{TransferType: "private"}},
		{ID: 3, Kind: KindMeal, Subject: "Sadya lunch", Payload: Meal{MealType: "lunch"}},
		{ID: 4, Kind: KindFlight, Subject: "COK-DEL", Payload: Flight{Airline: "AI", FlightNumber: "AI-512", From: "COK", To: "DEL"}},
		{ID: 5, Kind: KindLeisure, Subject: "Beach time", Payload: Leisure{}},
		{ID: 6, Kind: KindDayItinerary, Subject: "Day plan", Schedule: Schedule{Date: "2026-11-01", StartTime: "09:00"}, Payload: DayItinerary{TemplateID: "tpl-9"}},
	}

	raw, err := json.Marshal(events)
	require.NoError(t, err)

	var decoded []Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, events, decoded)
}

func TestEventUnmarshalWithoutPayloadUsesZeroVariant(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"kind":"visa","subject":"Schengen"}`), &ev))
	assert.Equal(t, Visa{}, ev.Payload)
}

func TestEventUnmarshalRejectsUnknownKind(t *testing.T) {
	var ev Event
	assert.Error(t, json.Unmarshal([]byte(`{"id":7,"kind":"spaceflight"}`), &ev))
}

func TestNormalizeChecksPayloadKind(t *testing.T) {
	ev := Event{Kind: KindMeal, Payload: Flight{}}
	assert.Error(t, ev.Normalize())

	ev = Event{Kind: KindCruise}
	require.NoError(t, ev.Normalize())
	assert.Equal(t, Cruise{}, ev.Payload)
}
