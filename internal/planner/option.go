package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tripdesk/tripdesk/internal/shared"
)

// DefaultMaxHotelOptions is the option cap used when none is configured.
const DefaultMaxHotelOptions = 4

var (
	// ErrNotAccommodation is returned when option operations target another kind.
	ErrNotAccommodation = fmt.Errorf("%w: event is not an accommodation", shared.ErrValidation)
	// ErrOptionIndex is returned for an index outside the options array.
	ErrOptionIndex = fmt.Errorf("%w: hotel option index out of range", shared.ErrValidation)
	// ErrHotelNameRequired is returned for a draft without a hotel name.
	ErrHotelNameRequired = fmt.Errorf("%w: hotel name is required", shared.ErrValidation)
)

// RoomCounts is the room mix booked for an option.
type RoomCounts struct {
	Single       int `json:"single"`
	Double       int `json:"double"`
	Triple       int `json:"triple"`
	Quad         int `json:"quad"`
	ChildWithBed int `json:"childWithBed"`
	ChildNoBed   int `json:"childNoBed"`
}

// Option is one alternative hotel/room choice of an accommodation event.
// OptionNumber is assigned once when the option is attached and never
// renumbered afterwards.
type Option struct {
	HotelName    string     `json:"hotelName"`
	HotelID      string     `json:"hotelId,omitempty"`
	StarCategory string     `json:"starCategory,omitempty"`
	RoomName     string     `json:"roomName,omitempty"`
	MealPlan     string     `json:"mealPlan,omitempty"`
	RoomCounts   RoomCounts `json:"roomCounts"`
	CheckInDate  string     `json:"checkInDate,omitempty"`
	CheckInTime  string     `json:"checkInTime,omitempty"`
	CheckOutDate string     `json:"checkOutDate,omitempty"`
	CheckOutTime string     `json:"checkOutTime,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	OptionNumber int        `json:"optionNumber"`
}

// QuotedPrice returns the option price, or zero when none was quoted.
func (o Option) QuotedPrice() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

func (o Option) clone() Option {
	if o.Price != nil {
		price := *o.Price
		o.Price = &price
	}
	return o
}

func cloneOptions(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = o.clone()
	}
	return out
}

// ValidateOption checks the fields a draft needs before it can be attached.
func ValidateOption(o Option) error {
	if strings.TrimSpace(o.HotelName) == "" {
		return ErrHotelNameRequired
	}
	return nil
}

// LimitError reports that the hotel option cap has been reached.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("you can only add up to %d hotel options", e.Max)
}

// Unwrap lets errors.Is match shared.ErrLimitExceeded.
func (e *LimitError) Unwrap() error {
	return shared.ErrLimitExceeded
}

// IsLimit reports whether err is a LimitError.
func IsLimit(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// OptionManager maintains the hotel options inside accommodation events.
type OptionManager struct {
	maxOptions int
}

// NewOptionManager constructs a manager with the given cap. Values below 1
// fall back to DefaultMaxHotelOptions.
func NewOptionManager(maxOptions int) *OptionManager {
	if maxOptions < 1 {
		maxOptions = DefaultMaxHotelOptions
	}
	return &OptionManager{maxOptions: maxOptions}
}

// MaxOptions returns the configured cap.
func (m *OptionManager) MaxOptions() int {
	return m.maxOptions
}

// NextOptionNumber returns 1 + the highest option number among opts (0 when empty).
func NextOptionNumber(opts []Option) int {
	highest := 0
	for _, o := range opts {
		if o.OptionNumber > highest {
			highest = o.OptionNumber
		}
	}
	return highest + 1
}

// AddOption appends draft to the event's options. The option number is one
// past the highest sibling number. When the cap is reached the event is left
// untouched and a *LimitError is returned.
func (m *OptionManager) AddOption(ev *Event, draft Option) (Option, error) {
	acc, ok := ev.Payload.(Accommodation)
	if !ok {
		return Option{}, ErrNotAccommodation
	}
	if len(acc.HotelOptions) >= m.maxOptions {
		return Option{}, &LimitError{Max: m.maxOptions}
	}
	if err := ValidateOption(draft); err != nil {
		return Option{}, err
	}
	opt := draft.clone()
	opt.OptionNumber = NextOptionNumber(acc.HotelOptions)

	opts := make([]Option, 0, len(acc.HotelOptions)+1)
	opts = append(opts, cloneOptions(acc.HotelOptions)...)
	opts = append(opts, opt)
	ev.Payload = Accommodation{HotelOptions: opts}
	return opt.clone(), nil
}

// UpdateOption replaces the option at index, keeping its option number.
func (m *OptionManager) UpdateOption(ev *Event, index int, draft Option) (Option, error) {
	acc, ok := ev.Payload.(Accommodation)
	if !ok {
		return Option{}, ErrNotAccommodation
	}
	if index < 0 || index >= len(acc.HotelOptions) {
		return Option{}, ErrOptionIndex
	}
	if err := ValidateOption(draft); err != nil {
		return Option{}, err
	}
	opts := cloneOptions(acc.HotelOptions)
	opt := draft.clone()
	opt.OptionNumber = opts[index].OptionNumber
	opts[index] = opt
	ev.Payload = Accommodation{HotelOptions: opts}
	return opt.clone(), nil
}

// RemoveOption deletes the option at index. Survivors keep their numbers.
func (m *OptionManager) RemoveOption(ev *Event, index int) (Option, error) {
	acc, ok := ev.Payload.(Accommodation)
	if !ok {
		return Option{}, ErrNotAccommodation
	}
	if index < 0 || index >= len(acc.HotelOptions) {
		return Option{}, ErrOptionIndex
	}
	removed := acc.HotelOptions[index].clone()
	opts := make([]Option, 0, len(acc.HotelOptions)-1)
	for i, o := range acc.HotelOptions {
		if i == index {
			continue
		}
		opts = append(opts, o.clone())
	}
	ev.Payload = Accommodation{HotelOptions: opts}
	return removed, nil
}
