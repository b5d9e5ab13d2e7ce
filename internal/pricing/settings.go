package pricing

// Settings are the global markup and tax parameters shared by every option.
// They are plain scalars with no derived state.
type Settings struct {
	BaseMarkupPct     float64 `json:"baseMarkupPct" validate:"gte=0,lte=1000"`
	ExtraMarkupAmount float64 `json:"extraMarkupAmount" validate:"gte=0"`
	CGSTPct           float64 `json:"cgstPct" validate:"gte=0,lte=100"`
	SGSTPct           float64 `json:"sgstPct" validate:"gte=0,lte=100"`
	IGSTPct           float64 `json:"igstPct" validate:"gte=0,lte=100"`
	TCSPct            float64 `json:"tcsPct" validate:"gte=0,lte=100"`
	DiscountAmount    float64 `json:"discountAmount" validate:"gte=0"`
}
