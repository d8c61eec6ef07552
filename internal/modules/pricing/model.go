// README: Pricing rates, catalog entries and the quote request/result value objects.
package pricing

import "benne/internal/types"

// IncludedDays is the rental period covered by a service's base price.
const IncludedDays = 3

// Request bounds applied when Config leaves them unset.
const (
	DefaultMaxDistanceKm   = 2000
	DefaultMaxDurationDays = 365
)

// Config holds the constant rates applied to every quote.
type Config struct {
	// BaseRentalPrice is used for catalog entries loaded without a base price.
	BaseRentalPrice types.Cents
	TransportPerKm  types.Cents
	// TreatmentPerM3 is the tariff of the default waste type when none is configured.
	TreatmentPerM3 types.Cents
	VATBps         int64
	DocumentFee    types.Cents
	IncludedDays   int
	// MaxDistanceKm and MaxDurationDays bound what a request may ask for.
	MaxDistanceKm   int
	MaxDurationDays int
}

// ServiceEntry is one container variant of the catalog.
type ServiceEntry struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	VolumeM3    float64     `json:"volume_m3"`
	BasePrice   types.Cents `json:"base_price"`
	PricePerDay types.Cents `json:"price_per_day"`
}

// WasteRate is the treatment tariff of a waste type, per cubic meter.
type WasteRate struct {
	Key        string      `json:"key"`
	Label      string      `json:"label,omitempty"`
	PricePerM3 types.Cents `json:"price_per_m3"`
	Default    bool        `json:"default"`
}

// QuoteRequest is built fresh for every quote.
type QuoteRequest struct {
	ServiceID    string `json:"service_id"`
	WasteType    string `json:"waste_type"`
	Address      string `json:"address"`
	DurationDays int    `json:"duration_days"`
	// DistanceKm overrides address resolution when set and positive.
	DistanceKm  *int `json:"distance_km,omitempty"`
	DocumentFee bool `json:"document_fee"`
}

type Breakdown struct {
	BasePrice      types.Cents `json:"base_price"`
	ExtraDaysPrice types.Cents `json:"extra_days_price"`
	TransportCost  types.Cents `json:"transport_cost"`
	TreatmentCost  types.Cents `json:"treatment_cost"`
	DocumentFee    types.Cents `json:"document_fee"`
}

type Totals struct {
	TotalHT  types.Cents `json:"total_ht"`
	Tax      types.Cents `json:"tax"`
	TotalTTC types.Cents `json:"total_ttc"`
	Currency string      `json:"currency"`
}

type Details struct {
	ServiceID          string         `json:"service_id"`
	ServiceName        string         `json:"service_name"`
	DistanceKm         int            `json:"distance_km"`
	DistanceSource     DistanceSource `json:"distance_source"`
	DurationDays       int            `json:"duration_days"`
	ExtraDays          int            `json:"extra_days"`
	WasteType          string         `json:"waste_type"`
	WasteTypeDefaulted bool           `json:"waste_type_defaulted"`
	VolumeM3           float64        `json:"volume_m3"`
}

// QuoteResult is the full price breakdown returned for a request.
type QuoteResult struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
	Details   Details   `json:"details"`
}
