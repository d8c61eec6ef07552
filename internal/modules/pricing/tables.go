// README: Lookup tables for container services and waste tariffs, with built-in defaults.
package pricing

import (
	"fmt"
	"sort"

	"benne/internal/types"
)

// DefaultWasteType is the catch-all tariff applied to unknown waste types.
const DefaultWasteType = "tout_venant"

// Tables is the immutable set of lookup tables used by the calculator.
type Tables struct {
	services     map[string]ServiceEntry
	wasteRates   map[string]WasteRate
	defaultWaste WasteRate
}

// NewTables validates and indexes the catalog and waste tariffs.
// defaultWaste must name an entry of rates.
func NewTables(services []ServiceEntry, rates []WasteRate, defaultWaste string) (*Tables, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("pricing: empty service catalog")
	}
	t := &Tables{
		services:   make(map[string]ServiceEntry, len(services)),
		wasteRates: make(map[string]WasteRate, len(rates)),
	}
	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("pricing: service without id")
		}
		if s.VolumeM3 <= 0 || s.BasePrice < 0 || s.PricePerDay < 0 {
			return nil, fmt.Errorf("pricing: service %q has invalid rates", s.ID)
		}
		if _, dup := t.services[s.ID]; dup {
			return nil, fmt.Errorf("pricing: duplicate service %q", s.ID)
		}
		t.services[s.ID] = s
	}
	for _, r := range rates {
		if r.PricePerM3 < 0 {
			return nil, fmt.Errorf("pricing: waste type %q has a negative rate", r.Key)
		}
		r.Default = r.Key == defaultWaste
		t.wasteRates[r.Key] = r
	}
	def, ok := t.wasteRates[defaultWaste]
	if !ok {
		return nil, fmt.Errorf("pricing: default waste type %q not in table", defaultWaste)
	}
	t.defaultWaste = def
	return t, nil
}

// Service returns the catalog entry for id.
func (t *Tables) Service(id string) (ServiceEntry, bool) {
	s, ok := t.services[id]
	return s, ok
}

// WasteRate returns the tariff for key, or the default tariff and false.
func (t *Tables) WasteRate(key string) (WasteRate, bool) {
	if r, ok := t.wasteRates[key]; ok {
		return r, true
	}
	return t.defaultWaste, false
}

// Services lists the catalog ordered by volume.
func (t *Tables) Services() []ServiceEntry {
	out := make([]ServiceEntry, 0, len(t.services))
	for _, s := range t.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VolumeM3 == out[j].VolumeM3 {
			return out[i].ID < out[j].ID
		}
		return out[i].VolumeM3 < out[j].VolumeM3
	})
	return out
}

// WasteRates lists the tariffs ordered by key.
func (t *Tables) WasteRates() []WasteRate {
	out := make([]WasteRate, 0, len(t.wasteRates))
	for _, r := range t.wasteRates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DefaultServices is the standard skip range.
func DefaultServices() []ServiceEntry {
	return []ServiceEntry{
		{ID: "benne-3m3", Name: "Benne 3m³", VolumeM3: 3, BasePrice: 12000, PricePerDay: 1500},
		{ID: "benne-6m3", Name: "Benne 6m³", VolumeM3: 6, BasePrice: 15000, PricePerDay: 2000},
		{ID: "benne-8m3", Name: "Benne 8m³", VolumeM3: 8, BasePrice: 16500, PricePerDay: 2000},
		{ID: "benne-10m3", Name: "Benne 10m³", VolumeM3: 10, BasePrice: 18000, PricePerDay: 2500},
		{ID: "benne-15m3", Name: "Benne 15m³", VolumeM3: 15, BasePrice: 22000, PricePerDay: 3000},
		{ID: "benne-20m3", Name: "Benne 20m³", VolumeM3: 20, BasePrice: 26000, PricePerDay: 3500},
		{ID: "benne-30m3", Name: "Benne 30m³", VolumeM3: 30, BasePrice: 32000, PricePerDay: 4000},
	}
}

// DefaultWasteRates is the standard tariff grid, including the catch-all entry.
func DefaultWasteRates() []WasteRate {
	return []WasteRate{
		{Key: "gravats", Label: "Gravats", PricePerM3: 4500},
		{Key: "bois", Label: "Bois", PricePerM3: 3500},
		{Key: "metal", Label: "Métaux", PricePerM3: 1000},
		{Key: "dechets_verts", Label: "Déchets verts", PricePerM3: 3000},
		{Key: "carton", Label: "Cartons et papiers", PricePerM3: 2000},
		{Key: "platre", Label: "Plâtre", PricePerM3: 6000},
		{Key: "terre", Label: "Terre", PricePerM3: 2500},
		{Key: "dib", Label: "Déchets industriels banals", PricePerM3: 5500},
		{Key: DefaultWasteType, Label: "Tout venant", PricePerM3: 6500},
	}
}

// DefaultConfig holds the standard rates.
func DefaultConfig() Config {
	return Config{
		BaseRentalPrice: 18000,
		TransportPerKm:  120,
		TreatmentPerM3:  6500,
		VATBps:          2000,
		DocumentFee:     1500,
		IncludedDays:    IncludedDays,
		MaxDistanceKm:   DefaultMaxDistanceKm,
		MaxDurationDays: DefaultMaxDurationDays,
	}
}

// MustDefaultTables builds the tables from the built-in defaults.
func MustDefaultTables() *Tables {
	t, err := NewTables(DefaultServices(), DefaultWasteRates(), DefaultWasteType)
	if err != nil {
		panic(err)
	}
	return t
}

// normalizeServices fills missing base prices from the configured base rental price.
func normalizeServices(in []ServiceEntry, base types.Cents) []ServiceEntry {
	out := make([]ServiceEntry, len(in))
	for i, s := range in {
		if s.BasePrice == 0 {
			s.BasePrice = base
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		out[i] = s
	}
	return out
}

// BuildTables assembles tables from loaded entries, applying cfg defaults.
// When rates has no entry for defaultWaste, one is added at cfg.TreatmentPerM3.
func BuildTables(cfg Config, services []ServiceEntry, rates []WasteRate, defaultWaste string) (*Tables, error) {
	if defaultWaste == "" {
		defaultWaste = DefaultWasteType
	}
	found := false
	for _, r := range rates {
		if r.Key == defaultWaste {
			found = true
			break
		}
	}
	if !found {
		rates = append(rates, WasteRate{Key: defaultWaste, PricePerM3: cfg.TreatmentPerM3})
	}
	return NewTables(normalizeServices(services, cfg.BaseRentalPrice), rates, defaultWaste)
}
