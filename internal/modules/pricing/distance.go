// README: Address-to-distance resolution from static département and city tables.
package pricing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DistanceSource tells which rule produced a distance.
type DistanceSource string

const (
	SourceOverride   DistanceSource = "override"
	SourcePostalCode DistanceSource = "postal_code"
	SourceCity       DistanceSource = "city"
	SourceFallback   DistanceSource = "fallback"
)

// DefaultFallbackKm is used when an address matches no table entry.
const DefaultFallbackKm = 50

// Distance is a one-way depot-to-site distance in whole kilometers.
type Distance struct {
	Km     int
	Source DistanceSource
}

// DistanceResolver maps a free-text address to a distance. Implementations never fail.
type DistanceResolver interface {
	Resolve(address string) Distance
}

// CityDistance is one row of the ordered city table.
type CityDistance struct {
	Name string
	Km   int
}

// DistanceTable is the data behind TableResolver.
type DistanceTable struct {
	Departements map[string]int
	// Cities are matched in order; the first name contained in the address wins.
	Cities     []CityDistance
	FallbackKm int
}

// TableResolver resolves addresses by postal code, then city name, then fallback.
type TableResolver struct {
	departements map[string]int
	cities       []CityDistance
	fallbackKm   int
}

var digitRunRe = regexp.MustCompile(`\d+`)

// NewTableResolver validates the table and normalizes city names.
func NewTableResolver(t DistanceTable) (*TableResolver, error) {
	if t.FallbackKm <= 0 {
		return nil, fmt.Errorf("pricing: fallback distance must be positive, got %d", t.FallbackKm)
	}
	r := &TableResolver{
		departements: make(map[string]int, len(t.Departements)),
		cities:       make([]CityDistance, 0, len(t.Cities)),
		fallbackKm:   t.FallbackKm,
	}
	for code, km := range t.Departements {
		if len(code) != 2 || km <= 0 {
			return nil, fmt.Errorf("pricing: invalid département entry %q=%d", code, km)
		}
		r.departements[code] = km
	}
	for _, c := range t.Cities {
		name := normalizeAddress(c.Name)
		if name == "" || c.Km <= 0 {
			return nil, fmt.Errorf("pricing: invalid city entry %q=%d", c.Name, c.Km)
		}
		r.cities = append(r.cities, CityDistance{Name: name, Km: c.Km})
	}
	return r, nil
}

// NewDefaultResolver builds a resolver over the built-in tables.
func NewDefaultResolver() *TableResolver {
	r, err := NewTableResolver(DefaultDistanceTable())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *TableResolver) Resolve(address string) Distance {
	if km, ok := r.postalCodeKm(address); ok {
		return Distance{Km: km, Source: SourcePostalCode}
	}
	if normalized := normalizeAddress(address); normalized != "" {
		for _, c := range r.cities {
			if strings.Contains(normalized, c.Name) {
				return Distance{Km: c.Km, Source: SourceCity}
			}
		}
	}
	return Distance{Km: r.fallbackKm, Source: SourceFallback}
}

// postalCodeKm looks at every standalone five-digit run and keeps the last
// one with a known prefix. The postal code sits next to the city, after any
// apartment or street number.
func (r *TableResolver) postalCodeKm(address string) (int, bool) {
	runs := digitRunRe.FindAllString(address, -1)
	for i := len(runs) - 1; i >= 0; i-- {
		if len(runs[i]) != 5 {
			continue
		}
		if km, ok := r.departements[runs[i][:2]]; ok {
			return km, true
		}
	}
	return 0, false
}

// normalizeAddress lowercases, strips diacritics and joins words with '-'
// so "Saint Denis" and "Saint-Denis" compare equal.
func normalizeAddress(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\'' || r == '’' || r == '-'
	}), "-")
}

// DefaultDistanceTable returns the distances from the Île-de-France depot.
func DefaultDistanceTable() DistanceTable {
	deps := make(map[string]int, len(departementKm))
	for k, v := range departementKm {
		deps[k] = v
	}
	cities := make([]CityDistance, len(cityKm))
	copy(cities, cityKm)
	return DistanceTable{Departements: deps, Cities: cities, FallbackKm: DefaultFallbackKm}
}
