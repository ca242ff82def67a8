// Package zone classifies delivery destinations into shipping zones.
//
// The registry is static and read-only; lookups never fall back to a default
// zone. Callers decide how to price an unresolved destination.
package zone

import (
	"cmp"
	"slices"
	"strings"

	"storefront/internal/domain"
)

// Class is the delivery classification of a destination.
type Class string

const (
	Metro Class = "metro"
	Urban Class = "urban"
	Rural Class = "rural"
)

// Zone carries the shipping terms for a class.
type Zone struct {
	Class                 Class        `json:"class"`
	BaseRate              domain.Money `json:"baseRate"`
	FreeShippingThreshold domain.Money `json:"freeShippingThreshold"`
	EstimatedDays         int          `json:"estimatedDays"`
}

// Location is a named destination mapped to a class.
type Location struct {
	ID       string
	Name     string
	Class    Class
	Prefixes []string
}

// Registry resolves locations and postal codes to zones within one country.
type Registry struct {
	country   string
	zones     map[Class]Zone
	locations map[string]Location
	prefixes  map[string]Class
	prefixLen int
}

// NewRegistry builds a registry for country (ISO 3166-1 alpha-2). Location
// ids are matched case-insensitively.
func NewRegistry(country string, zones []Zone, locations []Location, prefixLen int) *Registry {
	r := &Registry{
		country:   strings.ToUpper(strings.TrimSpace(country)),
		zones:     make(map[Class]Zone, len(zones)),
		locations: make(map[string]Location, len(locations)),
		prefixes:  make(map[string]Class),
		prefixLen: prefixLen,
	}
	for _, z := range zones {
		r.zones[z.Class] = z
	}
	for _, loc := range locations {
		r.locations[normalize(loc.ID)] = loc
		for _, p := range loc.Prefixes {
			r.prefixes[p] = loc.Class
		}
	}
	return r
}

// Zone returns the terms for a class.
func (r *Registry) Zone(c Class) (Zone, bool) {
	z, ok := r.zones[c]
	return z, ok
}

// ByLocation resolves an opaque location id such as a city slug.
func (r *Registry) ByLocation(id string) (Zone, bool) {
	loc, ok := r.locations[normalize(id)]
	if !ok {
		return Zone{}, false
	}
	return r.Zone(loc.Class)
}

// ByPostalCode resolves the first prefixLen characters of a postal code.
func (r *Registry) ByPostalCode(code string) (Zone, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if r.prefixLen <= 0 || len(code) < r.prefixLen {
		return Zone{}, false
	}
	class, ok := r.prefixes[code[:r.prefixLen]]
	if !ok {
		return Zone{}, false
	}
	return r.Zone(class)
}

// Country returns the country the registry covers.
func (r *Registry) Country() string {
	return r.country
}

// Resolve tries the city first and then the postal code. An address in
// another country never resolves; an empty country is taken as domestic.
func (r *Registry) Resolve(addr domain.Address) (Zone, bool) {
	if c := strings.TrimSpace(addr.Country); c != "" && !strings.EqualFold(c, r.country) {
		return Zone{}, false
	}
	if z, ok := r.ByLocation(addr.City); ok {
		return z, true
	}
	return r.ByPostalCode(addr.PostalCode)
}

// Locations lists known locations sorted by id. An empty class lists all.
func (r *Registry) Locations(c Class) []Location {
	out := make([]Location, 0, len(r.locations))
	for _, loc := range r.locations {
		if c == "" || loc.Class == c {
			out = append(out, loc)
		}
	}
	slices.SortFunc(out, func(a, b Location) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.Join(strings.Fields(id), "-")
}
