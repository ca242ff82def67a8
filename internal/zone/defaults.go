package zone

import "storefront/internal/domain"

const (
	// DefaultCountry is the country the built-in registry covers.
	DefaultCountry = "PK"
	// PostalPrefixLen is the number of leading postal-code characters matched.
	PostalPrefixLen = 2
)

var defaultZones = []Zone{
	{Class: Metro, BaseRate: domain.Major(200), FreeShippingThreshold: domain.Major(2500), EstimatedDays: 2},
	{Class: Urban, BaseRate: domain.Major(250), FreeShippingThreshold: domain.Major(3500), EstimatedDays: 3},
	{Class: Rural, BaseRate: domain.Major(300), FreeShippingThreshold: domain.Major(5000), EstimatedDays: 6},
}

var defaultLocations = []Location{
	{ID: "karachi", Name: "Karachi", Class: Metro, Prefixes: []string{"74", "75"}},
	{ID: "lahore", Name: "Lahore", Class: Metro, Prefixes: []string{"54"}},
	{ID: "islamabad", Name: "Islamabad", Class: Metro, Prefixes: []string{"44"}},
	{ID: "rawalpindi", Name: "Rawalpindi", Class: Metro, Prefixes: []string{"46"}},
	{ID: "faisalabad", Name: "Faisalabad", Class: Urban, Prefixes: []string{"38"}},
	{ID: "multan", Name: "Multan", Class: Urban, Prefixes: []string{"60"}},
	{ID: "peshawar", Name: "Peshawar", Class: Urban, Prefixes: []string{"25"}},
	{ID: "quetta", Name: "Quetta", Class: Urban, Prefixes: []string{"87"}},
	{ID: "hyderabad", Name: "Hyderabad", Class: Urban, Prefixes: []string{"71"}},
	{ID: "sialkot", Name: "Sialkot", Class: Urban, Prefixes: []string{"51"}},
	{ID: "gujranwala", Name: "Gujranwala", Class: Urban, Prefixes: []string{"52"}},
	{ID: "gilgit", Name: "Gilgit", Class: Rural, Prefixes: []string{"15"}},
	{ID: "skardu", Name: "Skardu", Class: Rural, Prefixes: []string{"16"}},
	{ID: "chitral", Name: "Chitral", Class: Rural, Prefixes: []string{"17"}},
	{ID: "turbat", Name: "Turbat", Class: Rural, Prefixes: []string{"92"}},
	{ID: "zhob", Name: "Zhob", Class: Rural, Prefixes: []string{"85"}},
}

// Default returns the built-in domestic registry.
func Default() *Registry {
	return NewRegistry(DefaultCountry, defaultZones, defaultLocations, PostalPrefixLen)
}
