// Package geo resolves city names to coordinates from a fixed table.
package geo

import "strings"

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Default is returned for names missing from the table: Astana.
var Default = Coordinates{Lat: 51.1605, Lng: 71.4704}

var cities = map[string]Coordinates{
	// Kazakhstan
	"алматы":          {43.238949, 76.889709},
	"алмата":          {43.238949, 76.889709},
	"астана":          {51.1605, 71.4704},
	"нур-султан":      {51.1605, 71.4704},
	"нур султан":      {51.1605, 71.4704},
	"шымкент":         {42.3417, 69.5901},
	"караганда":       {49.8065, 73.0871},
	"таразы":          {42.9046, 71.3894},
	"уст-каменогорск": {49.9761, 82.6061},
	"павлодар":        {52.2833, 76.9667},
	"костанай":        {53.222, 63.619},
	"аттырау":         {47.1308, 51.9234},
	"уральск":         {51.2401, 51.2012},
	"актау":           {44.9989, 51.8892},

	// Russia
	"москва":          {55.7558, 37.6176},
	"санкт-петербург": {59.9311, 30.3609},
	"новосибирск":     {55.0084, 82.9357},
	"екатеринбург":    {56.8389, 60.6057},
	"казань":          {55.8304, 49.0661},
	"самара":          {53.1959, 50.1000},
	"омск":            {54.9893, 73.3682},
	"челябинск":       {55.1644, 61.4368},
	"ростов-на-дону":  {47.2357, 39.7015},
	"уфа":             {54.7388, 55.9721},
	"волгоград":       {48.7080, 44.5133},
	"краснодар":       {45.0443, 38.9760},
	"воронеж":         {51.6615, 39.2003},
	"нижний новгород": {56.2965, 43.9361},
	"пермь":           {58.0000, 56.2500},
}

// Normalize trims and case-folds a city or location name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resolve returns the coordinates for name, or Default when the name is unknown.
func Resolve(name string) Coordinates {
	c, _ := Lookup(name)
	return c
}

// Lookup is Resolve that also reports whether the name was in the table.
func Lookup(name string) (Coordinates, bool) {
	if c, ok := cities[Normalize(name)]; ok {
		return c, true
	}
	return Default, false
}
