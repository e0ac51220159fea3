package geocode

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// minLabelRunes is the minimum length for a provider label to be used
	// as-is; shorter labels trigger manual address assembly.
	minLabelRunes = 8
	// maxComponents caps how many address components join an assembled label.
	maxComponents = 5
)

// componentOrder is the fixed priority order for address assembly:
// house number, thoroughfare, then progressively coarser localities.
var componentOrder = []string{
	"house_number",
	"road",
	"pedestrian",
	"neighbourhood",
	"suburb",
	"city_district",
	"city",
	"town",
	"village",
	"state",
}

// cityKeys are the locality-level components, in pick order.
var cityKeys = []string{"city", "town", "village"}

// roadMarkers are thoroughfare words that indicate a road value already
// carries its own type prefix.
var roadMarkers = map[string]struct{}{
	"ул": {}, "улица": {}, "просп": {}, "проспект": {}, "пр-т": {},
	"пер": {}, "переулок": {}, "проезд": {}, "шоссе": {}, "бульвар": {},
	"наб": {}, "набережная": {}, "тракт": {},
}

// Normalizer converts raw provider records into AddressCandidates.
// It never fails: any parsing problem degrades to a coordinate label.
type Normalizer struct {
	stopNames []string
	stopset   map[string]struct{}
}

// NewNormalizer creates a normalizer with the given stoplist of region
// and country names treated as redundant noise in labels.
func NewNormalizer(stoplist []string) *Normalizer {
	stopset := make(map[string]struct{}, len(stoplist))
	for _, name := range stoplist {
		stopset[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return &Normalizer{
		stopNames: stoplist,
		stopset:   stopset,
	}
}

// Candidate builds an AddressCandidate from a raw provider record.
func (n *Normalizer) Candidate(raw nominatimPlace) AddressCandidate {
	lat, _ := strconv.ParseFloat(strings.TrimSpace(raw.Lat), 64)
	lon, _ := strconv.ParseFloat(strings.TrimSpace(raw.Lon), 64)

	kind := raw.OSMType
	if kind == "" {
		kind = raw.Class
	}

	return AddressCandidate{
		DisplayName: n.Label(raw, lat, lon),
		GeoPoint:    GeoPoint{Lat: lat, Lon: lon},
		Address:     stringComponents(raw.Address),
		OSMID:       raw.OSMID,
		OSMType:     kind,
	}
}

// Label derives the best available human-readable label for a record.
// lat and lon feed the coordinate fallback when nothing else is usable.
func (n *Normalizer) Label(raw nominatimPlace, lat, lon float64) string {
	label := n.StripCountrySuffix(strings.TrimSpace(raw.DisplayName))
	if utf8.RuneCountInString(label) >= minLabelRunes {
		return label
	}

	if assembled := n.assemble(raw.Address); assembled != "" {
		return assembled
	}

	if fallback := n.cityRegion(raw.Address); fallback != "" {
		return fallback
	}

	return coordinateLabel(lat, lon)
}

// StripCountrySuffix removes trailing ", <country/region-name>" trailers
// matching the stoplist, repeatedly, so "…, Округ, Россия" loses both.
func (n *Normalizer) StripCountrySuffix(label string) string {
	for changed := true; changed; {
		changed = false
		for _, name := range n.stopNames {
			suffix := ", " + name
			if len(label) > len(suffix) && strings.EqualFold(label[len(label)-len(suffix):], suffix) {
				label = strings.TrimSpace(label[:len(label)-len(suffix)])
				changed = true
			}
		}
	}
	return label
}

func (n *Normalizer) assemble(address map[string]any) string {
	parts := make([]string, 0, maxComponents)
	seen := make(map[string]struct{})

	for _, key := range componentOrder {
		if len(parts) == maxComponents {
			break
		}

		value, ok := stringValue(address[key])
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || n.stopped(value) {
			continue
		}

		lower := strings.ToLower(value)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		parts = append(parts, formatComponent(key, value))
	}

	return strings.Join(parts, ", ")
}

// cityRegion is the "{city}, {region}" fallback when no components
// survive assembly.
func (n *Normalizer) cityRegion(address map[string]any) string {
	var city string
	for _, key := range cityKeys {
		if value, ok := stringValue(address[key]); ok && strings.TrimSpace(value) != "" {
			city = strings.TrimSpace(value)
			break
		}
	}
	if city == "" {
		return ""
	}

	region, _ := stringValue(address["state"])
	region = strings.TrimSpace(region)
	if region == "" || n.stopped(region) || strings.EqualFold(region, city) {
		return city
	}
	return city + ", " + region
}

func (n *Normalizer) stopped(value string) bool {
	_, ok := n.stopset[strings.ToLower(value)]
	return ok
}

// formatComponent applies locale abbreviation prefixes to house numbers
// and unmarked thoroughfare names.
func formatComponent(key, value string) string {
	lower := strings.ToLower(value)
	switch key {
	case "house_number":
		if !strings.HasPrefix(lower, "д.") && !strings.HasPrefix(lower, "дом") {
			return "д. " + value
		}
	case "road", "pedestrian":
		for _, word := range strings.Fields(lower) {
			if _, marked := roadMarkers[strings.TrimRight(word, ".")]; marked {
				return value
			}
		}
		return "ул. " + value
	}
	return value
}

func coordinateLabel(lat, lon float64) string {
	return fmt.Sprintf("lat %.5f, lon %.5f", lat, lon)
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// stringComponents keeps only the string-valued entries of a raw
// provider address block.
func stringComponents(address map[string]any) map[string]string {
	out := make(map[string]string, len(address))
	for key, value := range address {
		if s, ok := stringValue(value); ok {
			out[key] = s
		}
	}
	return out
}
