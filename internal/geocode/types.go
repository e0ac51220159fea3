// Package geocode implements the address resolution layer: free-text
// search, forward geocoding and reverse geocoding against a set of
// Nominatim mirrors, with caching, endpoint fallback and best-effort
// degradation. Upstream failures never surface to callers; every
// operation degrades to the next-best heuristic instead.
package geocode

// SRID is the spatial reference identifier the persistence layer stores
// coordinates under (geographic WGS-84).
const SRID = 4326

// GeoPoint is an immutable WGS-84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InRange reports whether the point is a valid geographic coordinate.
func (p GeoPoint) InRange() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// AddressCandidate is one resolved suggestion returned to the issue
// creation workflow. Produced only by the normalizer and never mutated
// after creation.
type AddressCandidate struct {
	DisplayName string `json:"display_name"`
	GeoPoint
	Address map[string]string `json:"address"`
	OSMID   int64             `json:"osm_id,omitempty"`
	OSMType string            `json:"osm_type,omitempty"`
}

// GeocodeResult is the outcome of a forward geocode: the canonical label
// and the resolved point.
type GeocodeResult struct {
	DisplayName string `json:"address"`
	GeoPoint
}

// nominatimPlace mirrors the relevant parts of the provider payload.
// Search responses are lists of these; reverse responses a single object.
// Address values are declared as any because the provider occasionally
// emits non-string component values.
type nominatimPlace struct {
	DisplayName string         `json:"display_name"`
	Lat         string         `json:"lat"`
	Lon         string         `json:"lon"`
	Address     map[string]any `json:"address"`
	OSMID       int64          `json:"osm_id"`
	OSMType     string         `json:"osm_type"`
	Class       string         `json:"class"`
	Error       string         `json:"error"`
}
