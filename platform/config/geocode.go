package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GeocodeBucket is one entry of the static locality fallback table:
// a bounding box and the label returned for coordinates inside it.
type GeocodeBucket struct {
	Label  string  `yaml:"label"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
}

// Contains reports whether the point falls inside the bucket.
func (b GeocodeBucket) Contains(lat, lon float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// GeocodeProfile is the regional configuration of the geocoding resolver:
// upstream mirrors, the deployment's viewbox and locality, and cache policy.
type GeocodeProfile struct {
	SearchEndpoints  []string `yaml:"search_endpoints"`
	ReverseEndpoints []string `yaml:"reverse_endpoints"`

	UserAgent      string `yaml:"user_agent"`
	AcceptLanguage string `yaml:"accept_language"`
	CountryCodes   string `yaml:"country_codes"`

	// Viewbox is the bounded-search rectangle as "min_lon,max_lat,max_lon,min_lat".
	Viewbox string `yaml:"viewbox"`

	HomeLocality string  `yaml:"home_locality"`
	DefaultLat   float64 `yaml:"default_lat"`
	DefaultLon   float64 `yaml:"default_lon"`

	// Stoplist holds region/country names dropped from assembled labels.
	Stoplist []string        `yaml:"stoplist"`
	Buckets  []GeocodeBucket `yaml:"buckets"`

	HostSpacing    time.Duration `yaml:"-"`
	BoundedTimeout time.Duration `yaml:"-"`
	WideTimeout    time.Duration `yaml:"-"`

	SearchTTL  time.Duration `yaml:"-"`
	GeocodeTTL time.Duration `yaml:"-"`
	ReverseTTL time.Duration `yaml:"-"`
}

// DefaultGeocodeProfile returns the built-in profile matching the
// Khanty-Mansiysk deployment.
func DefaultGeocodeProfile() GeocodeProfile {
	return GeocodeProfile{
		SearchEndpoints: []string{
			"https://nominatim.openstreetmap.org/search",
			"https://nominatim.sulmax.net/search",
			"https://nominatim.aurora.sherp.ru/search",
		},
		ReverseEndpoints: []string{
			"https://nominatim.openstreetmap.org/reverse",
			"https://nominatim.sulmax.net/reverse",
			"https://nominatim.aurora.sherp.ru/reverse",
		},
		UserAgent:      "Khanty-Mansiysk-Issues/1.0 (you@example.com)",
		AcceptLanguage: "ru-RU,ru",
		CountryCodes:   "ru",
		Viewbox:        "68.75,61.15,69.30,60.75",
		HomeLocality:   "Ханты-Мансийск",
		DefaultLat:     61.0042,
		DefaultLon:     69.0019,
		Stoplist: []string{
			"Россия",
			"Russia",
			"Ханты-Мансийский автономный округ — Югра",
		},
		Buckets: []GeocodeBucket{
			{Label: "Ханты-Мансийск", MinLon: 68.75, MaxLon: 69.30, MinLat: 60.75, MaxLat: 61.15},
			{Label: "Шапша", MinLon: 69.30, MaxLon: 69.60, MinLat: 60.95, MaxLat: 61.10},
			{Label: "Горноправдинск", MinLon: 69.80, MaxLon: 70.15, MinLat: 60.00, MaxLat: 60.25},
		},
		HostSpacing:    500 * time.Millisecond,
		BoundedTimeout: 5 * time.Second,
		WideTimeout:    10 * time.Second,
		SearchTTL:      6 * time.Hour,
		GeocodeTTL:     24 * time.Hour,
		ReverseTTL:     7 * 24 * time.Hour,
	}
}

// applyFile overlays a YAML profile on top of the receiver. Only fields
// present in the file are replaced.
func (p *GeocodeProfile) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overlay GeocodeProfile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return err
	}

	if len(overlay.SearchEndpoints) > 0 {
		p.SearchEndpoints = overlay.SearchEndpoints
	}
	if len(overlay.ReverseEndpoints) > 0 {
		p.ReverseEndpoints = overlay.ReverseEndpoints
	}
	if overlay.UserAgent != "" {
		p.UserAgent = overlay.UserAgent
	}
	if overlay.AcceptLanguage != "" {
		p.AcceptLanguage = overlay.AcceptLanguage
	}
	if overlay.CountryCodes != "" {
		p.CountryCodes = overlay.CountryCodes
	}
	if overlay.Viewbox != "" {
		p.Viewbox = overlay.Viewbox
	}
	if overlay.HomeLocality != "" {
		p.HomeLocality = overlay.HomeLocality
	}
	if overlay.DefaultLat != 0 || overlay.DefaultLon != 0 {
		p.DefaultLat = overlay.DefaultLat
		p.DefaultLon = overlay.DefaultLon
	}
	if len(overlay.Stoplist) > 0 {
		p.Stoplist = overlay.Stoplist
	}
	if len(overlay.Buckets) > 0 {
		p.Buckets = overlay.Buckets
	}

	return p.validate()
}

func (p *GeocodeProfile) validate() error {
	if len(p.SearchEndpoints) == 0 {
		return fmt.Errorf("at least one search endpoint is required")
	}
	if len(p.ReverseEndpoints) == 0 {
		return fmt.Errorf("at least one reverse endpoint is required")
	}
	if p.UserAgent == "" {
		return fmt.Errorf("user_agent is required by the upstream usage policy")
	}
	return nil
}
