package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultGeocodeProfileIsValid(t *testing.T) {
	profile := DefaultGeocodeProfile()
	if err := profile.validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	if len(profile.SearchEndpoints) != len(profile.ReverseEndpoints) {
		t.Fatal("expected matching search and reverse mirror lists")
	}
}

func TestGeocodeProfileFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
home_locality: Сургут
default_lat: 61.25
default_lon: 73.41
search_endpoints:
  - https://nominatim.example.org/search
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write profile file: %v", err)
	}

	profile := DefaultGeocodeProfile()
	if err := profile.applyFile(path); err != nil {
		t.Fatalf("overlay failed: %v", err)
	}

	if profile.HomeLocality != "Сургут" {
		t.Fatalf("home locality not overridden: %q", profile.HomeLocality)
	}
	if profile.DefaultLat != 61.25 || profile.DefaultLon != 73.41 {
		t.Fatalf("default point not overridden: %v, %v", profile.DefaultLat, profile.DefaultLon)
	}
	if len(profile.SearchEndpoints) != 1 {
		t.Fatalf("search endpoints not replaced: %v", profile.SearchEndpoints)
	}
	// Fields absent from the file keep their defaults.
	if profile.CountryCodes != "ru" {
		t.Fatalf("unrelated field was reset: %q", profile.CountryCodes)
	}
	if len(profile.ReverseEndpoints) != 3 {
		t.Fatalf("reverse endpoints should keep defaults: %v", profile.ReverseEndpoints)
	}
}

func TestGeocodeProfileOverlayRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("user_agent: ''\n"), 0o600); err != nil {
		t.Fatalf("failed to write profile file: %v", err)
	}

	profile := DefaultGeocodeProfile()
	profile.UserAgent = ""
	if err := profile.applyFile(path); err == nil {
		t.Fatal("expected validation to reject a profile without a user agent")
	}
}

func TestGeocodeBucketContains(t *testing.T) {
	bucket := GeocodeBucket{Label: "Ханты-Мансийск", MinLon: 68.75, MaxLon: 69.30, MinLat: 60.75, MaxLat: 61.15}

	if !bucket.Contains(61.0042, 69.0019) {
		t.Fatal("expected the city center inside the bucket")
	}
	if bucket.Contains(61.25, 73.41) {
		t.Fatal("expected a distant point outside the bucket")
	}
	// Boundary points are inside.
	if !bucket.Contains(60.75, 68.75) {
		t.Fatal("expected the corner point inside the bucket")
	}
}
