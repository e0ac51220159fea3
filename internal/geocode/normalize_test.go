package geocode

import (
	"strings"
	"testing"
)

var testStoplist = []string{
	"Россия",
	"Russia",
	"Ханты-Мансийский автономный округ — Югра",
}

func TestLabelUsesStrippedDisplayName(t *testing.T) {
	n := NewNormalizer(testStoplist)

	raw := nominatimPlace{
		DisplayName: "10, улица Мира, Ханты-Мансийск, Ханты-Мансийский автономный округ — Югра, Россия",
	}

	got := n.Label(raw, 61, 69)
	if got != "10, улица Мира, Ханты-Мансийск" {
		t.Fatalf("unexpected label: %q", got)
	}
}

func TestLabelAssemblesFromComponents(t *testing.T) {
	n := NewNormalizer([]string{"Russia"})

	raw := nominatimPlace{
		DisplayName: "short",
		Address: map[string]any{
			"house_number": "10",
			"road":         "Lenina",
			"city":         "Khanty-Mansiysk",
			"state":        "Russia",
		},
	}

	got := n.Label(raw, 61, 69)
	for _, want := range []string{"10", "Lenina", "Khanty-Mansiysk"} {
		if !strings.Contains(got, want) {
			t.Fatalf("label %q missing component %q", got, want)
		}
	}
	if strings.Contains(got, "Russia") {
		t.Fatalf("label %q kept a stoplisted component", got)
	}
}

func TestLabelComponentPrefixes(t *testing.T) {
	n := NewNormalizer(nil)

	cases := []struct {
		name    string
		address map[string]any
		want    string
	}{
		{
			name:    "bare road gets street prefix",
			address: map[string]any{"road": "Гагарина"},
			want:    "ул. Гагарина",
		},
		{
			name:    "marked road kept verbatim",
			address: map[string]any{"road": "проспект Мира"},
			want:    "проспект Мира",
		},
		{
			name:    "abbreviated marker kept verbatim",
			address: map[string]any{"road": "ул. Ленина"},
			want:    "ул. Ленина",
		},
		{
			name:    "house number gets prefix",
			address: map[string]any{"house_number": "10", "road": "шоссе Северное"},
			want:    "д. 10, шоссе Северное",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Label(nominatimPlace{Address: tc.address}, 61, 69)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLabelSkipsDuplicatesAndCaps(t *testing.T) {
	n := NewNormalizer(nil)

	raw := nominatimPlace{
		Address: map[string]any{
			"house_number":  "5",
			"road":          "улица Мира",
			"neighbourhood": "Самарово",
			"suburb":        "самарово",
			"city_district": "Центральный",
			"city":          "Ханты-Мансийск",
			"state":         "Югра",
		},
	}

	got := n.Label(raw, 61, 69)
	if strings.Count(strings.ToLower(got), "самарово") != 1 {
		t.Fatalf("duplicate component survived: %q", got)
	}
	if len(strings.Split(got, ", ")) > maxComponents {
		t.Fatalf("too many components: %q", got)
	}
}

func TestLabelCityRegionFallback(t *testing.T) {
	n := NewNormalizer(testStoplist)

	raw := nominatimPlace{
		Address: map[string]any{
			"village": "Шапша",
			"state":   "Тюменская область",
		},
	}

	got := n.Label(raw, 61, 69.4)
	if got != "Шапша, Тюменская область" {
		t.Fatalf("unexpected fallback label: %q", got)
	}
}

func TestLabelCoordinateFallback(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.Label(nominatimPlace{}, 61.00042, 69.00199)
	if got != "lat 61.00042, lon 69.00199" {
		t.Fatalf("unexpected coordinate label: %q", got)
	}
}

func TestLabelIgnoresNonStringComponents(t *testing.T) {
	n := NewNormalizer(nil)

	raw := nominatimPlace{
		Address: map[string]any{
			"house_number": 10.0,
			"road":         "Строителей",
		},
	}

	got := n.Label(raw, 61, 69)
	if got != "ул. Строителей" {
		t.Fatalf("unexpected label: %q", got)
	}
}

func TestStripCountrySuffixRepeats(t *testing.T) {
	n := NewNormalizer(testStoplist)

	got := n.StripCountrySuffix("Ханты-Мансийск, Ханты-Мансийский автономный округ — Югра, Россия")
	if got != "Ханты-Мансийск" {
		t.Fatalf("expected both trailers removed, got %q", got)
	}
}

func TestCandidateParsesCoordinates(t *testing.T) {
	n := NewNormalizer(nil)

	candidate := n.Candidate(nominatimPlace{
		DisplayName: "улица Мира, Ханты-Мансийск",
		Lat:         "61.0031",
		Lon:         "69.0190",
		OSMID:       42,
		Class:       "highway",
	})

	if candidate.Lat != 61.0031 || candidate.Lon != 69.019 {
		t.Fatalf("coordinates not parsed: %+v", candidate.GeoPoint)
	}
	if candidate.OSMType != "highway" {
		t.Fatalf("expected class fallback for kind, got %q", candidate.OSMType)
	}
	if candidate.OSMID != 42 {
		t.Fatalf("unexpected osm id: %d", candidate.OSMID)
	}
}
