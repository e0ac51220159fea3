package geocode

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"issuemap_backend/internal/events"
	"issuemap_backend/platform/cache"
	"issuemap_backend/platform/config"
	"issuemap_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

const (
	// minQueryRunes is the minimum trimmed query length dispatched upstream.
	minQueryRunes = 3
	// minUsableDisplay drops bounded-search candidates with labels this
	// short or shorter.
	minUsableDisplay = 5

	defaultLimit = 5
	maxLimit     = 5

	// reverseZoom requests street-level detail from the reverse endpoint.
	reverseZoom = "18"
)

// Resolver orchestrates the public operations: search, forward geocode
// and reverse geocode. It tries endpoints and strategies in priority
// order and degrades to heuristics rather than returning errors, because
// the issue-creation workflow must not be blockable by an upstream outage.
type Resolver struct {
	profile config.GeocodeProfile
	client  *Client
	store   cache.Store
	norm    *Normalizer
	log     *logger.Logger
	bus     events.Bus

	// flight collapses concurrent identical lookups into one upstream call.
	flight singleflight.Group
}

// NewResolver creates a resolver over the given provider client and
// cache store. bus may be nil; resolution events are then dropped.
func NewResolver(profile config.GeocodeProfile, client *Client, store cache.Store, bus events.Bus, log *logger.Logger) *Resolver {
	return &Resolver{
		profile: profile,
		client:  client,
		store:   store,
		norm:    NewNormalizer(profile.Stoplist),
		log:     log,
		bus:     bus,
	}
}

type searchResult struct {
	candidates []AddressCandidate
	outcome    string
	endpoint   string
	cacheHit   bool
}

// SearchAddress resolves a free-text query into up to limit suggestions.
// Queries shorter than three characters return an empty list without any
// upstream call. Never returns an error.
func (r *Resolver) SearchAddress(ctx context.Context, query string, limit int) []AddressCandidate {
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < minQueryRunes {
		return []AddressCandidate{}
	}

	start := time.Now()
	result := r.search(ctx, trimmed, limit)
	r.emit(ctx, "search", result.outcome, trimmed, result.endpoint, result.cacheHit, time.Since(start))

	candidates := result.candidates
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// GeocodeAddress resolves one address to its canonical label and point.
// The second return value is false when nothing was found (which, given
// the fallback candidate, only happens for queries too short to dispatch).
func (r *Resolver) GeocodeAddress(ctx context.Context, address string) (GeocodeResult, bool) {
	trimmed := strings.TrimSpace(address)
	if utf8.RuneCountInString(trimmed) < minQueryRunes {
		return GeocodeResult{}, false
	}

	start := time.Now()
	key := cacheKey("geocode", map[string]string{"q": address})

	if payload, ok := r.cacheGet(ctx, key); ok {
		var cached GeocodeResult
		if err := json.Unmarshal(payload, &cached); err == nil {
			r.emit(ctx, "geocode", OutcomeResolved, trimmed, "", true, time.Since(start))
			return cached, true
		}
	}

	found := r.search(ctx, trimmed, 1)
	if len(found.candidates) == 0 {
		r.emit(ctx, "geocode", OutcomeFallback, trimmed, "", found.cacheHit, time.Since(start))
		return GeocodeResult{}, false
	}

	first := found.candidates[0]
	result := GeocodeResult{DisplayName: first.DisplayName, GeoPoint: first.GeoPoint}

	// Only provider-confirmed results earn the long forward-geocode TTL;
	// synthetic fallbacks stay on the shorter search cache.
	if found.outcome != OutcomeFallback {
		if payload, err := json.Marshal(result); err == nil {
			r.cacheSet(ctx, key, payload, r.profile.GeocodeTTL)
		}
	}

	r.emit(ctx, "geocode", found.outcome, trimmed, found.endpoint, found.cacheHit, time.Since(start))
	return result, true
}

// ReverseGeocode resolves a coordinate to a human-readable label. It
// always returns a non-empty string: provider label, locality bucket
// label, or a coordinate label, in that order of preference.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	start := time.Now()
	query := coordKey(lat) + "," + coordKey(lon)
	key := cacheKey("reverse", map[string]string{"lat": coordKey(lat), "lon": coordKey(lon)})

	if payload, ok := r.cacheGet(ctx, key); ok {
		r.emit(ctx, "reverse_geocode", OutcomeResolved, query, "", true, time.Since(start))
		return string(payload)
	}

	type reverseResult struct {
		label    string
		outcome  string
		endpoint string
	}

	v, _, _ := r.flight.Do(key, func() (any, error) {
		label, outcome, endpoint := r.fetchReverse(ctx, lat, lon)
		if outcome == OutcomeResolved {
			r.cacheSet(ctx, key, []byte(label), r.profile.ReverseTTL)
		}
		return reverseResult{label: label, outcome: outcome, endpoint: endpoint}, nil
	})

	result := v.(reverseResult)
	r.emit(ctx, "reverse_geocode", result.outcome, query, result.endpoint, false, time.Since(start))
	return result.label
}

// search serves a normalized query from cache or upstream. Callers emit
// the resolution event; search itself stays silent so delegating
// operations produce exactly one event per call.
func (r *Resolver) search(ctx context.Context, trimmed string, limit int) searchResult {
	key := cacheKey("search", map[string]string{
		"q":     strings.ToLower(trimmed),
		"limit": strconv.Itoa(limit),
	})

	if payload, ok := r.cacheGet(ctx, key); ok {
		var cached []AddressCandidate
		if err := json.Unmarshal(payload, &cached); err == nil {
			return searchResult{candidates: cached, outcome: OutcomeResolved, cacheHit: true}
		}
	}

	v, _, _ := r.flight.Do(key, func() (any, error) {
		result := r.fetchSearch(ctx, trimmed, limit)
		if payload, err := json.Marshal(result.candidates); err == nil {
			r.cacheSet(ctx, key, payload, r.profile.SearchTTL)
		}
		return result, nil
	})
	return v.(searchResult)
}

// fetchSearch runs the two-pass upstream strategy: a bounded viewbox
// query first, then a wider unbounded query when the first pass produced
// fewer than two candidates, then the synthetic fallback candidate.
func (r *Resolver) fetchSearch(ctx context.Context, trimmed string, limit int) searchResult {
	outcome := OutcomeResolved

	candidates, endpoint := r.querySearch(ctx, trimmed, limit, true, r.profile.BoundedTimeout)

	if len(candidates) < 2 {
		outcome = OutcomeDegraded
		wide, wideEndpoint := r.querySearch(ctx, trimmed, limit, false, r.profile.WideTimeout)
		for _, candidate := range wide {
			if !containsDisplay(candidates, candidate.DisplayName) {
				candidates = append(candidates, candidate)
			}
		}
		if endpoint == "" {
			endpoint = wideEndpoint
		}
	}

	if len(candidates) == 0 {
		return searchResult{
			candidates: []AddressCandidate{r.fallbackCandidate(trimmed)},
			outcome:    OutcomeFallback,
		}
	}

	return searchResult{candidates: candidates, outcome: outcome, endpoint: endpoint}
}

// querySearch tries the search endpoints in priority order and returns
// the normalized candidates of the first endpoint that answers. An empty
// result from a healthy endpoint does not advance to the next mirror.
func (r *Resolver) querySearch(ctx context.Context, query string, limit int, bounded bool, timeout time.Duration) ([]AddressCandidate, string) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("accept-language", r.profile.AcceptLanguage)
	params.Set("countrycodes", r.profile.CountryCodes)
	if bounded {
		params.Set("viewbox", r.profile.Viewbox)
		params.Set("bounded", "1")
	}

	for _, endpoint := range r.profile.SearchEndpoints {
		body, fail := r.client.Fetch(ctx, endpoint, params, timeout)
		if fail != nil {
			r.log.UpstreamFailure(endpoint, fail.Class.String(), fail.Elapsed, fail)
			continue
		}

		var places []nominatimPlace
		if err := json.Unmarshal(body, &places); err != nil {
			r.log.UpstreamFailure(endpoint, FailureMalformed.String(), 0, err)
			continue
		}

		candidates := make([]AddressCandidate, 0, len(places))
		for _, place := range places {
			candidate := r.norm.Candidate(place)
			if utf8.RuneCountInString(candidate.DisplayName) <= minUsableDisplay {
				continue
			}
			candidates = append(candidates, candidate)
		}
		return candidates, endpoint
	}

	return nil, ""
}

// fetchReverse issues exactly one request to the primary reverse
// endpoint, then degrades to the locality bucket table or a coordinate
// label when the provider cannot answer.
func (r *Resolver) fetchReverse(ctx context.Context, lat, lon float64) (label, outcome, endpoint string) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", r.profile.AcceptLanguage)
	params.Set("zoom", reverseZoom)

	endpoint = r.profile.ReverseEndpoints[0]
	body, fail := r.client.Fetch(ctx, endpoint, params, r.profile.BoundedTimeout)
	if fail != nil {
		r.log.UpstreamFailure(endpoint, fail.Class.String(), fail.Elapsed, fail)
		label, outcome = r.degradedReverse(lat, lon)
		return label, outcome, ""
	}

	var place nominatimPlace
	if err := json.Unmarshal(body, &place); err != nil || place.Error != "" {
		r.log.UpstreamFailure(endpoint, FailureMalformed.String(), 0, err)
		label, outcome = r.degradedReverse(lat, lon)
		return label, outcome, ""
	}

	label = r.norm.Label(place, lat, lon)
	if home := r.profile.HomeLocality; home != "" && !strings.Contains(strings.ToLower(label), strings.ToLower(home)) {
		label += ", " + home
	}
	return label, OutcomeResolved, endpoint
}

func (r *Resolver) degradedReverse(lat, lon float64) (string, string) {
	if label, ok := bucketLabel(r.profile.Buckets, lat, lon); ok {
		return label, OutcomeFallback
	}
	return coordinateLabel(lat, lon), OutcomeFallback
}

// fallbackCandidate synthesizes the single suggestion returned when both
// search passes came back empty: the default locality center labeled
// from the query text.
func (r *Resolver) fallbackCandidate(query string) AddressCandidate {
	return AddressCandidate{
		DisplayName: query + ", " + r.profile.HomeLocality,
		GeoPoint:    GeoPoint{Lat: r.profile.DefaultLat, Lon: r.profile.DefaultLon},
		Address:     map[string]string{"city": r.profile.HomeLocality},
		OSMType:     "fallback",
	}
}

func (r *Resolver) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	payload, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.CacheError("get", err)
		return nil, false
	}
	return payload, ok
}

func (r *Resolver) cacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := r.store.Set(ctx, key, payload, ttl); err != nil {
		r.log.CacheError("set", err)
	}
}

func (r *Resolver) emit(ctx context.Context, operation, outcome, query, endpoint string, cacheHit bool, elapsed time.Duration) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ctx, newAddressResolved(operation, outcome, query, endpoint, cacheHit, elapsed))
}

func containsDisplay(candidates []AddressCandidate, displayName string) bool {
	for _, candidate := range candidates {
		if candidate.DisplayName == displayName {
			return true
		}
	}
	return false
}
