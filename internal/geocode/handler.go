package geocode

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"issuemap_backend/platform/apperr"
	"issuemap_backend/platform/httpkit"
	"issuemap_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the resolver over HTTP.
type Handler struct {
	resolver *Resolver
	val      *validator.Validator
}

// NewHandler creates a geocoding HTTP handler.
func NewHandler(resolver *Resolver, val *validator.Validator) *Handler {
	return &Handler{resolver: resolver, val: val}
}

type geocodeResponse struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type reverseResponse struct {
	Address string `json:"address"`
}

type searchResponse struct {
	Results []AddressCandidate `json:"results"`
}

// Geocode handles GET /api/geocode?q=<address>.
func (h *Handler) Geocode(c *gin.Context) {
	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		httpkit.HandleError(c, apperr.BadRequest("query parameter q is required"))
		return
	}

	result, ok := h.resolver.GeocodeAddress(c.Request.Context(), query)
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("address not found"))
		return
	}

	httpkit.OK(c, geocodeResponse{Address: result.DisplayName, Lat: result.Lat, Lon: result.Lon})
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=<lat>&lon=<lon>.
func (h *Handler) ReverseGeocode(c *gin.Context) {
	lat, ok := h.coordinate(c, "lat", "min=-90,max=90")
	if !ok {
		return
	}
	lon, ok := h.coordinate(c, "lon", "min=-180,max=180")
	if !ok {
		return
	}

	label := h.resolver.ReverseGeocode(c.Request.Context(), lat, lon)
	if label == "" {
		// Kept for contract parity with earlier clients; the resolver
		// always synthesizes a label today.
		httpkit.HandleError(c, apperr.NotFound("address not found"))
		return
	}

	httpkit.OK(c, reverseResponse{Address: label})
}

// SearchAddress handles GET /api/search-address?q=<text>&limit=<n>.
func (h *Handler) SearchAddress(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(query) < 2 {
		httpkit.OK(c, searchResponse{Results: []AddressCandidate{}})
		return
	}

	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.BadRequest("limit must be an integer"))
			return
		}
		limit = parsed
		if limit < 1 {
			limit = 1
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	results := h.resolver.SearchAddress(c.Request.Context(), query, limit)
	httpkit.OK(c, searchResponse{Results: results})
}

// coordinate parses and range-checks one coordinate query parameter,
// writing the 400 response itself on failure.
func (h *Handler) coordinate(c *gin.Context, name, rangeTag string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		httpkit.HandleError(c, apperr.Validation(name+" is required"))
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		httpkit.HandleError(c, apperr.Validation(name+" must be a number"))
		return 0, false
	}
	if err := h.val.Var(value, rangeTag); err != nil {
		httpkit.HandleError(c, apperr.Validation(name+" is out of range"))
		return 0, false
	}
	return value, true
}
