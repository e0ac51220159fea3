package geocode

import (
	"issuemap_backend/internal/events"
	apphttp "issuemap_backend/internal/http"
	"issuemap_backend/platform/cache"
	"issuemap_backend/platform/config"
	"issuemap_backend/platform/logger"
	"issuemap_backend/platform/validator"
)

// Module wires the geocoding bounded context: resolver, handler and routes.
type Module struct {
	handler  *Handler
	resolver *Resolver
}

// NewModule creates the geocoding module with all its dependencies.
func NewModule(cfg config.GeocodeConfig, store cache.Store, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	profile := cfg.GetGeocodeProfile()
	client := NewClient(profile)
	resolver := NewResolver(profile, client, store, bus, log)
	return &Module{
		handler:  NewHandler(resolver, val),
		resolver: resolver,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "geocode"
}

// Resolver exposes the resolution service to other components (the
// address backfill command reuses it outside the HTTP layer).
func (m *Module) Resolver() *Resolver {
	return m.resolver
}

// RegisterRoutes mounts the geocoding endpoints. All three require an
// authenticated session so the upstream quota is not an open proxy.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/geocode", m.handler.Geocode)
	ctx.Protected.GET("/reverse-geocode", m.handler.ReverseGeocode)
	ctx.Protected.GET("/search-address", m.handler.SearchAddress)
}

var _ apphttp.Module = (*Module)(nil)
