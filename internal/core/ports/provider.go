// internal/core/ports/provider.go
package ports

import (
	"context"

	"netintel/internal/core/domain"
)

// Params son los parámetros de una consulta genérica a un provider.
type Params map[string]any

// EndpointInfo describe una operación disponible en un provider.
type EndpointInfo struct {
	Type           string `json:"type"`
	Description    string `json:"description"`
	RequiresAPIKey bool   `json:"requires_api_key,omitempty"`
}

// Provider es el port primario para todas las fuentes de datos externas.
// Cada provider (búsqueda, geolocalización, host-intel) implementa esta interfaz.
type Provider interface {
	// Name retorna el nombre único del provider (ej: "serpstack", "ipapi", "censys")
	Name() string

	// Version retorna la versión del provider
	Version() string

	// Endpoints retorna las operaciones disponibles del provider
	Endpoints() []EndpointInfo

	// Fetch ejecuta una consulta genérica y normaliza la respuesta.
	// Nunca retorna error: los fallos se expresan en el ProviderResult.
	Fetch(ctx context.Context, queryType string, params Params) domain.ProviderResult
}

// Searcher es la capacidad de búsqueda SERP con extracción de dominios únicos.
// Se obtiene por type assertion sobre un Provider registrado.
type Searcher interface {
	Provider

	// ExtractDomains busca query y retorna los dominios únicos normalizados
	// en orden de primera aparición en el ranking.
	ExtractDomains(ctx context.Context, query string, num int, location string) ([]domain.SearchHit, error)
}

// Geolocator es la capacidad de geolocalización de IPs.
type Geolocator interface {
	Provider

	// Lookup geolocaliza una IP. Un status "fail" embebido en una respuesta
	// 200 es un fallo con el mensaje embebido, distinto de un error de transporte.
	Lookup(ctx context.Context, ip, lang string) (domain.Geolocation, error)
}

// HostIntel es la capacidad de inteligencia de host sobre una IP.
type HostIntel interface {
	Provider

	// HasCredential indica si el provider tiene credencial configurada.
	// Sin credencial la etapa se omite sin intentar la llamada.
	HasCredential() bool

	// HostSummary retorna el resumen de puertos y servicios de una IP.
	HostSummary(ctx context.Context, ip string) (domain.HostIntelSummary, error)
}
