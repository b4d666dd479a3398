// Package cloudflare implements the Cloudflare trace and geolocation provider.
// Trace endpoints return plain-text key=value pairs rather than JSON.
package cloudflare

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/httpclient"
	"netintel/internal/platform/logx"
)

const (
	providerName    = "cloudflare"
	providerVersion = "1.0.0"
	defaultTimeout  = 10 * time.Second
)

// traceEndpoints son los espejos conocidos del trace API. Se usa el primero
// salvo override explícito en los params.
var traceEndpoints = []string{
	"https://one.one.one.one/cdn-cgi/trace",
	"https://1.0.0.1/cdn-cgi/trace",
	"https://cloudflare-dns.com/cdn-cgi/trace",
	"https://icanhazip.com/cdn-cgi/trace",
}

const (
	geolocationEndpoint        = "https://speed.cloudflare.com/meta"
	geolocationHeadersEndpoint = "https://speed.cloudflare.com/__down"
)

// Provider expone los servicios de diagnóstico de Cloudflare. No requiere
// credenciales ni participa en el pipeline de análisis; se registra como
// provider genérico consultable vía /api/query.
type Provider struct {
	client *httpclient.Client
	logger logx.Logger

	traceURL   string // override para tests
	metaURL    string
	headersURL string
}

// Options configura el provider.
type Options struct {
	Timeout   time.Duration
	RateLimit float64 // req/s hacia el provider, 0 = sin límite

	// Overrides para tests
	TraceURL   string
	MetaURL    string
	HeadersURL string
}

// New crea el provider de Cloudflare.
func New(logger logx.Logger, opts Options) *Provider {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TraceURL == "" {
		opts.TraceURL = traceEndpoints[0]
	}
	if opts.MetaURL == "" {
		opts.MetaURL = geolocationEndpoint
	}
	if opts.HeadersURL == "" {
		opts.HeadersURL = geolocationHeadersEndpoint
	}

	httpConfig := httpclient.DefaultConfig()
	httpConfig.Timeout = opts.Timeout
	httpConfig.RateLimit = opts.RateLimit

	return &Provider{
		client:     httpclient.New(httpConfig, logger),
		logger:     logger.With("provider", providerName),
		traceURL:   opts.TraceURL,
		metaURL:    opts.MetaURL,
		headersURL: opts.HeadersURL,
	}
}

// Name retorna el nombre del provider.
func (p *Provider) Name() string { return providerName }

// Version retorna la versión del provider.
func (p *Provider) Version() string { return providerVersion }

// Endpoints retorna las operaciones disponibles.
func (p *Provider) Endpoints() []ports.EndpointInfo {
	return []ports.EndpointInfo{
		{Type: "trace", Description: "Trace API: IP, ubicación y detalles TLS del cliente"},
		{Type: "geolocation", Description: "Metadatos de geolocalización (JSON)"},
		{Type: "geolocation_headers", Description: "Geolocalización vía cabeceras cf-meta-*"},
	}
}

// parseTrace convierte el cuerpo key=value (una por línea) en un mapa.
func parseTrace(text string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// fetchTrace consulta un endpoint de trace y parsea la respuesta.
func (p *Provider) fetchTrace(ctx context.Context, endpoint string) (map[string]string, error) {
	if endpoint == "" {
		endpoint = p.traceURL
	}

	resp, err := p.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	return parseTrace(string(body)), nil
}

// fetchGeolocation consulta el endpoint de metadatos JSON.
func (p *Provider) fetchGeolocation(ctx context.Context) (map[string]any, error) {
	body, err := p.client.FetchJSON(ctx, p.metaURL)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "failed to parse cloudflare meta response")
	}
	return meta, nil
}

// fetchGeolocationHeaders extrae las cabeceras cf-meta-* de la respuesta.
func (p *Provider) fetchGeolocationHeaders(ctx context.Context) (map[string]string, error) {
	resp, err := p.client.Get(ctx, p.headersURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for key, values := range resp.Header {
		if strings.HasPrefix(strings.ToLower(key), "cf-meta-") && len(values) > 0 {
			out[strings.ToLower(key)] = values[0]
		}
	}
	return out, nil
}

// Fetch implementa ports.Provider para consultas genéricas.
func (p *Provider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	switch queryType {
	case "trace", "":
		endpoint, _ := params["endpoint"].(string)
		data, err := p.fetchTrace(ctx, endpoint)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(data)

	case "geolocation":
		data, err := p.fetchGeolocation(ctx)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(data)

	case "geolocation_headers":
		data, err := p.fetchGeolocationHeaders(ctx)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(data)

	default:
		return domain.Failf("query_type '%s' no soportado", queryType)
	}
}
