// Package ipapi implements the ip-api.com geolocation provider.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/cache"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/httpclient"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/validator"
)

const (
	providerName    = "ipapi"
	providerVersion = "1.0.0"
	defaultBaseURL  = "http://ip-api.com"
	defaultTimeout  = 10 * time.Second

	cacheCapacity = 1024
)

// Provider implementa ports.Geolocator contra ip-api.com. Las respuestas
// exitosas se cachean por IP+lang para no re-consultar la misma IP dentro
// del TTL configurado.
type Provider struct {
	baseURL  string
	client   *httpclient.Client
	logger   logx.Logger
	geoCache cache.Cache
	cacheTTL time.Duration
}

// Options configura el provider.
type Options struct {
	Timeout   time.Duration
	CacheTTL  time.Duration // 0 = sin cache
	RateLimit float64       // req/s hacia el provider, 0 = sin límite
	BaseURL   string        // override para tests
}

// New crea el provider de ip-api.com. No requiere credenciales, pero el tier
// gratuito limita las peticiones por minuto, así que el cliente sale con
// rate limiting configurable.
func New(logger logx.Logger, opts Options) *Provider {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	httpConfig := httpclient.DefaultConfig()
	httpConfig.Timeout = opts.Timeout
	httpConfig.RateLimit = opts.RateLimit

	p := &Provider{
		baseURL:  opts.BaseURL,
		client:   httpclient.New(httpConfig, logger),
		logger:   logger.With("provider", providerName),
		cacheTTL: opts.CacheTTL,
	}
	if opts.CacheTTL > 0 {
		p.geoCache = cache.NewMemoryCache(cacheCapacity)
	}
	return p
}

// Name retorna el nombre del provider.
func (p *Provider) Name() string { return providerName }

// Version retorna la versión del provider.
func (p *Provider) Version() string { return providerVersion }

// Endpoints retorna las operaciones disponibles.
func (p *Provider) Endpoints() []ports.EndpointInfo {
	return []ports.EndpointInfo{
		{Type: "lookup", Description: "Geolocalización de IP"},
	}
}

// lookupResponse es la respuesta de /json/{ip}. Un status "fail" embebido
// en un 200 es un fallo de provider, no de transporte.
type lookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	ISP     string  `json:"isp"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Lookup geolocaliza una IP. El argumento se valida antes de construir la
// URL: nunca se consulta al provider con algo que no sea una IP.
func (p *Provider) Lookup(ctx context.Context, ip, lang string) (domain.Geolocation, error) {
	if !validator.IsIP(ip) {
		return domain.Geolocation{}, errors.Wrapf(errors.ErrInvalidInput, "invalid IP %q", ip)
	}

	cacheKey := ip + "|" + lang
	if p.geoCache != nil {
		if v, ok := p.geoCache.Get(cacheKey); ok {
			if geo, ok := v.(domain.Geolocation); ok {
				p.logger.Debug("geolocation cache hit", "ip", ip)
				return geo, nil
			}
		}
	}

	endpoint := p.baseURL + "/json/" + url.PathEscape(ip)
	if lang != "" && lang != "en" {
		endpoint += "?lang=" + url.QueryEscape(lang)
	}

	body, err := p.client.FetchJSON(ctx, endpoint)
	if err != nil {
		return domain.Geolocation{}, err
	}

	var resp lookupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Geolocation{}, errors.Wrap(errors.ErrInvalidResponse, "failed to parse ip-api response")
	}

	if resp.Status == "fail" {
		return domain.Geolocation{}, fmt.Errorf("ip-api lookup failed: %s", resp.Message)
	}

	geo := domain.Geolocation{
		Country: resp.Country,
		City:    resp.City,
		ISP:     resp.ISP,
		Lat:     resp.Lat,
		Lon:     resp.Lon,
	}

	if p.geoCache != nil {
		p.geoCache.Set(cacheKey, geo, p.cacheTTL)
	}

	return geo, nil
}

// Fetch implementa ports.Provider para consultas genéricas.
func (p *Provider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	switch queryType {
	case "lookup", "":
		ip, _ := params["ip"].(string)
		lang, _ := params["lang"].(string)

		geo, err := p.Lookup(ctx, ip, lang)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(geo)

	default:
		return domain.Failf("query_type '%s' no soportado", queryType)
	}
}
