// Package peeringdb implements the PeeringDB network lookup provider.
package peeringdb

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/httpclient"
	"netintel/internal/platform/logx"
)

const (
	providerName    = "peeringdb"
	providerVersion = "1.0.0"
	defaultBaseURL  = "https://www.peeringdb.com/api"
	defaultTimeout  = 15 * time.Second
)

// Provider consulta la API pública de PeeringDB por ASN. No requiere
// credenciales; se registra como provider genérico consultable vía /api/query.
type Provider struct {
	baseURL string
	client  *httpclient.Client
	logger  logx.Logger
}

// Options configura el provider.
type Options struct {
	Timeout   time.Duration
	RateLimit float64 // req/s hacia el provider, 0 = sin límite
	BaseURL   string  // override para tests
}

// New crea el provider de PeeringDB.
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

	return &Provider{
		baseURL: opts.BaseURL,
		client:  httpclient.New(httpConfig, logger),
		logger:  logger.With("provider", providerName),
	}
}

// Name retorna el nombre del provider.
func (p *Provider) Name() string { return providerName }

// Version retorna la versión del provider.
func (p *Provider) Version() string { return providerVersion }

// Endpoints retorna las operaciones disponibles.
func (p *Provider) Endpoints() []ports.EndpointInfo {
	return []ports.EndpointInfo{
		{Type: "get_network_by_asn", Description: "Información de red por ASN"},
		{Type: "get_asn_summary", Description: "Resumen completo de un ASN"},
	}
}

// apiResponse es el sobre común de la API {data: [...], meta: {...}}.
type apiResponse struct {
	Data []map[string]any `json:"data"`
	Meta map[string]any   `json:"meta"`
}

// networkByASN consulta /net?asn=N&depth=2 y retorna el primer registro.
func (p *Provider) networkByASN(ctx context.Context, asn int) (map[string]any, error) {
	if asn <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "asn must be positive")
	}

	q := url.Values{}
	q.Set("asn", strconv.Itoa(asn))
	q.Set("depth", "2")

	body, err := p.client.FetchJSON(ctx, p.baseURL+"/net?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "failed to parse peeringdb response")
	}

	if len(resp.Data) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no network registered for ASN %d", asn)
	}
	return resp.Data[0], nil
}

// Fetch implementa ports.Provider para consultas genéricas.
func (p *Provider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	asn := intParam(params, "asn")
	if asn <= 0 {
		return domain.Fail("Parámetro 'asn' requerido")
	}

	switch queryType {
	case "get_network_by_asn", "":
		net, err := p.networkByASN(ctx, asn)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(net)

	case "get_asn_summary":
		net, err := p.networkByASN(ctx, asn)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(map[string]any{
			"asn":     asn,
			"network": net,
		})

	default:
		return domain.Failf("query_type '%s' no soportado", queryType)
	}
}

func intParam(params ports.Params, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}
