// Package serpstack implements the SerpStack SERP search provider.
// It exposes raw search plus unique-domain extraction over organic results.
package serpstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/httpclient"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/validator"
)

const (
	providerName    = "serpstack"
	providerVersion = "1.0.0"
	defaultBaseURL  = "https://api.serpstack.com"
	defaultTimeout  = 15 * time.Second

	// La API acepta un máximo de 100 resultados por consulta.
	maxResults = 100
)

// Provider implementa ports.Searcher contra la API de SerpStack.
type Provider struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
	logger  logx.Logger
}

// Options configura el provider.
type Options struct {
	APIKey    string
	Timeout   time.Duration
	RateLimit float64 // req/s hacia el provider, 0 = sin límite
	BaseURL   string  // override para tests
}

// New crea el provider de SerpStack. Sin API key el provider se construye
// igualmente: cada llamada retornará un fallo explícito.
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

	if opts.APIKey == "" {
		logger.Warn("serpstack API key not provided, search calls will fail")
	}

	return &Provider{
		apiKey:  opts.APIKey,
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
		{Type: "search", Description: "Búsqueda orgánica en Google", RequiresAPIKey: true},
		{Type: "extract_domains", Description: "Extraer dominios únicos de los resultados", RequiresAPIKey: true},
	}
}

// searchResponse es el subconjunto relevante de la respuesta de SerpStack.
type searchResponse struct {
	Error *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// search ejecuta la búsqueda y retorna los resultados orgánicos crudos.
func (p *Provider) search(ctx context.Context, query string, num int, location string) ([]organicResult, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrNoCredential, "SERPSTACK_API_KEY no configurada")
	}
	if num <= 0 {
		num = 10
	}
	if num > maxResults {
		num = maxResults
	}

	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("query", query)
	q.Set("num", strconv.Itoa(num))
	if location != "" {
		q.Set("location", location)
	}

	body, err := p.client.FetchJSON(ctx, p.baseURL+"/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "failed to parse serpstack response")
	}

	// SerpStack reporta errores de API dentro de un 200.
	if resp.Error != nil {
		return nil, fmt.Errorf("serpstack error %d: %s", resp.Error.Code, resp.Error.Info)
	}

	return resp.OrganicResults, nil
}

// ExtractDomains busca query y retorna los dominios únicos normalizados en
// orden de primera aparición en el ranking orgánico.
func (p *Provider) ExtractDomains(ctx context.Context, query string, num int, location string) ([]domain.SearchHit, error) {
	organic, err := p.search(ctx, query, num, location)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(organic))
	hits := make([]domain.SearchHit, 0, len(organic))

	for _, item := range organic {
		host := hostOf(item.URL)
		if host == "" {
			continue
		}
		name := validator.NormalizeDomain(host)
		if name == "" {
			continue
		}
		// La heurística de host sin scheme puede producir segmentos de path,
		// IPs o hosts internos: solo pasan dominios con sufijo público ICANN.
		if !validator.IsDomain(name) || !validator.HasListedSuffix(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		hits = append(hits, domain.SearchHit{
			Domain:            name,
			URL:               item.URL,
			Title:             item.Title,
			FirstSeenPosition: item.Position,
		})
	}

	p.logger.Debug("domains extracted",
		"query", query,
		"organic", len(organic),
		"unique", len(hits),
	)

	return hits, nil
}

// hostOf extrae el componente host de una URL de resultado. Si la URL no
// lleva scheme, el primer segmento del path hace de host.
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host != "" {
		return u.Hostname()
	}
	for i := 0; i < len(u.Path); i++ {
		if u.Path[i] == '/' {
			return u.Path[:i]
		}
	}
	return u.Path
}

// Fetch implementa ports.Provider para consultas genéricas.
func (p *Provider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	query, _ := params["query"].(string)
	if query == "" {
		return domain.Fail("Parámetro 'query' requerido")
	}

	num := intParam(params, "num", 10)
	location, _ := params["location"].(string)

	switch queryType {
	case "search", "":
		organic, err := p.search(ctx, query, num, location)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(map[string]any{
			"query":           query,
			"organic_results": organic,
		})

	case "extract_domains":
		hits, err := p.ExtractDomains(ctx, query, num, location)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(map[string]any{
			"query":         query,
			"total_domains": len(hits),
			"domains":       hits,
		})

	default:
		return domain.Failf("query_type '%s' no soportado", queryType)
	}
}

func intParam(params ports.Params, key string, def int) int {
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
	return def
}
