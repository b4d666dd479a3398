// Package censys implements the Censys Platform API v3 host-intel provider
// (global asset host endpoint, free tier).
package censys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/httpclient"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/validator"
)

const (
	providerName    = "censys"
	providerVersion = "2.0.0"
	defaultBaseURL  = "https://api.platform.censys.io"
	defaultTimeout  = 30 * time.Second

	acceptHeader = "application/vnd.censys.api.v3.host.v1+json"

	maxServicesInSummary = 10
	maxDNSNamesInSummary = 20
)

// Provider implementa ports.HostIntel contra Censys. Requiere un bearer
// token: sin credencial, las llamadas fallan sin intentarse.
type Provider struct {
	apiToken string
	baseURL  string
	client   *httpclient.Client
	logger   logx.Logger
}

// Options configura el provider.
type Options struct {
	APIToken  string
	Timeout   time.Duration
	RateLimit float64 // req/s hacia el provider, 0 = sin límite
	BaseURL   string  // override para tests
}

// New crea el provider de Censys.
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

	if opts.APIToken == "" {
		logger.Warn("censys API token not provided, host-intel stage will be skipped")
	}

	return &Provider{
		apiToken: opts.APIToken,
		baseURL:  opts.BaseURL,
		client:   httpclient.New(httpConfig, logger),
		logger:   logger.With("provider", providerName),
	}
}

// Name retorna el nombre del provider.
func (p *Provider) Name() string { return providerName }

// Version retorna la versión del provider.
func (p *Provider) Version() string { return providerVersion }

// Endpoints retorna las operaciones disponibles.
func (p *Provider) Endpoints() []ports.EndpointInfo {
	return []ports.EndpointInfo{
		{Type: "view_host", Description: "Información cruda de un host", RequiresAPIKey: true},
		{Type: "get_host_summary", Description: "Resumen de puertos y servicios de un host", RequiresAPIKey: true},
	}
}

// HasCredential indica si hay token configurado.
func (p *Provider) HasCredential() bool { return p.apiToken != "" }

// hostResponse es el subconjunto relevante de la respuesta del asset host.
type hostResponse struct {
	Result struct {
		Resource hostResource `json:"resource"`
	} `json:"result"`
}

type hostResource struct {
	Services []service `json:"services"`
	Location struct {
		Country     string    `json:"country"`
		CountryCode string    `json:"country_code"`
		City        string    `json:"city"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"location"`
	AutonomousSystem struct {
		ASN         int    `json:"asn"`
		Name        string `json:"name"`
		CountryCode string `json:"country_code"`
	} `json:"autonomous_system"`
	DNS struct {
		Names []string `json:"names"`
	} `json:"dns"`
	LastUpdatedAt string `json:"last_updated_at"`
}

type service struct {
	Port              int    `json:"port"`
	Protocol          string `json:"protocol"`
	TransportProtocol string `json:"transport_protocol"`
}

// viewHost consulta el endpoint global asset host y retorna el recurso crudo.
func (p *Provider) viewHost(ctx context.Context, ip string) (*hostResource, error) {
	if !p.HasCredential() {
		return nil, errors.Wrap(errors.ErrNoCredential, "CENSYS_API_TOKEN no configurada")
	}
	if !validator.IsIP(ip) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid IP %q", ip)
	}

	endpoint := p.baseURL + "/v3/global/asset/host/" + url.PathEscape(ip)
	headers := map[string]string{
		"Accept":        acceptHeader,
		"Authorization": "Bearer " + p.apiToken,
	}

	resp, err := p.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, err
	}

	// 401/403/404 se mapean a mensajes propios; el resto pasa el status text.
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, errors.Wrap(errors.ErrUnauthorized, "autenticación fallida (401), verifica tu token")
	case http.StatusForbidden:
		resp.Body.Close()
		return nil, errors.Wrap(errors.ErrUnauthorized, "acceso denegado (403), verifica permisos")
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrNotFound, "host %s no encontrado (404)", ip)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("censys request failed: %s", resp.Status)
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	var parsed hostResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "failed to parse censys response")
	}

	return &parsed.Result.Resource, nil
}

// hostSummary es la forma resumida completa que expone Fetch.
type hostSummary struct {
	IP       string `json:"ip"`
	Ports    []int  `json:"ports"`
	Services []struct {
		Port              int    `json:"port"`
		ServiceName       string `json:"service_name"`
		TransportProtocol string `json:"transport_protocol"`
	} `json:"services"`
	ServicesCount    int `json:"services_count"`
	AutonomousSystem struct {
		ASN         int    `json:"asn"`
		Name        string `json:"name"`
		CountryCode string `json:"country_code"`
	} `json:"autonomous_system"`
	Location struct {
		Country     string    `json:"country"`
		CountryCode string    `json:"country_code"`
		City        string    `json:"city"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"location"`
	DNSNames    []string `json:"dns_names"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// summarize deriva el resumen a partir del recurso crudo del host.
func summarize(ip string, res *hostResource) hostSummary {
	s := hostSummary{
		IP:            ip,
		Ports:         uniqueSortedPorts(res.Services),
		ServicesCount: len(res.Services),
		LastUpdated:   res.LastUpdatedAt,
	}

	for i, svc := range res.Services {
		if i >= maxServicesInSummary {
			break
		}
		s.Services = append(s.Services, struct {
			Port              int    `json:"port"`
			ServiceName       string `json:"service_name"`
			TransportProtocol string `json:"transport_protocol"`
		}{svc.Port, svc.Protocol, svc.TransportProtocol})
	}

	s.AutonomousSystem.ASN = res.AutonomousSystem.ASN
	s.AutonomousSystem.Name = res.AutonomousSystem.Name
	s.AutonomousSystem.CountryCode = res.AutonomousSystem.CountryCode

	s.Location.Country = res.Location.Country
	s.Location.CountryCode = res.Location.CountryCode
	s.Location.City = res.Location.City
	s.Location.Coordinates = res.Location.Coordinates

	names := res.DNS.Names
	if len(names) > maxDNSNamesInSummary {
		names = names[:maxDNSNamesInSummary]
	}
	s.DNSNames = names

	return s
}

func uniqueSortedPorts(services []service) []int {
	seen := make(map[int]struct{}, len(services))
	ports := make([]int, 0, len(services))
	for _, svc := range services {
		if svc.Port == 0 {
			continue
		}
		if _, dup := seen[svc.Port]; dup {
			continue
		}
		seen[svc.Port] = struct{}{}
		ports = append(ports, svc.Port)
	}
	sort.Ints(ports)
	return ports
}

// HostSummary retorna el resumen compacto que consume el pipeline.
func (p *Provider) HostSummary(ctx context.Context, ip string) (domain.HostIntelSummary, error) {
	res, err := p.viewHost(ctx, ip)
	if err != nil {
		return domain.HostIntelSummary{}, err
	}

	return domain.HostIntelSummary{
		OpenPorts:     uniqueSortedPorts(res.Services),
		ServicesCount: len(res.Services),
	}, nil
}

// Fetch implementa ports.Provider para consultas genéricas.
func (p *Provider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	ip, _ := params["ip"].(string)
	if ip == "" {
		return domain.Fail("Parámetro 'ip' requerido")
	}

	switch queryType {
	case "get_host_summary", "":
		res, err := p.viewHost(ctx, ip)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(summarize(ip, res))

	case "view_host":
		res, err := p.viewHost(ctx, ip)
		if err != nil {
			return domain.FailErr(err)
		}
		return domain.OK(res)

	default:
		return domain.Failf("query_type '%s' no soportado", queryType)
	}
}
