// internal/testutil/mocks.go
package testutil

import (
	"context"
	"sync"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
)

// MockProvider implementa ports.Provider para tests.
type MockProvider struct {
	ProviderName    string
	ProviderVersion string
	EndpointList    []ports.EndpointInfo
	FetchFunc       func(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Version() string {
	if m.ProviderVersion == "" {
		return "0.0.0"
	}
	return m.ProviderVersion
}

func (m *MockProvider) Endpoints() []ports.EndpointInfo {
	return m.EndpointList
}

func (m *MockProvider) Fetch(ctx context.Context, queryType string, params ports.Params) domain.ProviderResult {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, queryType, params)
	}
	return domain.OK(nil)
}

// MockSearcher implementa ports.Searcher con resultados predefinidos.
type MockSearcher struct {
	MockProvider
	Hits []domain.SearchHit
	Err  error

	mu    sync.Mutex
	Calls int
}

func (m *MockSearcher) ExtractDomains(ctx context.Context, query string, num int, location string) ([]domain.SearchHit, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Hits, nil
}

// MockGeolocator implementa ports.Geolocator. LookupFunc permite respuestas
// por-IP; si es nil se usa Geo/Err fijos.
type MockGeolocator struct {
	MockProvider
	Geo        domain.Geolocation
	Err        error
	LookupFunc func(ip string) (domain.Geolocation, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockGeolocator) Lookup(ctx context.Context, ip, lang string) (domain.Geolocation, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.LookupFunc != nil {
		return m.LookupFunc(ip)
	}
	if m.Err != nil {
		return domain.Geolocation{}, m.Err
	}
	return m.Geo, nil
}

// MockHostIntel implementa ports.HostIntel.
type MockHostIntel struct {
	MockProvider
	Credential bool
	Summary    domain.HostIntelSummary
	Err        error

	mu    sync.Mutex
	Calls int
}

func (m *MockHostIntel) HasCredential() bool { return m.Credential }

func (m *MockHostIntel) HostSummary(ctx context.Context, ip string) (domain.HostIntelSummary, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return domain.HostIntelSummary{}, m.Err
	}
	return m.Summary, nil
}

// MockResolver implementa ports.Resolver con un mapa dominio -> IP.
// Los dominios ausentes fallan la resolución.
type MockResolver struct {
	IPs map[string]string
	Err error
}

func (m *MockResolver) LookupIP(ctx context.Context, host string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if ip, ok := m.IPs[host]; ok {
		return ip, nil
	}
	return "", &notFoundError{host: host}
}

type notFoundError struct{ host string }

func (e *notFoundError) Error() string { return "lookup " + e.host + ": no such host" }

// MockSealer implementa ports.Sealer sin criptografía real.
type MockSealer struct {
	DigestErr error
	SealErr   error
}

func (m *MockSealer) Digest(payload any) (string, error) {
	if m.DigestErr != nil {
		return "", m.DigestErr
	}
	return "deadbeef", nil
}

func (m *MockSealer) Seal(payload any) ([]string, error) {
	if m.SealErr != nil {
		return nil, m.SealErr
	}
	return []string{"chunk-1", "chunk-2"}, nil
}

// MockArchiver implementa ports.Archiver registrando los payloads recibidos.
type MockArchiver struct {
	Err error

	mu      sync.Mutex
	Records []ports.ArchiveRecord
}

func (m *MockArchiver) Store(ctx context.Context, rec ports.ArchiveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, rec)
	return nil
}

// Stored retorna una copia de los registros persistidos.
func (m *MockArchiver) Stored() []ports.ArchiveRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ports.ArchiveRecord, len(m.Records))
	copy(out, m.Records)
	return out
}
