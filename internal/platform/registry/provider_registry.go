// internal/platform/registry/provider_registry.go
package registry

import (
	"sync"

	"netintel/internal/core/ports"
	"netintel/internal/platform/logx"
)

// ProviderInfo es la vista pública de un provider registrado.
type ProviderInfo struct {
	Name      string               `json:"name"`
	Version   string               `json:"version"`
	Endpoints []ports.EndpointInfo `json:"endpoints"`
}

// ProviderRegistry gestiona el conjunto estático de providers.
// Se puebla una vez al arranque y es de solo lectura para el pipeline;
// el RWMutex se conserva por higiene aunque no haya escritores post-init.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ports.Provider
	order     []string // orden de registro para List()
	logger    logx.Logger
}

// NewProviderRegistry crea un registry vacío.
func NewProviderRegistry(logger logx.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ports.Provider),
		logger:    logger.With("component", "provider-registry"),
	}
}

// Register almacena un provider por su nombre. Si el nombre ya existe se
// sobrescribe en silencio (last write wins): es una preocupación de
// configuración en el arranque, no una condición de carrera en runtime.
func (r *ProviderRegistry) Register(p ports.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p

	r.logger.Info("provider registered", "name", name, "version", p.Version())
}

// Get retorna el provider por nombre, o (nil, false) si no existe.
func (r *ProviderRegistry) Get(name string) (ports.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	return p, ok
}

// List retorna la información de todos los providers en orden de registro.
func (r *ProviderRegistry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.order))
	for _, name := range r.order {
		p := r.providers[name]
		infos = append(infos, ProviderInfo{
			Name:      p.Name(),
			Version:   p.Version(),
			Endpoints: p.Endpoints(),
		})
	}
	return infos
}

// Names retorna los nombres registrados en orden de registro.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len retorna el número de providers registrados.
func (r *ProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
