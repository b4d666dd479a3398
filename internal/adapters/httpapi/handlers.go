// internal/adapters/httpapi/handlers.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/registry"
)

const serviceName = "NetIntel API"

// Analyzer es el caso de uso que ejecuta el pipeline de análisis.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.SearchReport, error)
}

// Handlers agrupa los endpoints del servicio y sus colaboradores.
type Handlers struct {
	analyzer      Analyzer
	registry      *registry.ProviderRegistry
	sealer        ports.Sealer
	archiver      ports.Archiver
	publicKeyPath string
	version       string
	logger        logx.Logger
}

// HandlersConfig configura los endpoints.
type HandlersConfig struct {
	Analyzer      Analyzer
	Registry      *registry.ProviderRegistry
	Sealer        ports.Sealer
	Archiver      ports.Archiver
	PublicKeyPath string
	Version       string
	Logger        logx.Logger
}

// NewHandlers crea los handlers del servicio.
func NewHandlers(cfg HandlersConfig) *Handlers {
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}
	return &Handlers{
		analyzer:      cfg.Analyzer,
		registry:      cfg.Registry,
		sealer:        cfg.Sealer,
		archiver:      cfg.Archiver,
		publicKeyPath: cfg.PublicKeyPath,
		version:       cfg.Version,
		logger:        cfg.Logger.With("component", "httpapi"),
	}
}

// Routes registra todos los endpoints en un mux nuevo.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/providers", h.listProviders)
	mux.HandleFunc("POST /api/search/analyze", h.searchAnalyze)
	mux.HandleFunc("POST /api/query", h.queryEncrypted)
	mux.HandleFunc("POST /api/query/plain", h.queryPlain)
	mux.HandleFunc("GET /api/keys/public", h.publicKey)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// index describe el servicio y sus endpoints.
func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"version":     h.version,
		"description": "API REST con búsqueda SERP, análisis de IPs y salida encriptada",
		"endpoints": []map[string]string{
			{"method": "POST", "path": "/api/search/analyze", "description": "Buscar, analizar y reportar"},
			{"method": "GET", "path": "/api/providers", "description": "Listar providers"},
			{"method": "POST", "path": "/api/query", "description": "Consulta encriptada"},
			{"method": "POST", "path": "/api/query/plain", "description": "Consulta sin encriptar"},
			{"method": "GET", "path": "/api/keys/public", "description": "Descargar llave pública"},
			{"method": "GET", "path": "/api/health", "description": "Estado de salud"},
			{"method": "GET", "path": "/metrics", "description": "Métricas Prometheus"},
		},
		"workflow": "serpstack -> DNS -> ip-api -> censys",
	})
}

// health reporta el estado del servicio y los providers registrados.
func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "healthy",
		"service":             serviceName,
		"version":             h.version,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"providers_available": h.registry.Len(),
		"providers":           h.registry.Names(),
		"encryption":          "RSA-2048 + SHA-256",
	})
}

// listProviders lista los providers en orden de registro.
func (h *Handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"total_providers": len(providers),
		"providers":       providers,
	})
}

// searchAnalyze ejecuta el pipeline completo de búsqueda y enriquecimiento.
//
// 400: query ausente o body malformado. 500 con step: fallo de la etapa de
// búsqueda. 200: reporte best-effort, incluso con enriquecimientos parciales.
func (h *Handlers) searchAnalyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "invalid JSON body",
		})
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		if stageErr, ok := domain.AsStageError(err); ok {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"status": "error",
				"step":   stageErr.Step,
				"error":  stageErr.Message,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// queryRequest es el body de /api/query y /api/query/plain.
type queryRequest struct {
	Provider  string       `json:"provider"`
	QueryType string       `json:"query_type"`
	Params    ports.Params `json:"params"`
}

// resolveQuery valida el body y ejecuta la consulta genérica al provider.
func (h *Handlers) resolveQuery(w http.ResponseWriter, r *http.Request) (string, map[string]any, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Body JSON requerido"})
		return "", nil, false
	}

	if req.Provider == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":               "Campo 'provider' requerido",
			"available_providers": h.registry.Names(),
		})
		return "", nil, false
	}

	provider, ok := h.registry.Get(req.Provider)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":               "Provider '" + req.Provider + "' no encontrado",
			"available_providers": h.registry.Names(),
		})
		return "", nil, false
	}

	if req.Params == nil {
		req.Params = ports.Params{}
	}
	queryType := req.QueryType
	if queryType == "" {
		queryType, _ = req.Params["query_type"].(string)
	}

	result := provider.Fetch(r.Context(), queryType, req.Params)

	response := map[string]any{
		"status":         "success",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"provider":       req.Provider,
		"request_params": req.Params,
		"data":           result,
	}
	return req.Provider, response, true
}

// queryEncrypted consulta un provider y retorna la respuesta sellada.
func (h *Handlers) queryEncrypted(w http.ResponseWriter, r *http.Request) {
	providerName, response, ok := h.resolveQuery(w, r)
	if !ok {
		return
	}

	digest, err := h.sealer.Digest(response)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	chunks, err := h.sealer.Seal(response)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	sealed := domain.SealedPayload{
		CiphertextChunks: chunks,
		Digest:           digest,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	// Persistencia best-effort, igual que en el pipeline de análisis.
	if h.archiver != nil {
		rec := ports.ArchiveRecord{Name: "query_" + providerName, Sealed: sealed, Plain: response}
		if err := h.archiver.Store(r.Context(), rec); err != nil {
			h.logger.Warn("query archiving failed", "provider", providerName, "error", err.Error())
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"encrypted_data":  sealed.CiphertextChunks,
		"sha256_hash":     sealed.Digest,
		"public_key_file": "public_key.pem",
		"note":            "Use the private key to decrypt the data",
		"provider":        providerName,
	})
}

// queryPlain consulta un provider sin sellado.
func (h *Handlers) queryPlain(w http.ResponseWriter, r *http.Request) {
	_, response, ok := h.resolveQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// publicKey sirve la llave pública PEM para que los clientes puedan verificar
// los payloads sellados.
func (h *Handlers) publicKey(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.publicKeyPath); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Public key not found"})
		return
	}

	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Header().Set("Content-Disposition", `attachment; filename="public_key.pem"`)
	http.ServeFile(w, r, h.publicKeyPath)
}
