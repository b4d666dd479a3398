// internal/core/domain/request.go
package domain

import "strings"

// Defaults del pipeline de análisis.
const (
	DefaultNumResults = 5
	DefaultAnalyzeTop = 3
	DefaultLang       = "en"
)

// AnalyzeRequest son las opciones de una petición de análisis.
// IncludeCensys usa puntero para distinguir "no enviado" (default true) de false.
type AnalyzeRequest struct {
	Query         string `json:"query"`
	NumResults    int    `json:"num_results,omitempty"`
	AnalyzeTop    int    `json:"analyze_top,omitempty"`
	IncludeCensys *bool  `json:"include_censys,omitempty"`
	IPAPILang     string `json:"ipapi_lang,omitempty"`
}

// Normalize aplica los defaults a los campos no especificados o fuera de rango.
func (r *AnalyzeRequest) Normalize() {
	if r.NumResults <= 0 {
		r.NumResults = DefaultNumResults
	}
	if r.AnalyzeTop <= 0 {
		r.AnalyzeTop = DefaultAnalyzeTop
	}
	if strings.TrimSpace(r.IPAPILang) == "" {
		r.IPAPILang = DefaultLang
	}
}

// Validate verifica la petición antes de cualquier llamada a providers.
func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// WantCensys indica si la etapa de host-intel está habilitada (default: sí).
func (r *AnalyzeRequest) WantCensys() bool {
	if r.IncludeCensys == nil {
		return true
	}
	return *r.IncludeCensys
}
