// internal/core/domain/provider_result.go
package domain

import "fmt"

// ProviderResult es el resultado etiquetado de una llamada a un provider externo.
// Invariante: exactamente uno de Data/Error está poblado.
type ProviderResult struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// OK construye un resultado exitoso.
func OK(data any) ProviderResult {
	return ProviderResult{Success: true, Data: data}
}

// OKWithStatus construye un resultado exitoso incluyendo el status HTTP.
func OKWithStatus(data any, status int) ProviderResult {
	return ProviderResult{Success: true, Data: data, StatusCode: status}
}

// Fail construye un resultado fallido con un mensaje legible.
func Fail(msg string) ProviderResult {
	return ProviderResult{Success: false, Error: msg}
}

// Failf construye un resultado fallido con formato.
func Failf(format string, args ...any) ProviderResult {
	return ProviderResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// FailWithStatus construye un resultado fallido incluyendo el status HTTP.
func FailWithStatus(msg string, status int) ProviderResult {
	return ProviderResult{Success: false, Error: msg, StatusCode: status}
}

// FailErr construye un resultado fallido a partir de un error.
func FailErr(err error) ProviderResult {
	if err == nil {
		return Fail("unknown error")
	}
	return ProviderResult{Success: false, Error: err.Error()}
}
