// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery se rechaza antes de llamar a ningún provider.
var ErrEmptyQuery = errors.New("'query' parameter required")

// StageError señala el fallo de una etapa que aborta la petición completa.
// Solo la etapa de búsqueda produce este error; todo lo posterior degrada
// en registros parcialmente poblados.
type StageError struct {
	Step    string
	Message string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %s", e.Step, e.Message)
}

// NewStageError construye el error de etapa.
func NewStageError(step, message string) *StageError {
	return &StageError{Step: step, Message: message}
}

// AsStageError extrae un *StageError de una cadena de errores.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
