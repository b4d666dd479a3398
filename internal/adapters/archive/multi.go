// internal/adapters/archive/multi.go
package archive

import (
	"context"

	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
)

// Multi agrupa varios archivers. Store intenta todos aunque alguno falle
// y retorna los errores acumulados.
type Multi struct {
	archivers []ports.Archiver
}

// NewMulti crea el archiver compuesto.
func NewMulti(archivers ...ports.Archiver) *Multi {
	return &Multi{archivers: archivers}
}

// Store entrega el registro a cada archiver en orden.
func (m *Multi) Store(ctx context.Context, rec ports.ArchiveRecord) error {
	var errs []error
	for _, a := range m.archivers {
		if err := a.Store(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
