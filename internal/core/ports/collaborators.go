// internal/core/ports/collaborators.go
package ports

import (
	"context"

	"netintel/internal/core/domain"
)

// Resolver resuelve un nombre de dominio a una dirección IP (v4 o v6).
type Resolver interface {
	LookupIP(ctx context.Context, host string) (string, error)
}

// Sealer serializa, hashea y cifra payloads para almacenamiento confidencial.
type Sealer interface {
	// Digest retorna el SHA-256 hex del JSON canónico (claves ordenadas) del payload.
	Digest(payload any) (string, error)

	// Seal retorna los chunks cifrados en base64, en orden.
	Seal(payload any) ([]string, error)
}

// ArchiveRecord es la unidad que recibe el colaborador de persistencia:
// la forma sellada más la forma plana del mismo payload.
type ArchiveRecord struct {
	Name   string
	Sealed domain.SealedPayload
	Plain  any
}

// Archiver persiste registros de forma durable con replicación best-effort.
// Sus fallos se loguean y se tragan: nunca alteran el resultado HTTP.
type Archiver interface {
	Store(ctx context.Context, rec ArchiveRecord) error
}
