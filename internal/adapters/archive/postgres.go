// internal/adapters/archive/postgres.go
package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/logx"
)

// PostgresArchiver replica cada registro sellado en una tabla de Postgres,
// como nodo secundario estructurado además de los archivos en disco.
type PostgresArchiver struct {
	pool   *pgxpool.Pool
	logger logx.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS sealed_reports (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	digest TEXT NOT NULL,
	sealed JSONB NOT NULL,
	plain JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresArchiver abre el pool, verifica conectividad y asegura el esquema.
func NewPostgresArchiver(ctx context.Context, dsn string, logger logx.Logger) (*PostgresArchiver, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create postgres pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres ping failed")
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ensure sealed_reports schema")
	}

	return &PostgresArchiver{
		pool:   pool,
		logger: logger.With("component", "postgres-archiver"),
	}, nil
}

// Store inserta el registro sellado y su forma plana.
func (a *PostgresArchiver) Store(ctx context.Context, rec ports.ArchiveRecord) error {
	sealedJSON, err := json.Marshal(rec.Sealed)
	if err != nil {
		return errors.Wrap(err, "failed to serialize sealed form")
	}
	plainJSON, err := json.Marshal(rec.Plain)
	if err != nil {
		return errors.Wrap(err, "failed to serialize plain form")
	}

	query := `
	INSERT INTO sealed_reports (id, name, digest, sealed, plain, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	id := uuid.New()
	_, err = a.pool.Exec(ctx, query,
		id,
		rec.Name,
		rec.Sealed.Digest,
		sealedJSON,
		plainJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert sealed report")
	}

	a.logger.Debug("report replicated to postgres", "id", id.String(), "name", rec.Name)
	return nil
}

// Close libera el pool de conexiones.
func (a *PostgresArchiver) Close() {
	a.pool.Close()
}
