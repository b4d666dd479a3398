// Package archive implements the persistence collaborators of the pipeline.
// Every archiver here is best-effort: failures are logged by the caller and
// never reach the HTTP response.
package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"netintel/internal/core/ports"
	"netintel/internal/platform/errors"
	"netintel/internal/platform/logx"
)

const maxSafeNameLen = 50

// Replicator copia un archivo ya escrito a un almacenamiento secundario.
type Replicator interface {
	Replicate(ctx context.Context, path string) error
}

// FileArchiver escribe la forma sellada y la forma plana de cada registro
// como JSON en el directorio de salida, y luego dispara los replicators
// configurados sobre cada archivo escrito.
type FileArchiver struct {
	dir         string
	logger      logx.Logger
	replicators []Replicator

	// now permite fijar el timestamp en tests
	now func() time.Time
}

// NewFileArchiver crea el archiver de disco. El directorio se crea si no existe.
func NewFileArchiver(dir string, logger logx.Logger, replicators ...Replicator) (*FileArchiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	return &FileArchiver{
		dir:         dir,
		logger:      logger.With("component", "file-archiver"),
		replicators: replicators,
		now:         time.Now,
	}, nil
}

// Store escribe los archivos search_<nombre>_<ts>_encrypted.json y
// search_<nombre>_<ts>_plain.json y los replica. La replicación falla en
// silencio: el registro local ya quedó escrito.
func (a *FileArchiver) Store(ctx context.Context, rec ports.ArchiveRecord) error {
	stamp := a.now().Format("20060102_150405")
	base := "search_" + SanitizeName(rec.Name) + "_" + stamp

	sealedPath := filepath.Join(a.dir, base+"_encrypted.json")
	if err := writeJSON(sealedPath, rec.Sealed); err != nil {
		return err
	}

	plainPath := filepath.Join(a.dir, base+"_plain.json")
	if err := writeJSON(plainPath, rec.Plain); err != nil {
		return err
	}

	a.logger.Info("report archived", "sealed", sealedPath, "plain", plainPath)

	for _, r := range a.replicators {
		for _, path := range []string{sealedPath, plainPath} {
			if err := r.Replicate(ctx, path); err != nil {
				a.logger.Warn("replication failed", "file", path, "error", err.Error())
			}
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize archive record")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// SanitizeName reduce un nombre arbitrario a [A-Za-z0-9_] truncado, apto
// para nombre de archivo.
func SanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if len(out) >= maxSafeNameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "unnamed"
	}
	return string(out)
}
