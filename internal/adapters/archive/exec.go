// internal/adapters/archive/exec.go
package archive

import (
	"context"
	"os/exec"
	"path/filepath"
	"time"

	"netintel/internal/platform/errors"
	"netintel/internal/platform/logx"
)

const execTimeout = 30 * time.Second

// HDFSReplicator copia archivos al HDFS local ejecutando el binario de hadoop
// como el usuario de replicación.
type HDFSReplicator struct {
	user      string
	hadoopBin string
	logger    logx.Logger
}

// NewHDFSReplicator crea el replicator de HDFS.
func NewHDFSReplicator(user, hadoopBin string, logger logx.Logger) *HDFSReplicator {
	if hadoopBin == "" {
		hadoopBin = "hadoop"
	}
	return &HDFSReplicator{
		user:      user,
		hadoopBin: hadoopBin,
		logger:    logger.With("component", "hdfs-replicator"),
	}
}

// Replicate ejecuta `sudo -u <user> hadoop dfs -put -f <path> /`.
func (r *HDFSReplicator) Replicate(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	args := hdfsArgs(r.user, r.hadoopBin, path)
	r.logger.Debug("hdfs put", "file", path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "hdfs put failed: %s", string(out))
	}
	return nil
}

func hdfsArgs(user, hadoopBin, path string) []string {
	return []string{"sudo", "-u", user, hadoopBin, "dfs", "-put", "-f", path, "/"}
}

// SCPReplicator copia archivos al nodo secundario vía scp.
type SCPReplicator struct {
	user      string
	host      string
	remoteDir string
	logger    logx.Logger
}

// NewSCPReplicator crea el replicator de scp.
func NewSCPReplicator(user, host, remoteDir string, logger logx.Logger) *SCPReplicator {
	return &SCPReplicator{
		user:      user,
		host:      host,
		remoteDir: remoteDir,
		logger:    logger.With("component", "scp-replicator"),
	}
}

// Replicate ejecuta `scp <path> user@host:remoteDir/<nombre>` con host key
// checking deshabilitado y timeout de conexión corto.
func (r *SCPReplicator) Replicate(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, execTimeout)
	defer cancel()

	args := scpArgs(r.user, r.host, r.remoteDir, path)
	r.logger.Debug("scp replicate", "file", path, "host", r.host)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "scp replication failed: %s", string(out))
	}

	r.logger.Info("file replicated", "file", filepath.Base(path), "host", r.host)
	return nil
}

func scpArgs(user, host, remoteDir, path string) []string {
	remote := user + "@" + host + ":" + remoteDir + "/" + filepath.Base(path)
	return []string{
		"scp",
		"-o", "StrictHostKeyChecking=no",
		"-o", "ConnectTimeout=5",
		path,
		remote,
	}
}
