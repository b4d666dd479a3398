package archive

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/logx"
	"netintel/internal/testutil"
)

func testLogger() logx.Logger {
	return logx.NewWithLevel(logx.LevelError)
}

func sampleRecord() ports.ArchiveRecord {
	return ports.ArchiveRecord{
		Name: "mi consulta!",
		Sealed: domain.SealedPayload{
			CiphertextChunks: []string{"abc", "def"},
			Digest:           "cafe",
			Timestamp:        "2024-05-01T00:00:00Z",
		},
		Plain: map[string]any{"query": "mi consulta!"},
	}
}

func TestFileArchiverWritesSealedAndPlain(t *testing.T) {
	dir := t.TempDir()

	a, err := NewFileArchiver(dir, testLogger())
	testutil.AssertNoError(t, err, "NewFileArchiver")
	a.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	err = a.Store(context.Background(), sampleRecord())
	testutil.AssertNoError(t, err, "Store")

	sealedPath := filepath.Join(dir, "search_mi_consulta__20240501_123000_encrypted.json")
	plainPath := filepath.Join(dir, "search_mi_consulta__20240501_123000_plain.json")

	data, err := os.ReadFile(sealedPath)
	testutil.AssertNoError(t, err, "read sealed file")

	var sealed domain.SealedPayload
	testutil.AssertNoError(t, json.Unmarshal(data, &sealed), "parse sealed file")
	testutil.AssertEqual(t, sealed.Digest, "cafe", "digest persisted")
	testutil.AssertEqual(t, len(sealed.CiphertextChunks), 2, "chunks persisted")

	if _, err := os.Stat(plainPath); err != nil {
		t.Errorf("plain file missing: %v", err)
	}
}

func TestFileArchiverCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	_, err := NewFileArchiver(dir, testLogger())
	testutil.AssertNoError(t, err, "NewFileArchiver with nested dir")

	info, err := os.Stat(dir)
	testutil.AssertNoError(t, err, "stat output dir")
	testutil.AssertTrue(t, info.IsDir(), "output dir created")
}

type recordingReplicator struct {
	paths []string
	err   error
}

func (r *recordingReplicator) Replicate(ctx context.Context, path string) error {
	r.paths = append(r.paths, path)
	return r.err
}

func TestFileArchiverReplicatesWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	rep := &recordingReplicator{}

	a, err := NewFileArchiver(dir, testLogger(), rep)
	testutil.AssertNoError(t, err, "NewFileArchiver")

	testutil.AssertNoError(t, a.Store(context.Background(), sampleRecord()), "Store")
	testutil.AssertEqual(t, len(rep.paths), 2, "both files replicated")
}

func TestFileArchiverReplicationFailureDoesNotFailStore(t *testing.T) {
	dir := t.TempDir()
	rep := &recordingReplicator{err: errors.New("secondary unreachable")}

	a, err := NewFileArchiver(dir, testLogger(), rep)
	testutil.AssertNoError(t, err, "NewFileArchiver")

	err = a.Store(context.Background(), sampleRecord())
	testutil.AssertNoError(t, err, "replication failure is swallowed")
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"simple":          "simple",
		"con espacios ya": "con_espacios_ya",
		"weird/../path":   "weird____path",
		"":                "unnamed",
	}
	for in, want := range cases {
		testutil.AssertEqual(t, SanitizeName(in), want, "SanitizeName("+in+")")
	}

	long := make([]byte, 120)
	for i := range long {
		long[i] = 'x'
	}
	testutil.AssertEqual(t, len(SanitizeName(string(long))), maxSafeNameLen, "name truncated")
}

func TestHDFSAndSCPArgs(t *testing.T) {
	hdfs := hdfsArgs("hduser", "hadoop", "/data/f.json")
	want := []string{"sudo", "-u", "hduser", "hadoop", "dfs", "-put", "-f", "/data/f.json", "/"}
	if !reflect.DeepEqual(hdfs, want) {
		t.Errorf("hdfsArgs = %v, want %v", hdfs, want)
	}

	scp := scpArgs("hduser", "10.0.0.2", "/mnt/shared_data", "/data/f.json")
	testutil.AssertEqual(t, scp[0], "scp", "scp binary")
	testutil.AssertEqual(t, scp[len(scp)-1], "hduser@10.0.0.2:/mnt/shared_data/f.json", "scp remote path")
	testutil.AssertContains(t, scp, "StrictHostKeyChecking=no", "host key checking disabled")
}

type failingArchiver struct{}

func (failingArchiver) Store(ctx context.Context, rec ports.ArchiveRecord) error {
	return errors.New("always fails")
}

func TestMultiTriesAllArchivers(t *testing.T) {
	dir := t.TempDir()
	fileArch, err := NewFileArchiver(dir, testLogger())
	testutil.AssertNoError(t, err, "NewFileArchiver")

	multi := NewMulti(failingArchiver{}, fileArch)

	err = multi.Store(context.Background(), sampleRecord())
	testutil.AssertError(t, err, "aggregated error reported")

	entries, readErr := os.ReadDir(dir)
	testutil.AssertNoError(t, readErr, "read output dir")
	testutil.AssertEqual(t, len(entries), 2, "second archiver still ran")
}
