package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vnykmshr/seqflow/internal/testutil"
	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
	"github.com/vnykmshr/seqflow/pkg/metrics"
	"github.com/vnykmshr/seqflow/pkg/streaming/stream"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seqflow.yml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, s, Defaults())
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
name: orders
workers: 3
chunk_size: 64
log:
  level: debug
metrics:
  enabled: true
`)
	s, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertDiff(t, s, Settings{
		Name:      "orders",
		Workers:   3,
		ChunkSize: 64,
		Log:       LogSettings{Level: "debug"},
		Metrics:   Metrics{Enabled: true},
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "workers: 3\nlog:\n  level: warn\n")
	t.Setenv("SEQFLOW_WORKERS", "7")
	t.Setenv("SEQFLOW_LOG_LEVEL", "error")
	t.Setenv("APP_CHUNK_SIZE", "5")

	s, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s.Workers, 7)
	testutil.AssertEqual(t, s.Log.Level, "error")
	testutil.AssertEqual(t, s.ChunkSize, stream.DefaultChunkSize)

	s, err = Load(path, WithEnvPrefix("APP"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s.Workers, 3)
	testutil.AssertEqual(t, s.ChunkSize, 5)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	testutil.AssertError(t, err)

	_, err = Load(writeConfig(t, "workers: 0\n"))
	testutil.AssertErrorIs(t, err, sferrors.ErrInvalidArgument)

	_, err = Load(writeConfig(t, "log:\n  level: chatty\n"))
	testutil.AssertErrorIs(t, err, sferrors.ErrInvalidConfiguration)

	_, err = Load(writeConfig(t, "workers: lots\n"))
	testutil.AssertErrorIs(t, err, sferrors.ErrInvalidConfiguration)
	if !strings.Contains(err.Error(), "workers") {
		t.Fatalf("expected decode cause in error, got %v", err)
	}
}

func TestStreamConfig(t *testing.T) {
	s := Defaults()
	s.Name = "cities"
	s.Workers = 2
	s.Metrics.Enabled = true

	cfg, err := s.StreamConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Name, "cities")
	testutil.AssertEqual(t, cfg.Workers, 2)
	testutil.AssertEqual(t, cfg.ChunkSize, stream.DefaultChunkSize)
	testutil.AssertEqual(t, cfg.Metrics, metrics.DefaultRegistry)
	if cfg.Logger == nil {
		t.Fatal("expected a logger")
	}
	testutil.AssertNoError(t, cfg.Validate())

	n, err := stream.Range(0, 10).WithConfig(cfg).Parallel().Count(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(10))

	s.Metrics.Enabled = false
	cfg, err = s.StreamConfig()
	testutil.AssertNoError(t, err)
	if cfg.Metrics != nil {
		t.Fatal("expected no metrics registry when disabled")
	}

	s.ChunkSize = -1
	_, err = s.StreamConfig()
	testutil.AssertErrorIs(t, err, sferrors.ErrInvalidArgument)
}
