package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Pipeline.Workers)
	}
	if cfg.Output.Dir != "shared_data" {
		t.Errorf("Output.Dir = %q, want shared_data", cfg.Output.Dir)
	}

	for _, name := range []string{"serpstack", "ipapi", "censys", "cloudflare", "peeringdb"} {
		pc, ok := cfg.Providers[name]
		if !ok {
			t.Fatalf("provider %q missing from defaults", name)
		}
		if !pc.Enabled {
			t.Errorf("provider %q should be enabled by default", name)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg := Default()

	t.Setenv("NETINTEL_ADDR", ":9090")
	t.Setenv("NETINTEL_WORKERS", "4")
	t.Setenv("SERPSTACK_API_KEY", "sk-abc")
	t.Setenv("CENSYS_API_TOKEN", "tok-xyz")
	t.Setenv("NETINTEL_PROVIDERS_CENSYS_ENABLED", "false")
	t.Setenv("NETINTEL_PROVIDERS_IPAPI_TIMEOUT", "25")
	t.Setenv("NETINTEL_PROVIDERS_IPAPI_RATE_LIMIT", "2.5")

	loadFromEnv(&cfg)

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Providers["serpstack"].APIKey != "sk-abc" {
		t.Errorf("serpstack APIKey = %q", cfg.Providers["serpstack"].APIKey)
	}
	if cfg.Providers["censys"].APIKey != "tok-xyz" {
		t.Errorf("censys APIKey = %q", cfg.Providers["censys"].APIKey)
	}
	if cfg.Providers["censys"].Enabled {
		t.Error("censys should be disabled via env")
	}
	if cfg.Providers["ipapi"].TimeoutS != 25 {
		t.Errorf("ipapi timeout = %d, want 25", cfg.Providers["ipapi"].TimeoutS)
	}
	if cfg.Providers["ipapi"].RateLimit != 2.5 {
		t.Errorf("ipapi rate_limit = %v, want 2.5", cfg.Providers["ipapi"].RateLimit)
	}
}

func TestProviderRateLimit(t *testing.T) {
	cfg := Default()

	// ip-api gratuito: 45 req/min
	if got := cfg.ProviderRateLimit("ipapi"); got != 0.75 {
		t.Errorf("ProviderRateLimit(ipapi) = %v, want 0.75", got)
	}
	if got := cfg.ProviderRateLimit("serpstack"); got != 0 {
		t.Errorf("ProviderRateLimit(serpstack) = %v, want 0", got)
	}
	if got := cfg.ProviderRateLimit("unknown"); got != 0 {
		t.Errorf("ProviderRateLimit(unknown) = %v, want 0", got)
	}

	pc := cfg.Providers["censys"]
	pc.RateLimit = -1
	cfg.Providers["censys"] = pc
	if got := cfg.ProviderRateLimit("censys"); got != 0 {
		t.Errorf("ProviderRateLimit with negative value = %v, want 0", got)
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
server:
  addr: ":7000"
pipeline:
  workers: 8
providers:
  serpstack:
    enabled: true
    timeout: 20
    api_key: from-file
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := applyFile(&cfg, path); err != nil {
		t.Fatalf("applyFile: %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Pipeline.Workers)
	}
	if cfg.Providers["serpstack"].APIKey != "from-file" {
		t.Errorf("serpstack APIKey = %q", cfg.Providers["serpstack"].APIKey)
	}
}

func TestApplyFileMissing(t *testing.T) {
	cfg := Default()
	if err := applyFile(&cfg, "/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{}
	normalize(&cfg)

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Pipeline.Workers)
	}
	if cfg.Output.KeysDir != cfg.Output.Dir {
		t.Errorf("KeysDir = %q, want %q", cfg.Output.KeysDir, cfg.Output.Dir)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if got := cfg.ProviderTimeout("censys"); got != 30*time.Second {
		t.Errorf("ProviderTimeout(censys) = %v", got)
	}
	if got := cfg.ProviderTimeout("unknown"); got != 15*time.Second {
		t.Errorf("ProviderTimeout(unknown) = %v, want fallback 15s", got)
	}
	if got := cfg.DNSTimeout(); got != 10*time.Second {
		t.Errorf("DNSTimeout = %v", got)
	}
}
