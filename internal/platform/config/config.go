// internal/platform/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
// Precedencia: defaults -> archivo YAML -> ENV -> flags.
type Config struct {
	Server      Server                    `yaml:"server"`
	Pipeline    Pipeline                  `yaml:"pipeline"`
	Output      Output                    `yaml:"output"`
	Providers   map[string]ProviderConfig `yaml:"providers"`
	Replication Replication               `yaml:"replication"`

	ConfigFile   string `yaml:"-"`
	PrintVersion bool   `yaml:"-"`
}

type Server struct {
	Addr             string `yaml:"addr"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout"`
	MaxBodyBytes     int64  `yaml:"max_body_bytes"`
}

type Pipeline struct {
	// Workers controla la concurrencia del loop por-dominio.
	// 1 = comportamiento de referencia secuencial.
	Workers int `yaml:"workers"`

	DNSTimeoutS int `yaml:"dns_timeout"`

	// GeoCacheTTLS es el TTL en segundos del cache IP->geolocalización (0 = sin cache).
	GeoCacheTTLS int `yaml:"geo_cache_ttl"`
}

type Output struct {
	Dir     string `yaml:"dir"`
	KeysDir string `yaml:"keys_dir"`
}

// ProviderConfig es la configuración por provider.
// Key del mapa = nombre del provider (ej: "serpstack", "ipapi", "censys").
type ProviderConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TimeoutS int    `yaml:"timeout"`
	APIKey   string `yaml:"api_key"`

	// RateLimit es el máximo de peticiones por segundo hacia el provider
	// (0 = sin límite).
	RateLimit float64 `yaml:"rate_limit"`
}

// Replication configura la replicación best-effort al almacenamiento secundario.
type Replication struct {
	// PostgresURL habilita la réplica en Postgres cuando no está vacío.
	PostgresURL string `yaml:"postgres_url"`

	// Copia por comandos externos (hdfs put + scp), como el nodo secundario clásico.
	ExecEnabled   bool   `yaml:"exec_enabled"`
	SecondaryHost string `yaml:"secondary_host"`
	User          string `yaml:"user"`
	RemoteDir     string `yaml:"remote_dir"`
	HadoopBin     string `yaml:"hadoop_bin"`
}

// Default retorna la configuración por defecto.
func Default() Config {
	return Config{
		Server: Server{
			Addr:             ":8080",
			ShutdownTimeoutS: 30,
			MaxBodyBytes:     1 << 20, // 1 MB
		},
		Pipeline: Pipeline{
			Workers:      1,
			DNSTimeoutS:  10,
			GeoCacheTTLS: 3600,
		},
		Output: Output{
			Dir:     "shared_data",
			KeysDir: "shared_data",
		},
		Providers: map[string]ProviderConfig{
			"serpstack": {Enabled: true, TimeoutS: 15},
			// El tier gratuito de ip-api corta a 45 req/min.
			"ipapi":      {Enabled: true, TimeoutS: 10, RateLimit: 0.75},
			"censys":     {Enabled: true, TimeoutS: 30},
			"cloudflare": {Enabled: true, TimeoutS: 10},
			"peeringdb":  {Enabled: true, TimeoutS: 15},
		},
		Replication: Replication{
			HadoopBin: "hadoop",
			RemoteDir: "/mnt/shared_data",
		},
	}
}

// Load inicializa la configuración: defaults -> YAML -> ENV -> flags.
func Load() (Config, error) {
	cfg := Default()

	// El archivo se busca primero en flags/env para poder aplicarlo antes
	// del resto de overrides.
	configFile := getenv("NETINTEL_CONFIG", "")
	for i, arg := range os.Args[1:] {
		if arg == "--config" && i+2 <= len(os.Args[1:]) {
			configFile = os.Args[i+2]
		} else if v, ok := strings.CutPrefix(arg, "--config="); ok {
			configFile = v
		}
	}
	if configFile != "" {
		if err := applyFile(&cfg, configFile); err != nil {
			return cfg, err
		}
		cfg.ConfigFile = configFile
	}

	loadFromEnv(&cfg)
	loadFromFlags(&cfg)
	normalize(&cfg)

	return cfg, nil
}

// applyFile mezcla un archivo YAML sobre la configuración actual.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv carga configuración desde variables de entorno.
// Las credenciales de providers conservan sus nombres clásicos
// (SERPSTACK_API_KEY, CENSYS_API_TOKEN).
func loadFromEnv(cfg *Config) {
	if v := getenv("NETINTEL_ADDR", ""); v != "" {
		cfg.Server.Addr = v
	}
	if v := getenv("NETINTEL_OUTPUT_DIR", ""); v != "" {
		cfg.Output.Dir = v
	}
	if v := getenv("NETINTEL_KEYS_DIR", ""); v != "" {
		cfg.Output.KeysDir = v
	}
	if v := getenv("NETINTEL_WORKERS", ""); v != "" {
		cfg.Pipeline.Workers = parseInt(v, cfg.Pipeline.Workers)
	}
	if v := getenv("NETINTEL_DNS_TIMEOUT", ""); v != "" {
		cfg.Pipeline.DNSTimeoutS = parseInt(v, cfg.Pipeline.DNSTimeoutS)
	}
	if v := getenv("NETINTEL_POSTGRES_URL", ""); v != "" {
		cfg.Replication.PostgresURL = v
	}

	// Credenciales
	if v := getenv("SERPSTACK_API_KEY", ""); v != "" {
		setAPIKey(cfg, "serpstack", v)
	}
	if v := getenv("CENSYS_API_TOKEN", ""); v != "" {
		setAPIKey(cfg, "censys", v)
	}

	// Overrides por provider: NETINTEL_PROVIDERS_<NAME>_ENABLED / _TIMEOUT / _RATE_LIMIT
	for name := range cfg.Providers {
		prefix := fmt.Sprintf("NETINTEL_PROVIDERS_%s_", strings.ToUpper(name))

		pc := cfg.Providers[name]
		if v := getenv(prefix+"ENABLED", ""); v != "" {
			pc.Enabled = parseBool(v)
		}
		if v := getenv(prefix+"TIMEOUT", ""); v != "" {
			pc.TimeoutS = parseInt(v, pc.TimeoutS)
		}
		if v := getenv(prefix+"RATE_LIMIT", ""); v != "" {
			pc.RateLimit = parseFloat(v, pc.RateLimit)
		}
		cfg.Providers[name] = pc
	}
}

// loadFromFlags parsea flags de CLI (overrides de ENV).
func loadFromFlags(cfg *Config) {
	flag.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Archivo de configuración YAML")
	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "Dirección de escucha HTTP")
	flag.StringVar(&cfg.Output.Dir, "out", cfg.Output.Dir, "Directorio de salida")
	flag.StringVar(&cfg.Output.KeysDir, "keys", cfg.Output.KeysDir, "Directorio de llaves RSA")
	flag.IntVar(&cfg.Pipeline.Workers, "workers", cfg.Pipeline.Workers, "Concurrencia del análisis por dominio (1 = secuencial)")
	flag.StringVar(&cfg.Replication.PostgresURL, "postgres", cfg.Replication.PostgresURL, "URL de Postgres para réplica secundaria (opcional)")
	flag.BoolVar(&cfg.PrintVersion, "version", false, "Imprimir versión y salir")

	flag.Parse()
}

func normalize(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeoutS <= 0 {
		c.Server.ShutdownTimeoutS = 30
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Pipeline.Workers < 1 {
		c.Pipeline.Workers = 1
	}
	if c.Pipeline.DNSTimeoutS <= 0 {
		c.Pipeline.DNSTimeoutS = 10
	}
	if c.Pipeline.GeoCacheTTLS < 0 {
		c.Pipeline.GeoCacheTTLS = 0
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "shared_data"
	}
	if c.Output.KeysDir == "" {
		c.Output.KeysDir = c.Output.Dir
	}
}

func setAPIKey(cfg *Config, name, key string) {
	pc := cfg.Providers[name]
	pc.APIKey = key
	cfg.Providers[name] = pc
}

// ProviderTimeout retorna el timeout configurado de un provider como duración.
func (c Config) ProviderTimeout(name string) time.Duration {
	pc, ok := c.Providers[name]
	if !ok || pc.TimeoutS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(pc.TimeoutS) * time.Second
}

// ProviderRateLimit retorna el límite de peticiones por segundo de un
// provider (0 = sin límite).
func (c Config) ProviderRateLimit(name string) float64 {
	pc, ok := c.Providers[name]
	if !ok || pc.RateLimit < 0 {
		return 0
	}
	return pc.RateLimit
}

// ShutdownTimeout retorna el timeout de apagado como duración.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutS) * time.Second
}

// DNSTimeout retorna el timeout de resolución DNS como duración.
func (c Config) DNSTimeout() time.Duration {
	return time.Duration(c.Pipeline.DNSTimeoutS) * time.Second
}

// GeoCacheTTL retorna el TTL del cache de geolocalización como duración.
func (c Config) GeoCacheTTL() time.Duration {
	return time.Duration(c.Pipeline.GeoCacheTTLS) * time.Second
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}
