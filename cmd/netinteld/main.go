// cmd/netinteld/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"netintel/internal/adapters/archive"
	"netintel/internal/adapters/httpapi"
	"netintel/internal/core/usecases"
	"netintel/internal/platform/config"
	"netintel/internal/platform/dnsx"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/registry"
	"netintel/internal/platform/sealer"
	"netintel/internal/platform/ui"
	"netintel/internal/providers/censys"
	"netintel/internal/providers/cloudflare"
	"netintel/internal/providers/ipapi"
	"netintel/internal/providers/peeringdb"
	"netintel/internal/providers/serpstack"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "netinteld: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.PrintVersion {
		fmt.Println("netinteld " + version)
		return nil
	}

	logger := logx.New().With("service", "netinteld")

	// Llaves RSA: generadas una vez, de solo lectura el resto del proceso.
	keys, err := sealer.LoadOrGenerate(cfg.Output.KeysDir, logger)
	if err != nil {
		return err
	}
	rsaSealer, err := sealer.New(keys)
	if err != nil {
		return err
	}

	// Providers: construcción explícita e inyección en el registry al
	// arranque. Último registro gana si un nombre se repite.
	reg := registry.NewProviderRegistry(logger)

	searchProvider := serpstack.New(logger, serpstack.Options{
		APIKey:    cfg.Providers["serpstack"].APIKey,
		Timeout:   cfg.ProviderTimeout("serpstack"),
		RateLimit: cfg.ProviderRateLimit("serpstack"),
	})
	geoProvider := ipapi.New(logger, ipapi.Options{
		Timeout:   cfg.ProviderTimeout("ipapi"),
		CacheTTL:  cfg.GeoCacheTTL(),
		RateLimit: cfg.ProviderRateLimit("ipapi"),
	})
	hostIntelProvider := censys.New(logger, censys.Options{
		APIToken:  cfg.Providers["censys"].APIKey,
		Timeout:   cfg.ProviderTimeout("censys"),
		RateLimit: cfg.ProviderRateLimit("censys"),
	})

	if cfg.Providers["serpstack"].Enabled {
		reg.Register(searchProvider)
	}
	if cfg.Providers["ipapi"].Enabled {
		reg.Register(geoProvider)
	}
	if cfg.Providers["censys"].Enabled {
		reg.Register(hostIntelProvider)
	}
	if cfg.Providers["cloudflare"].Enabled {
		reg.Register(cloudflare.New(logger, cloudflare.Options{
			Timeout:   cfg.ProviderTimeout("cloudflare"),
			RateLimit: cfg.ProviderRateLimit("cloudflare"),
		}))
	}
	if cfg.Providers["peeringdb"].Enabled {
		reg.Register(peeringdb.New(logger, peeringdb.Options{
			Timeout:   cfg.ProviderTimeout("peeringdb"),
			RateLimit: cfg.ProviderRateLimit("peeringdb"),
		}))
	}

	archiver, err := buildArchiver(cfg, logger)
	if err != nil {
		return err
	}

	service := usecases.NewAnalyzeService(usecases.Options{
		Searcher:   searchProvider,
		Geolocator: geoProvider,
		HostIntel:  hostIntelProvider,
		Resolver:   dnsx.New(cfg.DNSTimeout()),
		Sealer:     rsaSealer,
		Archiver:   archiver,
		Logger:     logger,
		Workers:    cfg.Pipeline.Workers,
	})

	handlers := httpapi.NewHandlers(httpapi.HandlersConfig{
		Analyzer:      service,
		Registry:      reg,
		Sealer:        rsaSealer,
		Archiver:      archiver,
		PublicKeyPath: sealer.PublicKeyPath(cfg.Output.KeysDir),
		Version:       version,
		Logger:        logger,
	})

	server := httpapi.NewServer(httpapi.ServerConfig{
		Addr:            cfg.Server.Addr,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, handlers, logger)

	ui.ShowStartup(ui.StartupInfo{
		Version:   version,
		Addr:      cfg.Server.Addr,
		Providers: reg.Names(),
		OutputDir: cfg.Output.Dir,
		Workers:   cfg.Pipeline.Workers,
	})

	return server.ListenAndServe()
}

// buildArchiver arma la cadena de persistencia: archivos locales con
// replicación opcional por hdfs/scp, más réplica opcional en Postgres.
func buildArchiver(cfg config.Config, logger logx.Logger) (*archive.Multi, error) {
	var replicators []archive.Replicator
	if cfg.Replication.ExecEnabled {
		replicators = append(replicators,
			archive.NewHDFSReplicator(cfg.Replication.User, cfg.Replication.HadoopBin, logger),
			archive.NewSCPReplicator(cfg.Replication.User, cfg.Replication.SecondaryHost, cfg.Replication.RemoteDir, logger),
		)
	}

	fileArchiver, err := archive.NewFileArchiver(cfg.Output.Dir, logger, replicators...)
	if err != nil {
		return nil, err
	}

	if cfg.Replication.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pg, err := archive.NewPostgresArchiver(ctx, cfg.Replication.PostgresURL, logger)
		if err != nil {
			// La réplica secundaria es best-effort incluso en el arranque.
			logger.Warn("postgres replication disabled", "error", err.Error())
			return archive.NewMulti(fileArchiver), nil
		}
		return archive.NewMulti(fileArchiver, pg), nil
	}

	return archive.NewMulti(fileArchiver), nil
}
