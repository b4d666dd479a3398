// internal/core/usecases/analyze_service.go
package usecases

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"netintel/internal/core/domain"
	"netintel/internal/core/ports"
	"netintel/internal/platform/logx"
	"netintel/internal/platform/metrics"
	"netintel/internal/platform/workerpool"
)

// AnalyzeService orquesta el pipeline de búsqueda y enriquecimiento:
// búsqueda -> selección -> (DNS -> geolocalización + host-intel) por dominio
// -> agregación -> sellado y persistencia best-effort.
//
// Cada petición es una pasada lineal sin reintentos. Solo el fallo de la
// etapa de búsqueda aborta la petición; todo lo posterior degrada en
// registros parcialmente poblados.
type AnalyzeService struct {
	searcher   ports.Searcher
	geolocator ports.Geolocator
	hostIntel  ports.HostIntel
	resolver   ports.Resolver
	sealer     ports.Sealer
	archiver   ports.Archiver
	logger     logx.Logger

	// workers > 1 paraleliza el loop por-dominio preservando el orden
	// de ranking en el reporte final.
	workers int
}

// Options agrupa los colaboradores del servicio. Searcher y Resolver son
// obligatorios para peticiones útiles; el resto degrada a omisión silenciosa.
type Options struct {
	Searcher   ports.Searcher
	Geolocator ports.Geolocator
	HostIntel  ports.HostIntel
	Resolver   ports.Resolver
	Sealer     ports.Sealer
	Archiver   ports.Archiver
	Logger     logx.Logger
	Workers    int
}

// NewAnalyzeService crea el servicio de análisis.
func NewAnalyzeService(opts Options) *AnalyzeService {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &AnalyzeService{
		searcher:   opts.Searcher,
		geolocator: opts.Geolocator,
		hostIntel:  opts.HostIntel,
		resolver:   opts.Resolver,
		sealer:     opts.Sealer,
		archiver:   opts.Archiver,
		logger:     opts.Logger.With("component", "analyze-service"),
		workers:    opts.Workers,
	}
}

// Analyze ejecuta el pipeline completo para una petición.
//
// Errores retornados: domain.ErrEmptyQuery para validación,
// *domain.StageError para el fallo de la etapa de búsqueda. Cualquier otro
// fallo posterior queda registrado dentro del reporte, nunca como error.
func (s *AnalyzeService) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.SearchReport, error) {
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.searcher == nil {
		return nil, domain.NewStageError("search", "search provider not available")
	}

	s.logger.Info("analysis started",
		"query", req.Query,
		"num_results", req.NumResults,
		"analyze_top", req.AnalyzeTop,
	)

	hits, err := s.searcher.ExtractDomains(ctx, req.Query, req.NumResults, "")
	if err != nil {
		metrics.ProviderCallsTotal.WithLabelValues(s.searcher.Name(), "extract_domains", "error").Inc()
		s.logger.Err(err, "stage", "search", "query", req.Query)
		return nil, domain.NewStageError("search", err.Error())
	}
	metrics.ProviderCallsTotal.WithLabelValues(s.searcher.Name(), "extract_domains", "ok").Inc()

	// Cero dominios es un estado terminal válido, no un error.
	if len(hits) == 0 {
		report := &domain.SearchReport{
			Query:         req.Query,
			Results:       []*domain.DomainAnalysis{},
			TotalResults:  0,
			ExecutionTime: time.Since(start).Seconds(),
		}
		s.archive(ctx, report)
		return report, nil
	}

	selected := hits
	if len(selected) > req.AnalyzeTop {
		selected = selected[:req.AnalyzeTop]
	}

	results := s.analyzeAll(ctx, req, selected)

	report := &domain.SearchReport{
		Query:         req.Query,
		Results:       results,
		TotalResults:  len(results),
		ExecutionTime: time.Since(start).Seconds(),
	}

	metrics.AnalyzeDuration.Observe(report.ExecutionTime)
	s.logger.Info("analysis completed",
		"query", req.Query,
		"domains", len(results),
		"duration_s", fmt.Sprintf("%.2f", report.ExecutionTime),
	)

	// Sellado y persistencia nunca alteran el resultado visible.
	s.archive(ctx, report)

	return report, nil
}

// analyzeAll analiza los dominios seleccionados. El slice de salida siempre
// queda indexado por ranking de búsqueda, con 1 o N workers.
func (s *AnalyzeService) analyzeAll(ctx context.Context, req domain.AnalyzeRequest, selected []domain.SearchHit) []*domain.DomainAnalysis {
	results := make([]*domain.DomainAnalysis, len(selected))

	if s.workers <= 1 || len(selected) == 1 {
		for i, hit := range selected {
			results[i] = s.analyzeDomain(ctx, req, hit)
		}
		return results
	}

	workers := s.workers
	if workers > len(selected) {
		workers = len(selected)
	}

	// Los dominios mejor rankeados se despachan primero; el orden de salida
	// lo fijan los slots por índice, no el orden de ejecución.
	pool := workerpool.New(workerpool.Config{
		Workers:   workers,
		Scheduler: workerpool.NewPriorityScheduler(),
		Logger:    s.logger,
	})
	pool.Start()
	defer pool.Stop()

	tasks := make([]workerpool.Task, len(selected))
	for i, hit := range selected {
		tasks[i] = &domainTask{
			service:  s,
			req:      req,
			hit:      hit,
			slot:     &results[i],
			priority: len(selected) - i,
		}
	}
	pool.Submit(tasks)

	return results
}

// analyzeDomain ejecuta los pasos DNS -> geolocalización + host-intel para un
// dominio. Nunca retorna nil ni propaga pánicos: cualquier excepción queda en
// el campo error del registro y el loop continúa con el siguiente dominio.
func (s *AnalyzeService) analyzeDomain(ctx context.Context, req domain.AnalyzeRequest, hit domain.SearchHit) (analysis *domain.DomainAnalysis) {
	analysis = domain.NewDomainAnalysis(hit)

	defer func() {
		if r := recover(); r != nil {
			analysis.Error = fmt.Sprintf("unexpected failure: %v", r)
			s.logger.Warn("panic during domain analysis", "domain", hit.Domain, "panic", fmt.Sprintf("%v", r))
		}
	}()

	if s.resolver == nil {
		analysis.MarkDNSFailure()
		metrics.DomainsAnalyzedTotal.WithLabelValues("failed").Inc()
		return analysis
	}

	ip, err := s.resolver.LookupIP(ctx, hit.Domain)
	if err != nil {
		// El fallo DNS es explícito en el registro, a diferencia de los
		// fallos de enriquecimiento que se omiten en silencio.
		analysis.MarkDNSFailure()
		metrics.DomainsAnalyzedTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("DNS resolution failed", "domain", hit.Domain, "error", err.Error())
		return analysis
	}
	analysis.MarkResolved(ip)
	metrics.DomainsAnalyzedTotal.WithLabelValues("resolved").Inc()

	s.enrich(ctx, req, analysis, ip)

	return analysis
}

// enrich ejecuta geolocalización y host-intel en paralelo sobre una IP ya
// resuelta. Ambas etapas son tolerantes: su fallo deja los campos sin fijar
// y no marca error en el registro.
func (s *AnalyzeService) enrich(ctx context.Context, req domain.AnalyzeRequest, analysis *domain.DomainAnalysis, ip string) {
	g, gctx := errgroup.WithContext(ctx)

	if s.geolocator != nil {
		g.Go(func() error {
			geo, err := s.geolocator.Lookup(gctx, ip, req.IPAPILang)
			if err != nil {
				metrics.ProviderCallsTotal.WithLabelValues(s.geolocator.Name(), "lookup", "error").Inc()
				s.logger.Debug("geolocation skipped", "ip", ip, "error", err.Error())
				return nil
			}
			metrics.ProviderCallsTotal.WithLabelValues(s.geolocator.Name(), "lookup", "ok").Inc()
			analysis.SetGeolocation(geo)
			return nil
		})
	}

	if req.WantCensys() && s.hostIntel != nil && s.hostIntel.HasCredential() {
		g.Go(func() error {
			summary, err := s.hostIntel.HostSummary(gctx, ip)
			if err != nil {
				metrics.ProviderCallsTotal.WithLabelValues(s.hostIntel.Name(), "host_summary", "error").Inc()
				s.logger.Debug("host-intel skipped", "ip", ip, "error", err.Error())
				return nil
			}
			metrics.ProviderCallsTotal.WithLabelValues(s.hostIntel.Name(), "host_summary", "ok").Inc()
			analysis.SetHostIntel(summary)
			return nil
		})
	}

	// Las closures nunca retornan error; Wait solo sincroniza.
	_ = g.Wait()
}

// archive sella el reporte y lo entrega al archiver. Todo fallo aquí se
// loguea y se traga: el resultado HTTP ya está decidido.
func (s *AnalyzeService) archive(ctx context.Context, report *domain.SearchReport) {
	if s.sealer == nil || s.archiver == nil {
		return
	}

	digest, err := s.sealer.Digest(report)
	if err != nil {
		metrics.ArchiveFailuresTotal.Inc()
		s.logger.Warn("report digest failed", "query", report.Query, "error", err.Error())
		return
	}

	chunks, err := s.sealer.Seal(report)
	if err != nil {
		metrics.ArchiveFailuresTotal.Inc()
		s.logger.Warn("report sealing failed", "query", report.Query, "error", err.Error())
		return
	}

	rec := ports.ArchiveRecord{
		Name: report.Query,
		Sealed: domain.SealedPayload{
			CiphertextChunks: chunks,
			Digest:           digest,
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		},
		Plain: report,
	}

	if err := s.archiver.Store(ctx, rec); err != nil {
		metrics.ArchiveFailuresTotal.Inc()
		s.logger.Warn("report archiving failed", "query", report.Query, "error", err.Error())
	}
}

// domainTask adapta el análisis de un dominio al worker pool. Escribe en su
// slot preasignado, así el orden final es el de ranking aunque los workers
// terminen fuera de orden. La prioridad decrece con el ranking: el mejor
// resultado de búsqueda entra primero a la cola.
type domainTask struct {
	service  *AnalyzeService
	req      domain.AnalyzeRequest
	hit      domain.SearchHit
	slot     **domain.DomainAnalysis
	priority int
}

func (t *domainTask) Execute(ctx context.Context) error {
	*t.slot = t.service.analyzeDomain(ctx, t.req, t.hit)
	return nil
}

func (t *domainTask) Priority() int { return t.priority }

func (t *domainTask) Name() string { return "analyze:" + t.hit.Domain }
