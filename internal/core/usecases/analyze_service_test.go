package usecases

import (
	"context"
	"errors"
	"testing"

	"netintel/internal/core/domain"
	"netintel/internal/platform/logx"
	"netintel/internal/testutil"
)

func hit(name string, pos int) domain.SearchHit {
	return domain.SearchHit{Domain: name, URL: "https://" + name, Title: name, FirstSeenPosition: pos}
}

func boolPtr(b bool) *bool { return &b }

// newService arma un servicio con mocks sanos por defecto.
func newService(opts Options) *AnalyzeService {
	if opts.Logger == nil {
		opts.Logger = logx.NewWithLevel(logx.LevelError)
	}
	return NewAnalyzeService(opts)
}

func TestAnalyzeEmptyQueryRejectedBeforeProviders(t *testing.T) {
	searcher := &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}}
	svc := newService(Options{Searcher: searcher, Resolver: &testutil.MockResolver{}})

	_, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "   "})

	testutil.AssertError(t, err, "empty query")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrEmptyQuery), "ErrEmptyQuery sentinel")
	testutil.AssertEqual(t, searcher.Calls, 0, "no provider calls on validation failure")
}

func TestAnalyzeSearchFailureIsStageError(t *testing.T) {
	searcher := &testutil.MockSearcher{Err: errors.New("upstream down")}
	svc := newService(Options{Searcher: searcher, Resolver: &testutil.MockResolver{}})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})

	testutil.AssertError(t, err, "search failure")
	testutil.AssertNil(t, report, "no partial report on search failure")

	stageErr, ok := domain.AsStageError(err)
	testutil.AssertTrue(t, ok, "error is a StageError")
	testutil.AssertEqual(t, stageErr.Step, "search", "stage step")
	testutil.AssertContains(t, stageErr.Message, "upstream down", "stage message")
}

func TestAnalyzeZeroDomainsIsValidTerminalState(t *testing.T) {
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: nil},
		Resolver: &testutil.MockResolver{},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})

	testutil.AssertNoError(t, err, "zero domains")
	testutil.AssertEqual(t, report.TotalResults, 0, "total_results")
	testutil.AssertEqual(t, len(report.Results), 0, "empty results slice, not nil error")
	testutil.AssertNotNil(t, report.Results, "results is non-nil")
}

func TestAnalyzeSelectsTopDomainsInRankOrder(t *testing.T) {
	hits := []domain.SearchHit{hit("a.com", 1), hit("b.com", 2), hit("c.com", 3), hit("d.com", 4)}
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: hits},
		Resolver: &testutil.MockResolver{IPs: map[string]string{
			"a.com": "1.1.1.1", "b.com": "2.2.2.2", "c.com": "3.3.3.3", "d.com": "4.4.4.4",
		}},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q", AnalyzeTop: 2})

	testutil.AssertNoError(t, err, "analyze")
	testutil.AssertEqual(t, report.TotalResults, 2, "analyze_top limits results")
	testutil.AssertEqual(t, report.Results[0].Domain, "a.com", "first by rank")
	testutil.AssertEqual(t, report.Results[1].Domain, "b.com", "second by rank")
}

func TestAnalyzeFewerDomainsThanTop(t *testing.T) {
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q", AnalyzeTop: 5})

	testutil.AssertNoError(t, err, "analyze")
	testutil.AssertEqual(t, report.TotalResults, 1, "all available domains used")
}

func TestAnalyzeDNSFailureIsExplicitAndSkipsEnrichment(t *testing.T) {
	geolocator := &testutil.MockGeolocator{Geo: domain.Geolocation{Country: "X"}}
	hostIntel := &testutil.MockHostIntel{Credential: true, Summary: domain.HostIntelSummary{ServicesCount: 1}}

	svc := newService(Options{
		Searcher:   &testutil.MockSearcher{Hits: []domain.SearchHit{hit("dead.example", 1)}},
		Resolver:   &testutil.MockResolver{IPs: map[string]string{}},
		Geolocator: geolocator,
		HostIntel:  hostIntel,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "DNS failure is not fatal")

	res := report.Results[0]
	testutil.AssertFalse(t, res.DNSResolved, "dns_resolved")
	testutil.AssertNil(t, res.IP, "ip is null")
	testutil.AssertEqual(t, res.Error, "DNS resolution failed", "explicit DNS error")
	testutil.AssertNil(t, res.Geolocation, "geolocation skipped")
	testutil.AssertEqual(t, geolocator.Calls, 0, "no geolocation call without IP")
	testutil.AssertEqual(t, hostIntel.Calls, 0, "no host-intel call without IP")
}

func TestAnalyzeGeolocationFailureIsSilent(t *testing.T) {
	svc := newService(Options{
		Searcher:   &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver:   &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Geolocator: &testutil.MockGeolocator{Err: errors.New("geo down")},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze")

	res := report.Results[0]
	testutil.AssertTrue(t, res.DNSResolved, "dns resolved")
	testutil.AssertNil(t, res.Geolocation, "geolocation unset on failure")
	// A diferencia del fallo DNS, el de geolocalización no deja rastro en error
	testutil.AssertEqual(t, res.Error, "", "no error text for enrichment failure")
}

func TestAnalyzeGeolocationSuccessMirrorsFields(t *testing.T) {
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Geolocator: &testutil.MockGeolocator{
			Geo: domain.Geolocation{Country: "Spain", City: "Madrid", ISP: "Telefonica"},
		},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze")

	res := report.Results[0]
	testutil.AssertNotNil(t, res.Geolocation, "geolocation set")
	testutil.AssertEqual(t, res.Country, "Spain", "mirrored country")
	testutil.AssertEqual(t, res.City, "Madrid", "mirrored city")
	testutil.AssertEqual(t, res.ISP, "Telefonica", "mirrored isp")
}

func TestAnalyzeHostIntelRequiresCredential(t *testing.T) {
	hostIntel := &testutil.MockHostIntel{Credential: false, Summary: domain.HostIntelSummary{ServicesCount: 3}}
	svc := newService(Options{
		Searcher:  &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver:  &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		HostIntel: hostIntel,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze")

	testutil.AssertEqual(t, hostIntel.Calls, 0, "no call attempt without credential")
	testutil.AssertNil(t, report.Results[0].HostIntel, "host intel unset")
}

func TestAnalyzeHostIntelDisabledByRequest(t *testing.T) {
	hostIntel := &testutil.MockHostIntel{Credential: true}
	svc := newService(Options{
		Searcher:  &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver:  &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		HostIntel: hostIntel,
	})

	req := domain.AnalyzeRequest{Query: "q", IncludeCensys: boolPtr(false)}
	_, err := svc.Analyze(context.Background(), req)
	testutil.AssertNoError(t, err, "analyze")
	testutil.AssertEqual(t, hostIntel.Calls, 0, "include_censys=false skips host intel")
}

func TestAnalyzeHostIntelSuccess(t *testing.T) {
	hostIntel := &testutil.MockHostIntel{
		Credential: true,
		Summary:    domain.HostIntelSummary{OpenPorts: []int{80, 443}, ServicesCount: 2},
	}
	svc := newService(Options{
		Searcher:  &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver:  &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		HostIntel: hostIntel,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze")

	res := report.Results[0]
	testutil.AssertNotNil(t, res.HostIntel, "host intel set")
	testutil.AssertEqual(t, res.ServicesCount, 2, "mirrored services_count")
	testutil.AssertEqual(t, len(res.OpenPorts), 2, "mirrored open_ports")
}

func TestAnalyzePanicInOneDomainDoesNotAbortLoop(t *testing.T) {
	geolocator := &testutil.MockGeolocator{
		LookupFunc: func(ip string) (domain.Geolocation, error) {
			if ip == "1.1.1.1" {
				panic("boom")
			}
			return domain.Geolocation{Country: "OK"}, nil
		},
	}

	svc := newService(Options{
		Searcher:   &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1), hit("b.com", 2)}},
		Resolver:   &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1", "b.com": "2.2.2.2"}},
		Geolocator: geolocator,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "panic is contained")

	testutil.AssertEqual(t, report.TotalResults, 2, "both domains present")
	testutil.AssertContains(t, report.Results[0].Error, "boom", "panic recorded as domain error")
	testutil.AssertEqual(t, report.Results[1].Country, "OK", "sibling unaffected")
}

func TestAnalyzeParallelPreservesRankOrder(t *testing.T) {
	hits := []domain.SearchHit{
		hit("a.com", 1), hit("b.com", 2), hit("c.com", 3),
		hit("d.com", 4), hit("e.com", 5),
	}
	ips := map[string]string{
		"a.com": "1.1.1.1", "b.com": "2.2.2.2", "c.com": "3.3.3.3",
		"d.com": "4.4.4.4", "e.com": "5.5.5.5",
	}

	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: hits},
		Resolver: &testutil.MockResolver{IPs: ips},
		Workers:  4,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q", AnalyzeTop: 5})
	testutil.AssertNoError(t, err, "parallel analyze")

	for i, want := range []string{"a.com", "b.com", "c.com", "d.com", "e.com"} {
		testutil.AssertEqual(t, report.Results[i].Domain, want, "rank order with workers")
	}
}

func TestAnalyzeArchiveFailureIsSwallowed(t *testing.T) {
	archiver := &testutil.MockArchiver{Err: errors.New("disk full")}
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Sealer:   &testutil.MockSealer{},
		Archiver: archiver,
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "archive failure never surfaces")
	testutil.AssertEqual(t, report.TotalResults, 1, "report intact")
}

func TestAnalyzeSealerFailureIsSwallowed(t *testing.T) {
	archiver := &testutil.MockArchiver{}
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Sealer:   &testutil.MockSealer{SealErr: errors.New("bad key")},
		Archiver: archiver,
	})

	_, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "seal failure never surfaces")
	testutil.AssertEqual(t, len(archiver.Stored()), 0, "nothing archived when sealing fails")
}

func TestAnalyzeArchivesSealedAndPlainForms(t *testing.T) {
	archiver := &testutil.MockArchiver{}
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
		Sealer:   &testutil.MockSealer{},
		Archiver: archiver,
	})

	_, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "mi consulta"})
	testutil.AssertNoError(t, err, "analyze")

	stored := archiver.Stored()
	testutil.AssertEqual(t, len(stored), 1, "one archive record")
	testutil.AssertEqual(t, stored[0].Name, "mi consulta", "record name")
	testutil.AssertEqual(t, stored[0].Sealed.Digest, "deadbeef", "sealed digest")
	testutil.AssertEqual(t, len(stored[0].Sealed.CiphertextChunks), 2, "sealed chunks")
	testutil.AssertNotNil(t, stored[0].Plain, "plain form present")
}

func TestAnalyzeDefaultsApplied(t *testing.T) {
	hits := make([]domain.SearchHit, 0, 10)
	ips := make(map[string]string, 10)
	for i := 0; i < 10; i++ {
		name := string(rune('a'+i)) + ".com"
		hits = append(hits, hit(name, i+1))
		ips[name] = "10.0.0.1"
	}

	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: hits},
		Resolver: &testutil.MockResolver{IPs: ips},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze with defaults")
	testutil.AssertEqual(t, report.TotalResults, domain.DefaultAnalyzeTop, "default analyze_top")
}

func TestAnalyzeExecutionTimeRecorded(t *testing.T) {
	svc := newService(Options{
		Searcher: &testutil.MockSearcher{Hits: []domain.SearchHit{hit("a.com", 1)}},
		Resolver: &testutil.MockResolver{IPs: map[string]string{"a.com": "1.1.1.1"}},
	})

	report, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertNoError(t, err, "analyze")
	testutil.AssertTrue(t, report.ExecutionTime >= 0, "execution_time is non-negative")
}

func TestAnalyzeWithoutSearcher(t *testing.T) {
	svc := newService(Options{Resolver: &testutil.MockResolver{}})

	_, err := svc.Analyze(context.Background(), domain.AnalyzeRequest{Query: "q"})
	testutil.AssertError(t, err, "missing search provider")

	stageErr, ok := domain.AsStageError(err)
	testutil.AssertTrue(t, ok, "stage error")
	testutil.AssertEqual(t, stageErr.Step, "search", "step is search")
}
