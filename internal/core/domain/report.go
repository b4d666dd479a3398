// internal/core/domain/report.go
package domain

// SearchHit es un dominio único extraído de los resultados orgánicos de búsqueda.
// El orden de inserción corresponde a la primera aparición en el ranking.
type SearchHit struct {
	Domain            string `json:"domain"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	FirstSeenPosition int    `json:"first_seen_position"`
}

// Geolocation contiene la geolocalización de una IP.
type Geolocation struct {
	Country string  `json:"country"`
	City    string  `json:"city"`
	ISP     string  `json:"isp"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// HostIntelSummary resume la inteligencia de host para una IP.
type HostIntelSummary struct {
	OpenPorts     []int `json:"open_ports"`
	ServicesCount int   `json:"services_count"`
}

// DomainAnalysis acumula el análisis de un dominio durante una petición.
// Se crea al inicio del análisis y se muta de forma aditiva: el fallo de una
// etapa solo impide fijar los campos de esa etapa, nunca revierte campos previos.
type DomainAnalysis struct {
	Domain      string  `json:"domain"`
	Title       string  `json:"title"`
	Position    int     `json:"position"`
	IP          *string `json:"ip"`
	DNSResolved bool    `json:"dns_resolved"`

	Geolocation *Geolocation `json:"geolocation,omitempty"`
	// country/city/isp se espejan al nivel superior por conveniencia del consumidor
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`

	HostIntel     *HostIntelSummary `json:"host_intel,omitempty"`
	OpenPorts     []int             `json:"open_ports,omitempty"`
	ServicesCount int               `json:"services_count,omitempty"`

	Error string `json:"error,omitempty"`
}

// NewDomainAnalysis crea el acumulador a partir de un hit de búsqueda.
func NewDomainAnalysis(hit SearchHit) *DomainAnalysis {
	return &DomainAnalysis{
		Domain:   hit.Domain,
		Title:    hit.Title,
		Position: hit.FirstSeenPosition,
	}
}

// SetGeolocation fija la geolocalización y espeja los campos de conveniencia.
func (d *DomainAnalysis) SetGeolocation(geo Geolocation) {
	g := geo
	d.Geolocation = &g
	d.Country = geo.Country
	d.City = geo.City
	d.ISP = geo.ISP
}

// SetHostIntel fija el resumen de inteligencia de host y sus espejos.
func (d *DomainAnalysis) SetHostIntel(hi HostIntelSummary) {
	h := hi
	d.HostIntel = &h
	d.OpenPorts = hi.OpenPorts
	d.ServicesCount = hi.ServicesCount
}

// MarkDNSFailure registra el fallo de resolución DNS. Las etapas de
// enriquecimiento se omiten porque requieren una IP.
func (d *DomainAnalysis) MarkDNSFailure() {
	d.IP = nil
	d.DNSResolved = false
	d.Error = "DNS resolution failed"
}

// MarkResolved registra la IP resuelta.
func (d *DomainAnalysis) MarkResolved(ip string) {
	d.IP = &ip
	d.DNSResolved = true
}

// SearchReport es el resultado final de una petición de análisis.
// Inmutable una vez devuelto por el pipeline.
type SearchReport struct {
	Query         string            `json:"query"`
	Results       []*DomainAnalysis `json:"results"`
	TotalResults  int               `json:"total_results"`
	ExecutionTime float64           `json:"execution_time"`
}

// SealedPayload es la forma sellada de un payload: chunks cifrados en orden
// más el digest SHA-256 del JSON canónico pre-sellado. Nunca se muta.
type SealedPayload struct {
	CiphertextChunks []string `json:"encrypted_data"`
	Digest           string   `json:"sha256_hash"`
	Timestamp        string   `json:"timestamp,omitempty"`
}
