// Package validator provides input validation helpers for domains and IPs.
package validator

import (
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// IsDomain verifica si un string es un dominio válido.
// Soporta dominios internacionales (IDN) y punycode.
func IsDomain(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}

	if !domainRegex.MatchString(domain) {
		return false
	}

	// Verificar que no sea una IP
	if net.ParseIP(domain) != nil {
		return false
	}

	return true
}

// IsIP verifica si un string es una dirección IPv4 o IPv6 válida.
func IsIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// HasListedSuffix verifica que el dominio termine en un sufijo público
// conocido (ICANN), filtrando hosts internos o inventados.
func HasListedSuffix(domain string) bool {
	suffix, icann := publicsuffix.PublicSuffix(strings.ToLower(strings.TrimSuffix(domain, ".")))
	return icann && suffix != ""
}

// NormalizeDomain normaliza un dominio a su forma canónica: minúsculas, sin
// punto final y sin el prefijo literal "www.". No se normalizan otros
// subdominios tipo www (comportamiento estrecho deliberado).
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}
