// Package dnsx resolves domain names to IP addresses for the enrichment pipeline.
package dnsx

import (
	"context"
	"net"
	"time"

	"netintel/internal/platform/errors"
)

const defaultTimeout = 10 * time.Second

// Resolver wraps net.Resolver with a per-lookup timeout.
type Resolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// New creates a resolver with the given per-lookup timeout (0 = default 10s).
func New(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

// LookupIP resolves host to its first IPv4 or IPv6 address.
func (r *Resolver) LookupIP(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", errors.Wrapf(err, "DNS lookup failed for %s", host)
	}
	if len(addrs) == 0 {
		return "", errors.Errorf("no addresses found for %s", host)
	}

	// Prefer IPv4 when present, matching typical A-record resolution.
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return addrs[0].IP.String(), nil
}
