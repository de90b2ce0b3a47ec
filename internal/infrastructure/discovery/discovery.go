package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/nerrad567/catt-bridge/internal/infrastructure/config"
)

// Defaults used when the configuration leaves a field empty.
const (
	DefaultService = "_mqtt._tcp"
	DefaultDomain  = "local."
	DefaultTimeout = 5 * time.Second
)

// MDNSResolver browses DNS-SD services. zeroconf.Resolver satisfies it.
type MDNSResolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithResolver replaces the zeroconf resolver.
func WithResolver(r MDNSResolver) Option {
	return func(d *Discoverer) { d.resolver = r }
}

// Discoverer finds an MQTT broker via mDNS.
type Discoverer struct {
	resolver MDNSResolver
	service  string
	domain   string
	timeout  time.Duration
}

// New creates a Discoverer from cfg.
//
// Returns ErrDisabled when cfg.Enabled is false.
func New(cfg config.DiscoveryConfig, opts ...Option) (*Discoverer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	d := &Discoverer{
		service: cfg.Service,
		domain:  cfg.Domain,
		timeout: time.Duration(cfg.Timeout) * time.Second,
	}
	if d.service == "" {
		d.service = DefaultService
	}
	if d.domain == "" {
		d.domain = DefaultDomain
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.resolver == nil {
		r, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBrowseFailed, err)
		}
		d.resolver = r
	}

	return d, nil
}

// Broker browses for the configured service and returns the first usable
// answer as a broker URL. Entries without a port or an address are skipped.
//
// Parameters:
//   - ctx: bounds the browse together with the configured timeout
//   - useTLS: selects the ssl:// scheme instead of tcp://
//
// Returns:
//   - string: broker URL suitable for paho AddBroker
//   - error: ErrNotFound on timeout, ErrBrowseFailed if browsing fails
func (d *Discoverer) Broker(ctx context.Context, useTLS bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- d.resolver.Browse(ctx, d.service, d.domain, entries)
	}()

	errCh := browseErr
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if url := brokerURL(entry, useTLS); url != "" {
				return url, nil
			}
		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return "", fmt.Errorf("%w: %w", ErrBrowseFailed, err)
			}
			// Browse may return before its entries are read.
			errCh = nil
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %s in %s after %v", ErrNotFound, d.service, d.domain, d.timeout)
		}
	}
}

// brokerURL renders entry as scheme://host:port, or "" when it is unusable.
func brokerURL(entry *zeroconf.ServiceEntry, useTLS bool) string {
	if entry == nil || entry.Port <= 0 {
		return ""
	}

	host := ""
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	default:
		host = strings.TrimSuffix(entry.HostName, ".")
	}
	if host == "" {
		return ""
	}

	scheme := "tcp"
	if useTLS {
		scheme = "ssl"
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(entry.Port))
}
