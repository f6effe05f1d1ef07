package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ErrInvalidProxyAddress is returned when the proxy address is not in
// "host:port" format.
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// DefaultUserAgent identifies intelscan in outbound requests.
const DefaultUserAgent = "intelscan/1.0 (+https://github.com/nao1215/intelscan)"

// Factory creates HTTP clients that share a proxy and User-Agent setting.
type Factory struct {
	// proxyAddress is the SOCKS5 proxy in "host:port" format, or empty for
	// direct connections.
	proxyAddress string

	// dialer is the SOCKS5 dialer. Nil when no proxy is configured.
	dialer proxy.Dialer

	userAgent string
}

// Option configures a Factory.
type Option func(*Factory)

// WithUserAgent overrides the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Factory) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// NewFactory creates a client factory. An empty proxyAddress means direct
// connections. A non-empty address must be "host:port" and is validated here
// without connecting to it.
func NewFactory(proxyAddress string, opts ...Option) (*Factory, error) {
	f := &Factory{
		proxyAddress: proxyAddress,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	if proxyAddress == "" {
		return f, nil
	}
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	f.dialer = dialer
	return f, nil
}

// ProxyAddress returns the configured proxy address, empty when direct.
func (f *Factory) ProxyAddress() string {
	return f.proxyAddress
}

// NewHTTPClient returns a client whose requests time out after timeout.
// A zero timeout means no client-side limit.
func (f *Factory) NewHTTPClient(timeout time.Duration) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport
	if f.dialer != nil {
		base.Proxy = nil
		base.DialContext = f.dialContext
	}

	return &http.Client{
		Transport: &userAgentTransport{base: base, userAgent: f.userAgent},
		Timeout:   timeout,
	}
}

// dialContext dials through the SOCKS5 proxy, honoring ctx when the dialer
// supports it.
func (f *Factory) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := f.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return f.dialer.Dial(network, addr)
}

// userAgentTransport sets the User-Agent header on requests that lack one.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// isValidProxyAddress checks that address is "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || strings.ContainsAny(host, "/ ") {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}
