// Package client owns the process-wide outbound HTTP client used to execute user requests.
package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/logger"
	"github.com/apiprobe/apiprobe/common/network"
)

// HTTPClient is shared by every execution. It is built once by Init and torn down by Close.
var HTTPClient *http.Client

// Options configures the pooled transport.
type Options struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	Proxy               string
	InsecureSkipVerify  bool
	// BlockedSubnets is a comma separated CIDR list that may not be dialed.
	BlockedSubnets string
}

// OptionsFromConfig reads pool options from common/config.
func OptionsFromConfig() Options {
	return Options{
		MaxIdleConns:        config.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: config.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:     config.HTTPIdleConnTimeout,
		Proxy:               config.OutboundProxy,
		InsecureSkipVerify:  config.TLSInsecureSkipVerify,
		BlockedSubnets:      config.BlockedTargetSubnets,
	}
}

// Init builds HTTPClient from config. It must run before the router starts serving.
func Init() error {
	c, err := New(OptionsFromConfig())
	if err != nil {
		return errors.Wrap(err, "build outbound http client")
	}
	HTTPClient = c
	return nil
}

// Close drains idle upstream connections held by HTTPClient.
func Close() {
	if HTTPClient == nil {
		return
	}
	HTTPClient.CloseIdleConnections()
	logger.Logger.Info("outbound http client drained")
}

// New builds a pooled client. The client has no overall Timeout: per-execution
// deadlines are carried by the request context.
func New(opts Options) (*http.Client, error) {
	blocked, err := network.ParseSubnets(opts.BlockedSubnets)
	if err != nil {
		return nil, errors.Wrap(err, "parse blocked subnets")
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if len(blocked) > 0 {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return errors.Wrapf(err, "split dial address %s", address)
			}
			if network.IsIpInSubnets(host, blocked) {
				return &network.BlockedAddressError{Address: host}
			}
			return nil
		}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          opts.MaxIdleConns,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		IdleConnTimeout:       opts.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, errors.Wrapf(err, "parse outbound proxy %q", opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Logger.Info("outbound requests use proxy", zap.String("proxy", proxyURL.Redacted()))
	}
	if len(blocked) > 0 {
		transport.Proxy = guardProxy(transport.Proxy, blocked, net.DefaultResolver)
	}

	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in for self-signed test targets
		logger.Logger.Warn("TLS certificate verification disabled for outbound requests")
	}

	return &http.Client{Transport: transport}, nil
}

// guardProxy checks the request target before it is handed to a proxy. The dialer
// only sees the proxy address, so without this a proxied request bypasses blocked subnets.
func guardProxy(next func(*http.Request) (*url.URL, error), blocked []*net.IPNet,
	resolver *net.Resolver) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		proxyURL, err := next(req)
		if err != nil || proxyURL == nil {
			return proxyURL, err
		}

		host := req.URL.Hostname()
		if net.ParseIP(host) != nil {
			if network.IsIpInSubnets(host, blocked) {
				return nil, &network.BlockedAddressError{Address: host}
			}
			return proxyURL, nil
		}

		addrs, err := resolver.LookupIPAddr(req.Context(), host)
		if err != nil {
			// the proxy resolves names itself, let it report unknown hosts
			return proxyURL, nil
		}
		for _, addr := range addrs {
			if network.IsIpInSubnets(addr.IP.String(), blocked) {
				return nil, &network.BlockedAddressError{Address: addr.IP.String()}
			}
		}
		return proxyURL, nil
	}
}
