package collector

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// TLSDialer dials TCP (optionally through a SOCKS5 proxy) and performs the
// TLS handshake.
type TLSDialer struct {
	forward proxy.ContextDialer
	config  *tls.Config
	timeout time.Duration
}

// NewTLSDialer builds a dialer for serverName. With insecure set the server
// certificate is not verified.
func NewTLSDialer(serverName string, insecure bool, timeout time.Duration, proxyURL string) (*TLSDialer, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := &net.Dialer{Timeout: timeout}
	var forward proxy.ContextDialer = base

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		pd, err := proxy.FromURL(u, base)
		if err != nil {
			return nil, fmt.Errorf("proxy dialer: %w", err)
		}
		if cd, ok := pd.(proxy.ContextDialer); ok {
			forward = cd
		} else {
			forward = plainDialer{pd}
		}
	}

	return &TLSDialer{
		forward: forward,
		config: &tls.Config{
			ServerName:         serverName,
			InsecureSkipVerify: insecure, //nolint:gosec // device parity, configurable
			MinVersion:         tls.VersionTLS12,
		},
		timeout: timeout,
	}, nil
}

func (d *TLSDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	raw, err := d.forward.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	hctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	conn := tls.Client(raw, d.config)
	if err := conn.HandshakeContext(hctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return conn, nil
}

// plainDialer adapts a proxy.Dialer without context support.
type plainDialer struct{ proxy.Dialer }

func (p plainDialer) DialContext(_ context.Context, network, addr string) (net.Conn, error) {
	return p.Dial(network, addr)
}
