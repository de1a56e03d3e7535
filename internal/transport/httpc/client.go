package httpc

import (
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config tunes the engine. Zero values fall back to the defaults below.
type Config struct {
	// ConnectTimeout bounds dialing and waiting for response headers.
	ConnectTimeout time.Duration
	// IdleTimeout aborts an exchange that delivers no event for this long.
	IdleTimeout time.Duration
	// PollInterval is the longest a single Rx call waits for traffic.
	PollInterval time.Duration
	// ReadSize bounds a single body read, and so a single fragment.
	ReadSize int
	// Window is the number of unacknowledged fragments in flight.
	Window    int
	UserAgent string
	Resolver  *net.Resolver
}

const (
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 30 * time.Second
	defaultPollInterval   = 10 * time.Millisecond
	defaultReadSize       = 32 * 1024
	defaultWindow         = 8
	defaultUserAgent      = "bootfetch"
)

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.ReadSize <= 0 {
		c.ReadSize = defaultReadSize
	}
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Resolver == nil {
		c.Resolver = net.DefaultResolver
	}
	return c
}

// client is a plain HTTP/1.1 client for a single exchange: no proxy, no
// compression, no redirects, dialing from the interface's address.
type client struct {
	http      *http.Client
	userAgent string
}

func newClient(cfg Config, local net.Addr) *client {
	rcvbuf := cfg.ReadSize * cfg.Window
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
		LocalAddr: local,
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				setSocketOptions(fd, rcvbuf)
			})
		},
	}
	transport := &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		DisableCompression:    true,
		DisableKeepAlives:     true,
		ResponseHeaderTimeout: cfg.ConnectTimeout,
		MaxConnsPerHost:       1,
	}
	return &client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
	}
}

func (c *client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.http.Do(req)
}

func (c *client) Close() {
	c.http.CloseIdleConnections()
}
