package util

import (
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// Shared HTTP clients with connection pooling. The download client keeps a
// long timeout for streaming large clip bodies; the fast client is for the
// lightweight AJAX endpoints.
var (
	downloadClient     *http.Client
	downloadClientOnce sync.Once

	fastClient     *http.Client
	fastClientOnce sync.Once
)

// httpClientConfig holds configuration for creating optimized HTTP clients
type httpClientConfig struct {
	timeout             time.Duration
	maxIdleConns        int
	maxIdleConnsPerHost int
	maxConnsPerHost     int
	idleConnTimeout     time.Duration
	tlsHandshakeTimeout time.Duration
	expectContinue      time.Duration
	keepAlive           time.Duration
	dialTimeout         time.Duration
}

func downloadConfig() httpClientConfig {
	return httpClientConfig{
		timeout:             120 * time.Second,
		maxIdleConns:        50,
		maxIdleConnsPerHost: 10,
		maxConnsPerHost:     20,
		idleConnTimeout:     120 * time.Second,
		tlsHandshakeTimeout: 5 * time.Second,
		expectContinue:      1 * time.Second,
		keepAlive:           30 * time.Second,
		dialTimeout:         5 * time.Second,
	}
}

func fastConfig() httpClientConfig {
	return httpClientConfig{
		timeout:             30 * time.Second,
		maxIdleConns:        100,
		maxIdleConnsPerHost: 20,
		maxConnsPerHost:     40,
		idleConnTimeout:     90 * time.Second,
		tlsHandshakeTimeout: 5 * time.Second,
		expectContinue:      500 * time.Millisecond,
		keepAlive:           30 * time.Second,
		dialTimeout:         5 * time.Second,
	}
}

// createTransport creates an HTTP transport with the given config
func createTransport(cfg httpClientConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.dialTimeout,
			KeepAlive: cfg.keepAlive,
		}).DialContext,
		MaxIdleConns:          cfg.maxIdleConns,
		MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.maxConnsPerHost,
		IdleConnTimeout:       cfg.idleConnTimeout,
		TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
		ExpectContinueTimeout: cfg.expectContinue,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// GetDownloadClient returns the shared client used for clip downloads.
func GetDownloadClient() *http.Client {
	downloadClientOnce.Do(func() {
		cfg := downloadConfig()
		downloadClient = &http.Client{
			Transport: createTransport(cfg),
			Timeout:   cfg.timeout,
		}
	})
	return downloadClient
}

// GetFastClient returns the shared client for search, detail and trigger
// requests.
func GetFastClient() *http.Client {
	fastClientOnce.Do(func() {
		cfg := fastConfig()
		fastClient = &http.Client{
			Transport: createTransport(cfg),
			Timeout:   cfg.timeout,
		}
	})
	return fastClient
}
