package netcheck

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Probe reports whether the network-dependent parts of the pipeline can run.
// It gates fetching and enrichment; a false result short-circuits those
// stages before any API call is made.
type Probe interface {
	Check(ctx context.Context) bool
}

// Config configures the HTTP reachability probe.
type Config struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Method  string `yaml:"method" mapstructure:"method"`
	Timeout int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// HTTPProbe checks reachability with a single lightweight request. GET is
// the default because some networks block HEAD.
type HTTPProbe struct {
	url    string
	method string
	client *http.Client
}

// NewHTTP creates a probe from config, applying defaults for empty fields.
func NewHTTP(cfg Config) *HTTPProbe {
	if cfg.URL == "" {
		cfg.URL = "https://www.google.com"
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5
	}
	return &HTTPProbe{
		url:    cfg.URL,
		method: cfg.Method,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			// Redirects would download real pages; the status line is enough.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Check returns true when the probe URL answers at all. Any response,
// including an error status, proves reachability.
func (p *HTTPProbe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		zap.L().Error("netcheck: build request", zap.Error(err))
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Warn("netcheck: unreachable", zap.String("url", p.url), zap.Error(err))
		return false
	}
	resp.Body.Close()
	return true
}

// StaticProbe always reports the configured result. The true-valued probe
// is the no-op default used when connectivity checking is disabled.
type StaticProbe bool

func (p StaticProbe) Check(context.Context) bool { return bool(p) }
