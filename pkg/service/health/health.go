package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/secmon-lab/mindforge/pkg/utils/safe"
)

const (
	probeTimeout   = 2 * time.Second
	pollInterval   = 2 * time.Second
	startupTimeout = 30 * time.Second
)

// Starter launches the local inference server in the background
type Starter func(ctx context.Context) error

// Checker probes the local inference endpoint and optionally boots it
type Checker struct {
	baseURL  string
	client   *http.Client
	start    Starter
	interval time.Duration
	timeout  time.Duration
}

// Option configures Checker
type Option func(*Checker)

// WithStarter enables autostart with the given launcher
func WithStarter(start Starter) Option {
	return func(c *Checker) {
		c.start = start
	}
}

// WithPolling overrides the poll interval and the overall startup wait
func WithPolling(interval, timeout time.Duration) Option {
	return func(c *Checker) {
		c.interval = interval
		c.timeout = timeout
	}
}

// New creates a checker for the endpoint at baseURL
func New(baseURL string, opts ...Option) *Checker {
	c := &Checker{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: probeTimeout},
		interval: pollInterval,
		timeout:  startupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Alive reports whether the endpoint answers with a 2xx status
func (c *Checker) Alive(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer safe.Close(ctx, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Ensure returns nil when the endpoint is alive. Otherwise it launches the server
// (when a starter is configured) and polls until it answers or the startup wait
// expires. Every failure wraps model.ErrConfig.
func (c *Checker) Ensure(ctx context.Context) error {
	if c.Alive(ctx) {
		return nil
	}

	logger := logging.From(ctx).With(slog.String("base_url", c.baseURL))
	if c.start == nil {
		return goerr.Wrap(model.ErrConfig, "local inference server is not reachable", goerr.V("base_url", c.baseURL))
	}

	logger.Info("local inference server not reachable, starting it")
	if err := c.start(ctx); err != nil {
		return goerr.Wrap(model.ErrConfig, "failed to start local inference server",
			goerr.V("base_url", c.baseURL), goerr.V("cause", err.Error()))
	}

	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return goerr.Wrap(model.ErrConfig, "interrupted while waiting for local inference server", goerr.V("cause", ctx.Err().Error()))
		case <-ticker.C:
		}
		if c.Alive(ctx) {
			logger.Info("local inference server is up")
			return nil
		}
	}

	return goerr.Wrap(model.ErrConfig, "local inference server did not start in time",
		goerr.V("base_url", c.baseURL), goerr.V("timeout", c.timeout.String()))
}

// OllamaServe starts "ollama serve" detached from the caller with its output
// discarded. A missing binary is reported as an error.
func OllamaServe(ctx context.Context) error {
	path, err := exec.LookPath("ollama")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return goerr.New("ollama binary not found in PATH")
		}
		return goerr.Wrap(err, "failed to look up ollama binary")
	}

	cmd := exec.Command(path, "serve")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return goerr.Wrap(err, "failed to run ollama serve")
	}

	logging.From(ctx).Debug("ollama serve started", slog.Int("pid", cmd.Process.Pid))
	go func() { _ = cmd.Wait() }()
	return nil
}
