// Package cran provides a package fetcher for CRAN-style R repositories.
//
// A repository serves a PACKAGES index at its root and one source archive
// per package version, named <name>_<version>.tar.gz. Versions that are no
// longer current live under Archive/<name>/.
package cran

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-corpus/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.PackageFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultRepo       = "https://cloud.r-project.org/src/contrib"
	DefaultRate       = 2.0
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	IndexFile         = "PACKAGES"
)

// RetryBaseDelay is the first backoff after a 429 response. It doubles on
// each further attempt. Tests override this to avoid real sleeps.
var RetryBaseDelay = 5 * time.Second

// Config holds configuration for the fetcher.
type Config struct {
	// Repo is the repository base URL (default: the CRAN cloud mirror).
	Repo string

	// Rate is the proactive request rate per second (default: 2).
	Rate float64

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// MaxRetries bounds retries on 429 responses (default: 3).
	MaxRetries int

	// Client replaces the default HTTP client when set.
	Client *http.Client
}

// Fetcher downloads the index and source archives of a CRAN-style repository.
type Fetcher struct {
	client     *http.Client
	repo       string
	limiter    *rate.Limiter
	maxRetries int
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Repo == "" {
		cfg.Repo = DefaultRepo
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		client:     client,
		repo:       strings.TrimRight(cfg.Repo, "/"),
		limiter:    rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		maxRetries: cfg.MaxRetries,
	}
}

// Repo returns the repository base URL.
func (f *Fetcher) Repo() string {
	return f.repo
}

// FetchIndex implements driven.PackageFetcher.
func (f *Fetcher) FetchIndex(ctx context.Context) (io.ReadCloser, error) {
	return f.get(ctx, f.repo+"/"+IndexFile)
}

// FetchArchive implements driven.PackageFetcher.
// The current-release URL is tried first, then the archive of older versions.
func (f *Fetcher) FetchArchive(ctx context.Context, name, version string) (io.ReadCloser, error) {
	file := name + "_" + version + ".tar.gz"
	body, err := f.get(ctx, f.repo+"/"+file)
	if err == nil {
		return body, nil
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		return nil, err
	}
	logger.Debug("%s not in current release, trying archive", file)
	return f.get(ctx, f.repo+"/Archive/"+name+"/"+file)
}

// get performs a throttled GET, retrying 429 responses with backoff.
func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	for attempt := 0; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrLookup, url, err)
		}

		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= f.maxRetries {
			return nil, &StatusError{URL: url, Code: resp.StatusCode}
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		logger.Warn("Rate limited by %s, retrying in %v (attempt %d/%d)", f.repo, backoff, attempt+1, f.maxRetries)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
