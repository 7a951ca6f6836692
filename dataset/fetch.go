// Copyright 2025 The Cartelec Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cartelec/cartelec/utils/httputils"
)

// ClientOptions configuration for Client.
type ClientOptions struct {
	// DataDir is where datasets are stored
	DataDir string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Downloads datasets even if they are already present
	Force bool

	// Dry run, don't write any file
	DryRun bool

	// RetryDelay is the wait before downloading again after a retryable
	// failure, defaultRetryDelay when zero
	RetryDelay time.Duration
}

const defaultRetryDelay = 5 * time.Second

// FetchMetrics tracks statistics about the download process.
type FetchMetrics struct {
	Downloaded int
	Skipped    int
	Failed     int
	Retried    int
	Bytes      int64
}

// Merge combines two FetchMetrics.
func (m *FetchMetrics) Merge(o *FetchMetrics) *FetchMetrics {
	if o == nil {
		return m
	}

	m.Downloaded += o.Downloaded
	m.Skipped += o.Skipped
	m.Failed += o.Failed
	m.Retried += o.Retried
	m.Bytes += o.Bytes

	return m
}

// Client downloads datasets into the data directory.
type Client struct {
	client  *http.Client
	options *ClientOptions
	Metrics FetchMetrics
}

// NewClient creates a new client with the provided options.
func NewClient(options *ClientOptions) *Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "cartelec/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json, application/geo+json, */*",
		},
		Transport: loggingTransport,
	}

	return &Client{
		// communes.geojson weighs tens of megabytes
		client:  &http.Client{Timeout: 5 * time.Minute, Transport: headerTransport},
		options: options,
	}
}

// Fetch downloads a dataset. Bundled datasets (no URL) and datasets already
// present are skipped unless Force is set. A retryable failure is retried
// once after RetryDelay.
func (c *Client) Fetch(ctx context.Context, ref Ref) error {
	var m FetchMetrics
	defer c.Metrics.Merge(&m)

	path := ref.Path(c.options.DataDir)

	if ref.URL == "" {
		log.Printf("Skipping %s: bundled dataset, no download URL", ref.Name)

		m.Skipped++

		return nil
	}

	if !c.options.Force {
		if _, err := os.Stat(path); err == nil {
			log.Printf("Skipping %s: %s already present", ref.Name, path)

			m.Skipped++

			return nil
		}
	}

	log.Printf("Downloading %s from %s", ref.Name, ref.URL)

	n, err := c.download(ctx, ref, path)
	if err != nil && IsRetryable(err) && ctx.Err() == nil {
		log.Printf("Retrying %s: %s", ref.Name, err)

		m.Retried++

		if err := c.wait(ctx); err != nil {
			m.Failed++

			return err
		}

		n, err = c.download(ctx, ref, path)
	}

	if err != nil {
		m.Failed++

		return err
	}

	m.Downloaded++
	m.Bytes += n

	return nil
}

func (c *Client) wait(ctx context.Context) error {
	delay := c.options.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchAll downloads every dataset sequentially. Failures do not stop the
// remaining downloads, they are joined in the returned error.
func (c *Client) FetchAll(ctx context.Context) error {
	var errs []error

	_ = Each(func(ref Ref) error {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			return err
		}

		if err := c.Fetch(ctx, ref); err != nil {
			log.Printf("Download failed: %s", err)
			errs = append(errs, err)
		}

		return nil
	})

	log.Printf(
		"Fetch completed - %d downloaded, %d skipped, %d retried, %d failed",
		c.Metrics.Downloaded,
		c.Metrics.Skipped,
		c.Metrics.Retried,
		c.Metrics.Failed,
	)

	return errors.Join(errs...)
}

func (c *Client) download(ctx context.Context, ref Ref, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return 0, &DatasetError{Dataset: ref.Name, Message: "creating request", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &DatasetError{Type: ErrorTypeNetwork, Dataset: ref.Name, Message: "sending request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, ClassifyHTTPError(ref.Name, resp.StatusCode)
	}

	if c.options.DryRun {
		return io.Copy(io.Discard, resp.Body)
	}

	return writeAtomic(path, resp.Body)
}

// writeAtomic writes r next to path and renames it, a failed download
// never leaves a truncated dataset behind.
func writeAtomic(path string, r io.Reader) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("creating temporary file: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, errors.Join(
			fmt.Errorf("writing %s: %w", path, err),
			tmp.Close(),
			os.Remove(tmp.Name()),
		)
	}

	if err := tmp.Close(); err != nil {
		return 0, errors.Join(fmt.Errorf("closing %s: %w", path, err), os.Remove(tmp.Name()))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, errors.Join(fmt.Errorf("renaming %s: %w", path, err), os.Remove(tmp.Name()))
	}

	return n, nil
}
