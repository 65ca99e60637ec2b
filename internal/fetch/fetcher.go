// Package fetch retrieves resolved documents and persists them with
// idempotent skip-if-present semantics.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.192 Safari/537.36"
	downloadTimeout  = 20 * time.Second
)

// Executor downloads a resolved sheet to a target directory. Failures
// of any kind fold into Downloaded=false; nothing escapes as an error.
type Executor struct {
	client    *http.Client
	userAgent string
	observer  ports.Observer
	logger    *slog.Logger
}

var _ ports.Fetcher = (*Executor)(nil)

// New wires an HTTP client; nil gets a bounded-timeout default. The
// client never follows redirects: a redirected download URL means the
// catalog substituted a landing page for the document.
func New(client *http.Client, observer ports.Observer, logger *slog.Logger) *Executor {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := *client
	c.Timeout = downloadTimeout
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Executor{client: &c, userAgent: defaultUserAgent, observer: observer, logger: logger}
}

// Fetch writes the document behind outcome.URL to targetDir under the
// identifier's deterministic filename. A pre-existing file satisfies the
// fetch immediately with no network call, which keeps repeated batch
// runs cheap and safe to re-invoke.
func (e *Executor) Fetch(ctx context.Context, id domain.Identifier, outcome domain.SourceOutcome, targetDir string) domain.DownloadOutcome {
	result := domain.DownloadOutcome{Identifier: id}

	target := filepath.Join(targetDir, id.FileName(urlExt(outcome.URL)))
	if _, err := os.Stat(target); err == nil {
		result.Downloaded = true
		e.observe(true)
		return result
	}

	if outcome.Status != domain.StatusSuccess || outcome.URL == "" {
		e.observe(false)
		return result
	}

	if err := e.download(ctx, outcome.URL, target); err != nil {
		e.logger.Warn("download failed",
			"identifier", id.Value,
			"url", outcome.URL,
			"error", err)
		e.observe(false)
		return result
	}

	result.Downloaded = true
	result.Source = outcome.ResolvedSource
	e.observe(true)
	return result
}

func (e *Executor) download(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Write through a temp file and rename so a crashed download is
	// never mistaken for a complete sheet by a later skip-check.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".sds-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("finalize document: %w", err)
	}
	return nil
}

func (e *Executor) observe(downloaded bool) {
	if e.observer != nil {
		e.observer.FetchDone(downloaded)
	}
}

// urlExt pulls the file extension off a download URL, leaving the
// identifier's default in place when the URL has none.
func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
}
