// Package catalog holds the per-catalog source adapters. Each adapter
// translates one identifier into one catalog-specific request/response
// cycle and folds every failure into a structured outcome.
package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"
)

// Catalogs answer more readily to clients that look like a browser.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.192 Safari/537.36"

const maxResponseBytes = 8 << 20

// Options configures an adapter. The zero value targets the live catalog
// with a default browser identity; tests point BaseURL at a local server.
type Options struct {
	BaseURL   string
	Client    *http.Client
	UserAgent string
	Logger    *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// newSession copies the configured client so the redirect policy and
// timeout are always ours, regardless of what the caller handed in.
func (o Options) newSession(timeout time.Duration) *session {
	base := o.Client
	if base == nil {
		base = &http.Client{}
	}

	c := *base
	c.Timeout = timeout
	// Surface the first 3xx instead of following it; a redirect means the
	// catalog fell back to a generic page, never a matched document.
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	ua := o.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &session{client: &c, userAgent: ua}
}

// session is one adapter's outbound HTTP identity. Adapters hold no
// cross-call state, so a session is safe for concurrent use.
type session struct {
	client    *http.Client
	userAgent string
}

// withCookies returns a copy carrying a fresh cookie jar, for catalogs
// whose lookup is a multi-step flow within one call (TCI).
func (s *session) withCookies() *session {
	jar, _ := cookiejar.New(nil)
	c := *s.client
	c.Jar = jar
	return &session{client: &c, userAgent: s.userAgent}
}

type response struct {
	status     int
	redirected bool
	header     http.Header
	body       []byte
}

// ok reports a plain 200 with zero redirect hops.
func (r *response) ok() bool {
	return r.status == http.StatusOK && !r.redirected
}

func (s *session) get(ctx context.Context, rawURL string, query url.Values, extra map[string]string) (*response, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return s.send(ctx, http.MethodGet, rawURL, "", nil, extra)
}

func (s *session) post(ctx context.Context, rawURL, contentType string, body []byte, extra map[string]string) (*response, error) {
	return s.send(ctx, http.MethodPost, rawURL, contentType, body, extra)
}

func (s *session) postForm(ctx context.Context, rawURL string, form url.Values, extra map[string]string) (*response, error) {
	return s.send(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", []byte(form.Encode()), extra)
}

func (s *session) send(ctx context.Context, method, rawURL, contentType string, body []byte, extra map[string]string) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	return &response{
		status:     resp.StatusCode,
		redirected: resp.StatusCode >= 300 && resp.StatusCode < 400,
		header:     resp.Header,
		body:       data,
	}, nil
}

// documentURL reports whether a URL plausibly points at a safety data
// sheet document rather than a landing page. Matches lacking a
// recognized extension are treated as misses even when a link exists.
func documentURL(raw string) bool {
	return documentExt(raw) != ""
}

// documentExt extracts the recognized document extension, or "".
func documentExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".pdf":
		return "pdf"
	}
	return ""
}

// resolveRef makes href absolute against the page it came from.
func resolveRef(pageURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// namesOverlap is the synonym-tolerant product-name match: either name
// contains the other, case-insensitively.
func namesOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
