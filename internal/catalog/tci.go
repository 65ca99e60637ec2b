package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sdsfinder/internal/domain"
)

const (
	tciName    = "TCI"
	tciBaseURL = "https://www.tcichemicals.com"
	// The catalog is slow; the longest candidate attempt gets 25s.
	tciTimeout = 25 * time.Second
)

var (
	tciContextPathExpr = regexp.MustCompile(`encodedContextPath[^;]+?'(\S+)';`)
	tciHitCountExpr    = regexp.MustCompile(`\((\d+)\)`)
	tciFilenameExpr    = regexp.MustCompile(`filename=(\S+)$`)
)

// TCICAS resolves a CAS number on TCI Chemicals. The lookup is a
// multi-step flow: search page, CSRF token and region path scrape,
// product-hit confirmation, then a form POST that reveals the sheet
// filename through the content-disposition header.
type TCICAS struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewTCICAS builds the adapter.
func NewTCICAS(opts Options) *TCICAS {
	base := opts.BaseURL
	if base == "" {
		base = tciBaseURL
	}
	return &TCICAS{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(tciTimeout),
		logger:  opts.logger().With("catalog", tciName),
	}
}

func (t *TCICAS) Database() string { return tciName }

func (t *TCICAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	return tciResolve(ctx, t.session, t.baseURL, t.logger, id.Value, id.Value)
}

// TCIName resolves a product name on TCI Chemicals; same flow as the CAS
// adapter minus the returned-CAS confirmation.
type TCIName struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewTCIName builds the product-name adapter.
func NewTCIName(opts Options) *TCIName {
	base := opts.BaseURL
	if base == "" {
		base = tciBaseURL
	}
	return &TCIName{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(tciTimeout),
		logger:  opts.logger().With("catalog", tciName),
	}
}

func (t *TCIName) Database() string { return tciName }

func (t *TCIName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	return tciResolve(ctx, t.session, t.baseURL, t.logger, id.Value, "")
}

// tciResolve runs the shared lookup flow. requireCAS, when non-empty,
// must equal the first hit's data-casno attribute for the hit to count.
func tciResolve(ctx context.Context, base *session, baseURL string, logger *slog.Logger, query, requireCAS string) domain.SourceOutcome {
	// The POST step needs the cookies the search page sets.
	s := base.withCookies()

	searchURL := baseURL + "/US/en/search/"
	headers := map[string]string{
		"Referer":        searchURL,
		"Sec-Fetch-Dest": "document",
		"Sec-Fetch-Mode": "navigate",
		"Sec-Fetch-Site": "same-origin",
		"Sec-Fetch-User": "?1",
	}

	// The search endpoint answers erratically, so several query shapes
	// are tried in order; the first clean 200 wins.
	type attempt struct {
		url     string
		timeout time.Duration
	}
	attempts := []attempt{
		{searchURL + "?text=" + url.QueryEscape(query), 15 * time.Second},
		{searchURL + "?text=" + url.QueryEscape(query) + "&resulttype=product", tciTimeout},
		{baseURL + "/US/en/search?q=" + url.QueryEscape(query), 15 * time.Second},
	}

	var (
		resp    *response
		lastErr error
	)
	for _, a := range attempts {
		attemptCtx, cancel := context.WithTimeout(ctx, a.timeout)
		r, err := s.get(attemptCtx, a.url, nil, headers)
		cancel()
		if err != nil {
			lastErr = err
			logger.Debug("search attempt failed", "url", a.url, "error", err)
			continue
		}
		if r.ok() {
			resp = r
			break
		}
	}
	if resp == nil {
		if lastErr != nil {
			return domain.Failed(tciName, lastErr)
		}
		return domain.NotFound(tciName)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.body)))
	if err != nil {
		return domain.Failed(tciName, err)
	}

	csrf, exists := doc.Find(`input[name="CSRFToken"]`).First().Attr("value")
	if !exists || csrf == "" {
		return domain.NotFound(tciName)
	}

	contextPath := ""
	if m := tciContextPathExpr.FindStringSubmatch(string(resp.body)); m != nil {
		contextPath = strings.ReplaceAll(m[1], `\`, "")
	}

	if !tciHasProductHits(doc) {
		return domain.NotFound(tciName)
	}

	firstHit := doc.Find("div.prductlist").First()
	if firstHit.Length() == 0 {
		return domain.NotFound(tciName)
	}
	if requireCAS != "" {
		if casNo, _ := firstHit.Attr("data-casno"); casNo != requireCAS {
			return domain.NotFound(tciName)
		}
	}
	productID, _ := firstHit.Attr("data-id")
	if productID == "" {
		return domain.NotFound(tciName)
	}

	form := url.Values{
		"productCode":     {productID},
		"langSelector":    {"en"},
		"selectedCountry": {"US"},
		"CSRFToken":       {csrf},
	}
	docCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	docResp, err := s.postForm(docCtx, baseURL+"/US/en/documentSearch/productSDSSearchDoc", form, headers)
	if err != nil {
		return domain.Failed(tciName, err)
	}

	m := tciFilenameExpr.FindStringSubmatch(docResp.header.Get("Content-Disposition"))
	if m == nil {
		return domain.NotFound(tciName)
	}

	sheetURL := baseURL + contextPath + "/sds/" + m[1]
	if !documentURL(sheetURL) {
		return domain.NotFound(tciName)
	}
	return domain.Found(tciName, tciName, sheetURL)
}

// tciHasProductHits checks the search facet sidebar for a non-zero
// "Products" count.
func tciHasProductHits(doc *goquery.Document) bool {
	facet := doc.Find("div#contentSearchFacet span.facet__text a").First()
	if strings.TrimSpace(facet.Text()) != "Products" {
		return false
	}
	count := doc.Find("div#contentSearchFacet span.facet__value__count").First()
	m := tciHitCountExpr.FindStringSubmatch(count.Text())
	return m != nil && m[1] != "0"
}
