package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"sdsfinder/internal/domain"
)

const (
	avantorName    = "Avantor"
	vwrName        = "VWR"
	avantorBaseURL = "https://www.avantorsciences.com"
	vwrBaseURL     = "https://us.vwr.com"
	avantorTimeout = 20 * time.Second
	vwrTimeout     = 10 * time.Second
)

var vwrResultCountExpr = regexp.MustCompile(`(\d+).*results were found`)

// AvantorCAS searches Avantor Sciences (formerly VWR) for a CAS number.
// The catalog moved between domains over the years, so a sequence of
// candidate search endpoints is tried until one answers usefully.
type AvantorCAS struct {
	avantorBase string
	vwrBase     string
	session     *session
	logger      *slog.Logger
}

// NewAvantorCAS builds the adapter. When BaseURL is set it replaces both
// the Avantor and legacy VWR hosts, which is what tests want.
func NewAvantorCAS(opts Options) *AvantorCAS {
	a := &AvantorCAS{
		avantorBase: avantorBaseURL,
		vwrBase:     vwrBaseURL,
		session:     opts.newSession(avantorTimeout),
		logger:      opts.logger().With("catalog", avantorName),
	}
	if opts.BaseURL != "" {
		base := strings.TrimSuffix(opts.BaseURL, "/")
		a.avantorBase = base
		a.vwrBase = base
	}
	return a
}

func (a *AvantorCAS) Database() string { return avantorName }

func (a *AvantorCAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	candidates := []string{
		a.avantorBase + "/us/en/certificates/search?q=" + url.QueryEscape(id.Value),
		a.avantorBase + "/us/en/search?q=" + url.QueryEscape(id.Value),
		a.vwrBase + "/store/msds?keyword=" + url.QueryEscape(id.Value),
	}

	var lastErr error
	for _, searchURL := range candidates {
		resp, err := a.session.get(ctx, searchURL, nil, nil)
		if err != nil {
			lastErr = err
			a.logger.Debug("candidate endpoint failed", "url", searchURL, "error", err)
			continue
		}
		if !resp.ok() {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.body)))
		if err != nil {
			lastErr = err
			continue
		}

		if source, href, found := extractSafetyLink(doc, searchURL); found {
			return domain.Found(avantorName, source, href)
		}
	}

	if lastErr != nil {
		return domain.Failed(avantorName, lastErr)
	}
	return domain.NotFound(avantorName)
}

// extractSafetyLink scans anchors for something that looks like a safety
// data sheet document and guesses the manufacturer from the surrounding
// markup. Shared by the Avantor and Fluorochem HTML adapters.
func extractSafetyLink(doc *goquery.Document, pageURL string) (source, href string, found bool) {
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		raw, _ := a.Attr("href")
		lowered := strings.ToLower(raw)
		text := strings.ToLower(strings.TrimSpace(a.Text()))

		sdsLike := strings.Contains(lowered, "sds") ||
			strings.Contains(lowered, "msds") ||
			strings.Contains(lowered, "safety") ||
			strings.Contains(text, "safety data sheet")
		if !sdsLike {
			return true
		}

		full := resolveRef(pageURL, raw)
		if !documentURL(full) {
			return true
		}

		source = manufacturerNear(a)
		href = full
		found = true
		return false
	})
	return source, href, found
}

// manufacturerNear picks the first capitalized word of the anchor's
// parent text as a manufacturer label, falling back to the catalog name.
func manufacturerNear(a *goquery.Selection) string {
	parent := a.Parent()
	if parent.Length() == 0 {
		return avantorName
	}
	for _, word := range strings.Fields(parent.Text()) {
		runes := []rune(word)
		if len(runes) > 3 && unicode.IsUpper(runes[0]) {
			return word
		}
	}
	return avantorName
}

// VWRName searches the legacy VWR store's MSDS keyword search, whose
// result table carries both the sheet link and the manufacturer column.
type VWRName struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewVWRName builds the product-name adapter.
func NewVWRName(opts Options) *VWRName {
	base := opts.BaseURL
	if base == "" {
		base = vwrBaseURL
	}
	return &VWRName{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(vwrTimeout),
		logger:  opts.logger().With("catalog", vwrName),
	}
}

func (v *VWRName) Database() string { return vwrName }

func (v *VWRName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	pageURL := v.baseURL + "/store/msds"
	query := url.Values{"keyword": {id.Value}}

	resp, err := v.session.get(ctx, pageURL, query, nil)
	if err != nil {
		return domain.Failed(vwrName, err)
	}
	if !resp.ok() {
		return domain.NotFound(vwrName)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.body)))
	if err != nil {
		return domain.Failed(vwrName, err)
	}

	counter := doc.Find(".clearfix .pull-left").First()
	m := vwrResultCountExpr.FindStringSubmatch(counter.Text())
	if m == nil || m[1] == "0" {
		return domain.NotFound(vwrName)
	}

	link := doc.Find(`td[data-title="SDS"] a`).First()
	href, exists := link.Attr("href")
	if !exists {
		return domain.NotFound(vwrName)
	}
	full := resolveRef(pageURL, href)
	if !documentURL(full) {
		return domain.NotFound(vwrName)
	}

	source := strings.TrimSpace(doc.Find(`td[data-title="Manufacturer"]`).First().Text())
	if source == "" {
		source = vwrName
	}
	return domain.Found(vwrName, source, full)
}
