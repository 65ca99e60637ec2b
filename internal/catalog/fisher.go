package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sdsfinder/internal/domain"
)

const (
	fisherName    = "Fisher"
	fisherBaseURL = "https://www.fishersci.com"
	fisherTimeout = 10 * time.Second
)

var fisherHeaders = map[string]string{
	"Sec-Fetch-Dest": "document",
	"Sec-Fetch-Mode": "navigate",
	"Sec-Fetch-Site": "same-origin",
	"Sec-Fetch-User": "?1",
}

// FisherCAS queries the Fisher Scientific SDS keyword search and picks
// the result row whose compound image carries the requested CAS number,
// which is how the catalog marks the exact-match row.
type FisherCAS struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewFisherCAS builds the adapter.
func NewFisherCAS(opts Options) *FisherCAS {
	base := opts.BaseURL
	if base == "" {
		base = fisherBaseURL
	}
	return &FisherCAS{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(fisherTimeout),
		logger:  opts.logger().With("catalog", fisherName),
	}
}

func (f *FisherCAS) Database() string { return fisherName }

func (f *FisherCAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	doc, outcome := fisherSearch(ctx, f.session, f.baseURL, id.Value)
	if doc == nil {
		return outcome
	}

	// The exact-match row is the .catalog_data sibling of the image cell
	// whose img src embeds the CAS number.
	var row *goquery.Selection
	doc.Find(".msds_img img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		if !strings.Contains(src, id.Value) {
			return true
		}
		sibling := img.Closest(".msds_img").Next()
		if !sibling.HasClass("catalog_data") {
			return true
		}
		row = sibling.Find(".catlog_items").First()
		return false
	})

	if row == nil || row.Length() == 0 {
		return domain.NotFound(fisherName)
	}
	return fisherLinkOutcome(row, f.baseURL)
}

// FisherName runs the same keyword search but takes the catalog's first
// listed sheet, since product names have no exact-match marker.
type FisherName struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewFisherName builds the product-name adapter.
func NewFisherName(opts Options) *FisherName {
	base := opts.BaseURL
	if base == "" {
		base = fisherBaseURL
	}
	return &FisherName{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(fisherTimeout),
		logger:  opts.logger().With("catalog", fisherName),
	}
}

func (f *FisherName) Database() string { return fisherName }

func (f *FisherName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	doc, outcome := fisherSearch(ctx, f.session, f.baseURL, id.Value)
	if doc == nil {
		return outcome
	}

	row := doc.Find(".catlog_items").First()
	if row.Length() == 0 {
		return domain.NotFound(fisherName)
	}
	return fisherLinkOutcome(row, f.baseURL)
}

func fisherSearch(ctx context.Context, s *session, baseURL, keyword string) (*goquery.Document, domain.SourceOutcome) {
	query := url.Values{
		"selectLang":  {""},
		"store":       {""},
		"msdsKeyword": {keyword},
	}

	resp, err := s.get(ctx, baseURL+"/us/en/catalog/search/sds", query, fisherHeaders)
	if err != nil {
		return nil, domain.Failed(fisherName, err)
	}
	if !resp.ok() {
		return nil, domain.NotFound(fisherName)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.body)))
	if err != nil {
		return nil, domain.Failed(fisherName, err)
	}
	return doc, domain.SourceOutcome{}
}

func fisherLinkOutcome(row *goquery.Selection, baseURL string) domain.SourceOutcome {
	link := row.Find("a").First()
	href, exists := link.Attr("href")
	if !exists {
		return domain.NotFound(fisherName)
	}

	full := resolveRef(baseURL+"/", href)
	if !documentURL(full) {
		return domain.NotFound(fisherName)
	}
	return domain.Found(fisherName, fisherName, full)
}
