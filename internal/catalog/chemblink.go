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
	chemBlinkName    = "ChemBlink"
	chemBlinkBaseURL = "https://www.chemblink.com"
	chemBlinkTimeout = 20 * time.Second
)

var (
	// e.g. /MSDS/MSDSFiles/64-19-7Alfa-Aesar.pdf -> Alfa-Aesar
	chemBlinkSourceExpr = regexp.MustCompile(`([a-zA-Z\-]+)\.pdf`)
	casExpr             = regexp.MustCompile(`\b\d{2,7}-\d{2}-\d\b`)
)

// ChemBlinkCAS looks a CAS number up on chemblink.com, whose MSDS pages
// link sheets hosted for third-party manufacturers.
type ChemBlinkCAS struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewChemBlinkCAS builds the adapter; a zero Options targets the live site.
func NewChemBlinkCAS(opts Options) *ChemBlinkCAS {
	base := opts.BaseURL
	if base == "" {
		base = chemBlinkBaseURL
	}
	return &ChemBlinkCAS{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(chemBlinkTimeout),
		logger:  opts.logger().With("catalog", chemBlinkName),
	}
}

func (c *ChemBlinkCAS) Database() string { return chemBlinkName }

func (c *ChemBlinkCAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	pageURL := c.baseURL + "/MSDS/" + id.Value + "MSDS.htm"

	resp, err := c.session.get(ctx, pageURL, nil, nil)
	if err != nil {
		return domain.Failed(chemBlinkName, err)
	}
	if !resp.ok() {
		return domain.NotFound(chemBlinkName)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.body)))
	if err != nil {
		return domain.Failed(chemBlinkName, err)
	}

	outcome := domain.NotFound(chemBlinkName)
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "View / download") {
			return true
		}
		href, exists := a.Attr("href")
		if !exists {
			return true
		}
		full := resolveRef(pageURL, href)
		if !documentURL(full) {
			return true
		}

		source := chemBlinkName
		if m := chemBlinkSourceExpr.FindStringSubmatch(href); m != nil {
			source = m[1]
		}
		outcome = domain.Found(chemBlinkName, source, full)
		return false
	})

	if outcome.Status != domain.StatusSuccess {
		c.logger.Debug("no download link on msds page", "identifier", id.Value)
	}
	return outcome
}

// ChemBlinkName searches chemblink.com by product name. The site is
// CAS-oriented, so the search page is scanned for CAS numbers and the
// first hit is re-resolved through the CAS adapter.
type ChemBlinkName struct {
	baseURL string
	session *session
	cas     *ChemBlinkCAS
	logger  *slog.Logger
}

// NewChemBlinkName builds the product-name adapter on top of the CAS one.
func NewChemBlinkName(opts Options) *ChemBlinkName {
	base := opts.BaseURL
	if base == "" {
		base = chemBlinkBaseURL
	}
	return &ChemBlinkName{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(chemBlinkTimeout),
		cas:     NewChemBlinkCAS(opts),
		logger:  opts.logger().With("catalog", chemBlinkName),
	}
}

func (c *ChemBlinkName) Database() string { return chemBlinkName }

func (c *ChemBlinkName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	query := url.Values{"q": {id.Value}}

	resp, err := c.session.get(ctx, c.baseURL+"/search.htm", query, nil)
	if err != nil {
		return domain.Failed(chemBlinkName, err)
	}
	if !resp.ok() {
		return domain.NotFound(chemBlinkName)
	}

	cas := casExpr.FindString(string(resp.body))
	if cas == "" {
		return domain.NotFound(chemBlinkName)
	}

	c.logger.Debug("search matched cas", "name", id.Value, "cas", cas)
	return c.cas.Lookup(ctx, domain.NewIdentifier(cas, domain.KindCAS))
}
