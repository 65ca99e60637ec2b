package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sdsfinder/internal/domain"
)

const (
	fluorochemName       = "Fluorochem"
	fluorochemBaseURL    = "https://fluorochem.co.uk"
	fluorochemWWWBaseURL = "https://www.fluorochem.co.uk"
	// Fluorochem's catalog data is served by the Doug Discovery API; the
	// sheet files themselves live on their NetSuite account.
	dougDiscoveryBaseURL = "https://dougdiscovery.com"
	netsuiteBaseURL      = "https://7128445.app.netsuite.com"
	fluorochemTimeout    = 15 * time.Second
)

// FluorochemCAS searches the Fluorochem shop pages for a CAS number and
// extracts the first safety-sheet-looking document link.
type FluorochemCAS struct {
	base    string
	wwwBase string
	session *session
	logger  *slog.Logger
}

// NewFluorochemCAS builds the adapter. BaseURL overrides both shop hosts.
func NewFluorochemCAS(opts Options) *FluorochemCAS {
	f := &FluorochemCAS{
		base:    fluorochemBaseURL,
		wwwBase: fluorochemWWWBaseURL,
		session: opts.newSession(fluorochemTimeout),
		logger:  opts.logger().With("catalog", fluorochemName),
	}
	if opts.BaseURL != "" {
		base := strings.TrimSuffix(opts.BaseURL, "/")
		f.base = base
		f.wwwBase = base
	}
	return f
}

func (f *FluorochemCAS) Database() string { return fluorochemName }

func (f *FluorochemCAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	candidates := []string{
		f.base + "/?s=" + url.QueryEscape(id.Value),
		f.wwwBase + "/Products/Search?q=" + url.QueryEscape(id.Value),
		f.base + "/shop/?s=" + url.QueryEscape(id.Value),
	}

	var lastErr error
	for _, searchURL := range candidates {
		resp, err := f.session.get(ctx, searchURL, nil, nil)
		if err != nil {
			lastErr = err
			f.logger.Debug("candidate endpoint failed", "url", searchURL, "error", err)
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

		if _, href, found := extractSafetyLink(doc, searchURL); found {
			return domain.Found(fluorochemName, fluorochemName, href)
		}
	}

	if lastErr != nil {
		return domain.Failed(fluorochemName, lastErr)
	}
	return domain.NotFound(fluorochemName)
}

type dougDiscoveryResult struct {
	Data []struct {
		Molecule struct {
			Name string `json:"name"`
			SDS  *struct {
				LinkEN string `json:"custrecord_sdslink_en"`
			} `json:"sds"`
		} `json:"molecule"`
	} `json:"data"`
}

// FluorochemName resolves a product name through the Doug Discovery
// molecule search API backing the Fluorochem catalog.
type FluorochemName struct {
	apiBase   string
	assetBase string
	session   *session
	logger    *slog.Logger
}

// NewFluorochemName builds the product-name adapter. BaseURL overrides
// both the API host and the sheet asset host.
func NewFluorochemName(opts Options) *FluorochemName {
	f := &FluorochemName{
		apiBase:   dougDiscoveryBaseURL,
		assetBase: netsuiteBaseURL,
		session:   opts.newSession(20 * time.Second),
		logger:    opts.logger().With("catalog", fluorochemName),
	}
	if opts.BaseURL != "" {
		base := strings.TrimSuffix(opts.BaseURL, "/")
		f.apiBase = base
		f.assetBase = base
	}
	return f
}

func (f *FluorochemName) Database() string { return fluorochemName }

func (f *FluorochemName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	payload, err := json.Marshal(map[string]any{
		"q":      id.Value,
		"offset": 0,
		"limit":  12,
	})
	if err != nil {
		return domain.Failed(fluorochemName, fmt.Errorf("marshal query: %w", err))
	}

	resp, err := f.session.post(ctx, f.apiBase+"/api/v1/molecules/search", "application/json", payload, nil)
	if err != nil {
		return domain.Failed(fluorochemName, err)
	}
	if !resp.ok() {
		return domain.NotFound(fluorochemName)
	}

	var result dougDiscoveryResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return domain.Failed(fluorochemName, fmt.Errorf("decode response: %w", err))
	}

	for _, item := range result.Data {
		if !namesOverlap(item.Molecule.Name, id.Value) {
			continue
		}
		if item.Molecule.SDS == nil || item.Molecule.SDS.LinkEN == "" {
			continue
		}
		sheetURL := f.assetBase + item.Molecule.SDS.LinkEN
		if !documentURL(sheetURL) {
			continue
		}
		return domain.Found(fluorochemName, fluorochemName, sheetURL)
	}
	return domain.NotFound(fluorochemName)
}
