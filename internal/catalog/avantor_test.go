package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sdsfinder/internal/domain"
)

func TestAvantorCASFallsThroughCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/us/en/certificates/search":
			http.Error(w, "upstream boom", http.StatusInternalServerError)
		case "/us/en/search":
			// Search worked but only landing-page links came back.
			_, _ = w.Write([]byte(`<a href="/product/12345">Isopropanol 99%</a>`))
		case "/store/msds":
			_, _ = w.Write([]byte(`
			<table><tr>
			  <td>Supelco 67-63-0 <a href="/files/msds/67-63-0-supelco.pdf">SDS</a></td>
			</tr></table>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	adapter := NewAvantorCAS(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("67-63-0", domain.KindCAS))

	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.ErrorDetail)
	}
	if outcome.URL != server.URL+"/files/msds/67-63-0-supelco.pdf" {
		t.Fatalf("unexpected url: %s", outcome.URL)
	}
	if outcome.ResolvedSource != "Supelco" {
		t.Fatalf("unexpected source: %s", outcome.ResolvedSource)
	}
}

func TestAvantorCASAllCandidatesFailing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	adapter := NewAvantorCAS(Options{BaseURL: server.URL})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("67-63-0", domain.KindCAS))

	if outcome.Status != domain.StatusError {
		t.Fatalf("expected error when every endpoint is unreachable, got %s", outcome.Status)
	}
}

func TestVWRNameParsesResultTable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/store/msds" || r.URL.Query().Get("keyword") != "acetone" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`
		<div class="clearfix"><span class="pull-left">3 results were found</span></div>
		<table><tr>
		  <td data-title="Manufacturer">Honeywell</td>
		  <td data-title="SDS"><a href="/files/sds/acetone-hw.pdf">SDS</a></td>
		</tr></table>`))
	}))
	defer server.Close()

	adapter := NewVWRName(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("acetone", domain.KindProductName))

	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.ErrorDetail)
	}
	if outcome.ResolvedSource != "Honeywell" {
		t.Fatalf("unexpected source: %s", outcome.ResolvedSource)
	}
	if outcome.URL != server.URL+"/files/sds/acetone-hw.pdf" {
		t.Fatalf("unexpected url: %s", outcome.URL)
	}
}

func TestVWRNameZeroResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div class="clearfix"><span class="pull-left">0 results were found</span></div>`))
	}))
	defer server.Close()

	adapter := NewVWRName(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("unobtainium", domain.KindProductName))

	if outcome.Status != domain.StatusNotFound {
		t.Fatalf("expected not_found, got %s", outcome.Status)
	}
}
