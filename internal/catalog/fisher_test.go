package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sdsfinder/internal/domain"
)

const fisherResultsPage = `
<html><body>
  <div class="search_results">
    <div class="msds_img"><img src="/images/compounds/67-64-1.jpg"/></div>
    <div class="catalog_data">
      <div class="catlog_items"><a href="/store/msds?partNumber=A949-4&sds=acetone.pdf">A949-4</a></div>
    </div>
    <div class="msds_img"><img src="/images/compounds/67-63-0.jpg"/></div>
    <div class="catalog_data">
      <div class="catlog_items"><a href="/sdsdocuments/A416S4-ipa.pdf">A416S4</a></div>
    </div>
  </div>
</body></html>`

func TestFisherCASPicksExactRow(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("msdsKeyword") != "67-63-0" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(fisherResultsPage))
	}))
	defer server.Close()

	adapter := NewFisherCAS(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("67-63-0", domain.KindCAS))

	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.ErrorDetail)
	}
	if outcome.URL != server.URL+"/sdsdocuments/A416S4-ipa.pdf" {
		t.Fatalf("picked wrong row: %s", outcome.URL)
	}
}

func TestFisherCASNoMatchingImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fisherResultsPage))
	}))
	defer server.Close()

	adapter := NewFisherCAS(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("111-11-1", domain.KindCAS))

	if outcome.Status != domain.StatusNotFound {
		t.Fatalf("expected not_found, got %s", outcome.Status)
	}
}

func TestFisherNameTakesFirstItem(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("msdsKeyword") != "isopropanol" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`
		<div class="catlog_items"><a href="/sdsdocuments/first.pdf">FIRST</a></div>
		<div class="catlog_items"><a href="/sdsdocuments/second.pdf">SECOND</a></div>`))
	}))
	defer server.Close()

	adapter := NewFisherName(Options{BaseURL: server.URL, Client: server.Client()})
	outcome := adapter.Lookup(context.Background(), domain.NewIdentifier("isopropanol", domain.KindProductName))

	if outcome.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.ErrorDetail)
	}
	if outcome.URL != server.URL+"/sdsdocuments/first.pdf" {
		t.Fatalf("unexpected url: %s", outcome.URL)
	}
}
