package server

import (
	"encoding/json"
	"net/http"
	"os"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

type searchCASRequest struct {
	CASNumbers []string `json:"cas_numbers"`
	Download   bool     `json:"download"`
}

type searchProductRequest struct {
	ProductNames []string `json:"product_names"`
	Download     bool     `json:"download"`
}

type searchMixedRequest struct {
	CASNumbers   []string `json:"cas_numbers"`
	ProductNames []string `json:"product_names"`
	Download     bool     `json:"download"`
}

type searchResult struct {
	Type        string `json:"type,omitempty"`
	Identifier  string `json:"identifier"`
	Found       bool   `json:"found"`
	Source      string `json:"source,omitempty"`
	URL         string `json:"url,omitempty"`
	Downloaded  *bool  `json:"downloaded,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

type searchResponse struct {
	RequestID     string         `json:"request_id"`
	Results       []searchResult `json:"results"`
	TotalSearched int            `json:"total_searched"`
	FoundCount    int            `json:"found_count"`
}

func (s *Server) handleSearchCAS(w http.ResponseWriter, r *http.Request) {
	var req searchCASRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.CASNumbers) == 0 {
		writeError(w, http.StatusBadRequest, "cas_numbers parameter is required")
		return
	}

	requestID, dir := s.requestDir()

	var results []searchResult
	if req.Download {
		summary, err := s.batch.RunBatch(r.Context(), req.CASNumbers, domain.KindCAS, dir, s.poolSize)
		if err != nil {
			s.logger.Error("batch run failed", "request_id", requestID, "error", err)
			writeError(w, http.StatusInternalServerError, "batch download failed")
			return
		}
		for _, cas := range req.CASNumbers {
			id := domain.NewIdentifier(cas, domain.KindCAS)
			_, found := summary.Completed[id.Value]
			result := searchResult{Identifier: id.Value, Found: found, Downloaded: &found}
			if found {
				result.DownloadURL = "/download/" + requestID + "/" + id.FileName("")
			}
			results = append(results, result)
		}
	} else {
		for _, cas := range req.CASNumbers {
			results = append(results, s.resolveOnly("", domain.NewIdentifier(cas, domain.KindCAS), r))
		}
	}

	s.respond(w, requestID, results)
}

func (s *Server) handleSearchProduct(w http.ResponseWriter, r *http.Request) {
	var req searchProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.ProductNames) == 0 {
		writeError(w, http.StatusBadRequest, "product_names parameter is required")
		return
	}

	requestID, dir := s.requestDir()

	var results []searchResult
	for _, name := range req.ProductNames {
		id := domain.NewIdentifier(name, domain.KindProductName)
		results = append(results, s.searchOne("", id, req.Download, requestID, dir, r))
	}

	s.respond(w, requestID, results)
}

func (s *Server) handleSearchMixed(w http.ResponseWriter, r *http.Request) {
	var req searchMixedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}
	if len(req.CASNumbers) == 0 && len(req.ProductNames) == 0 {
		writeError(w, http.StatusBadRequest, "either cas_numbers or product_names must be provided")
		return
	}

	requestID, dir := s.requestDir()

	var results []searchResult
	for _, cas := range req.CASNumbers {
		id := domain.NewIdentifier(cas, domain.KindCAS)
		results = append(results, s.searchOne("cas", id, req.Download, requestID, dir, r))
	}
	for _, name := range req.ProductNames {
		id := domain.NewIdentifier(name, domain.KindProductName)
		results = append(results, s.searchOne("product", id, req.Download, requestID, dir, r))
	}

	s.respond(w, requestID, results)
}

// resolveOnly performs a link-only lookup: no file is written.
func (s *Server) resolveOnly(typ string, id domain.Identifier, r *http.Request) searchResult {
	result := searchResult{Type: typ, Identifier: id.Value}

	res, err := s.resolver.Resolve(r.Context(), id, ports.PolicyShortCircuit)
	if err != nil {
		s.logger.Error("resolution failed", "identifier", id.Value, "error", err)
		return result
	}
	if res.Found {
		result.Found = true
		result.Source = res.Primary.ResolvedSource
		result.URL = res.Primary.URL
	}
	return result
}

// searchOne resolves one identifier and optionally fetches its sheet
// into the request's isolation directory.
func (s *Server) searchOne(typ string, id domain.Identifier, download bool, requestID, dir string, r *http.Request) searchResult {
	result := searchResult{Type: typ, Identifier: id.Value}

	res, err := s.resolver.Resolve(r.Context(), id, ports.PolicyShortCircuit)
	if err != nil {
		s.logger.Error("resolution failed", "identifier", id.Value, "error", err)
	} else if res.Found {
		result.Found = true
		result.Source = res.Primary.ResolvedSource
		result.URL = res.Primary.URL
	}
	if !download {
		return result
	}

	downloaded := false
	result.Downloaded = &downloaded
	if !result.Found {
		return result
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("create request dir failed", "request_id", requestID, "error", err)
		return result
	}

	outcome := s.fetcher.Fetch(r.Context(), id, *res.Primary, dir)
	if outcome.Downloaded {
		downloaded = true
		result.DownloadURL = "/download/" + requestID + "/" + id.FileName("")
	}
	return result
}

func (s *Server) respond(w http.ResponseWriter, requestID string, results []searchResult) {
	found := 0
	for _, r := range results {
		if r.Found {
			found++
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		RequestID:     requestID,
		Results:       results,
		TotalSearched: len(results),
		FoundCount:    found,
	})
}
