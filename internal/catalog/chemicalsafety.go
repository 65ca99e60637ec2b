package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"sdsfinder/internal/domain"
)

const (
	chemicalSafetyName    = "ChemicalSafety"
	chemicalSafetyBaseURL = "https://chemicalsafety.com"
	chemicalSafetyTimeout = 20 * time.Second
)

// The catalog lists many references that are viewer pages, not sheets;
// only direct pdf links qualify.
var chemicalSafetyPDFExpr = regexp.MustCompile(`^http.+\.pdf$`)

type chemicalSafetyQuery struct {
	IsContains      string   `json:"IsContains"`
	IncludeSynonyms string   `json:"IncludeSynonyms"`
	SearchSdsServer string   `json:"SearchSdsServer"`
	Criteria        []string `json:"Criteria"`
	HostName        string   `json:"HostName"`
	Bee             string   `json:"Bee"`
	Action          string   `json:"Action"`
	SearchUrl       string   `json:"SearchUrl"`
	ResultColumns   []string `json:"ResultColumns"`
}

type chemicalSafetyResponse struct {
	Cols []struct {
		Name string `json:"name"`
	} `json:"cols"`
	Rows [][]string `json:"rows"`
}

func (r chemicalSafetyResponse) column(name string) int {
	for i, col := range r.Cols {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// ChemicalSafetyCAS queries the chemicalsafety.com JSON retriever for an
// exact CAS match. Of all qualifying rows the last one is taken, which
// in the catalog's ordering is the most specific listing.
type ChemicalSafetyCAS struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewChemicalSafetyCAS builds the adapter.
func NewChemicalSafetyCAS(opts Options) *ChemicalSafetyCAS {
	base := opts.BaseURL
	if base == "" {
		base = chemicalSafetyBaseURL
	}
	return &ChemicalSafetyCAS{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(chemicalSafetyTimeout),
		logger:  opts.logger().With("catalog", chemicalSafetyName),
	}
}

func (c *ChemicalSafetyCAS) Database() string { return chemicalSafetyName }

func (c *ChemicalSafetyCAS) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	query := chemicalSafetyQuery{
		IsContains:      "false",
		IncludeSynonyms: "false",
		SearchSdsServer: "false",
		Criteria:        []string{"cas|" + id.Value},
		HostName:        "sfs website",
		Bee:             "stevia",
		Action:          "search",
		ResultColumns:   []string{"revision_date"},
	}

	result, outcome := chemicalSafetySearch(ctx, c.session, c.baseURL, query)
	if result == nil {
		return outcome
	}

	casCol := result.column("CAS")
	manufactCol := result.column("MANUFACT")
	urlCol := result.column("HTTPMSDSREF")
	if casCol < 0 || manufactCol < 0 || urlCol < 0 {
		return domain.Failed(chemicalSafetyName, fmt.Errorf("response missing expected columns"))
	}

	var matches []domain.SourceOutcome
	for _, row := range result.Rows {
		if len(row) <= casCol || len(row) <= manufactCol || len(row) <= urlCol {
			continue
		}
		if row[casCol] == id.Value && chemicalSafetyPDFExpr.MatchString(row[urlCol]) {
			matches = append(matches, domain.Found(chemicalSafetyName, row[manufactCol], row[urlCol]))
		}
	}
	if len(matches) == 0 {
		return domain.NotFound(chemicalSafetyName)
	}
	return matches[len(matches)-1]
}

// ChemicalSafetyName runs a contains-plus-synonyms search by product
// name and takes the catalog's first overlapping match.
type ChemicalSafetyName struct {
	baseURL string
	session *session
	logger  *slog.Logger
}

// NewChemicalSafetyName builds the product-name adapter.
func NewChemicalSafetyName(opts Options) *ChemicalSafetyName {
	base := opts.BaseURL
	if base == "" {
		base = chemicalSafetyBaseURL
	}
	return &ChemicalSafetyName{
		baseURL: strings.TrimSuffix(base, "/"),
		session: opts.newSession(chemicalSafetyTimeout),
		logger:  opts.logger().With("catalog", chemicalSafetyName),
	}
}

func (c *ChemicalSafetyName) Database() string { return chemicalSafetyName }

func (c *ChemicalSafetyName) Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome {
	query := chemicalSafetyQuery{
		IsContains:      "true",
		IncludeSynonyms: "true",
		SearchSdsServer: "false",
		Criteria:        []string{"common|" + id.Value},
		HostName:        "sfs website",
		Bee:             "stevia",
		Action:          "search",
		ResultColumns:   []string{"revision_date"},
	}

	result, outcome := chemicalSafetySearch(ctx, c.session, c.baseURL, query)
	if result == nil {
		return outcome
	}

	commonCol := result.column("COMMON")
	manufactCol := result.column("MANUFACT")
	urlCol := result.column("HTTPMSDSREF")
	if commonCol < 0 || manufactCol < 0 || urlCol < 0 {
		return domain.Failed(chemicalSafetyName, fmt.Errorf("response missing expected columns"))
	}

	for _, row := range result.Rows {
		if len(row) <= commonCol || len(row) <= manufactCol || len(row) <= urlCol {
			continue
		}
		if namesOverlap(row[commonCol], id.Value) && chemicalSafetyPDFExpr.MatchString(row[urlCol]) {
			return domain.Found(chemicalSafetyName, row[manufactCol], row[urlCol])
		}
	}
	return domain.NotFound(chemicalSafetyName)
}

func chemicalSafetySearch(ctx context.Context, s *session, baseURL string, query chemicalSafetyQuery) (*chemicalSafetyResponse, domain.SourceOutcome) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, domain.Failed(chemicalSafetyName, fmt.Errorf("marshal query: %w", err))
	}

	resp, err := s.post(ctx, baseURL+"/sds1/sds_retriever.php?action=search", "application/json", body, nil)
	if err != nil {
		return nil, domain.Failed(chemicalSafetyName, err)
	}
	if !resp.ok() {
		return nil, domain.NotFound(chemicalSafetyName)
	}

	var result chemicalSafetyResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, domain.Failed(chemicalSafetyName, fmt.Errorf("decode response: %w", err))
	}
	return &result, domain.SourceOutcome{}
}
