package domain

// Status classifies one adapter invocation against one catalog.
type Status string

const (
	// StatusSuccess means the catalog returned a qualifying document URL.
	StatusSuccess Status = "success"
	// StatusNotFound means the catalog was reached but had no match.
	StatusNotFound Status = "not_found"
	// StatusError means the catalog was unreachable, timed out, or
	// returned something the adapter could not make sense of.
	StatusError Status = "error"
)

// SourceOutcome is the result of one adapter invocation.
// URL is set iff Status is StatusSuccess; ErrorDetail iff StatusError.
type SourceOutcome struct {
	// Database is the catalog identity, fixed per adapter.
	Database string
	// ResolvedSource is the manufacturer label reported by the catalog
	// itself; it may differ from Database (e.g. ChemBlink hosting an
	// Alfa-Aesar sheet).
	ResolvedSource string
	URL            string
	Status         Status
	ErrorDetail    string
}

// Found constructs a success outcome.
func Found(database, resolvedSource, url string) SourceOutcome {
	return SourceOutcome{
		Database:       database,
		ResolvedSource: resolvedSource,
		URL:            url,
		Status:         StatusSuccess,
	}
}

// NotFound constructs a no-match outcome.
func NotFound(database string) SourceOutcome {
	return SourceOutcome{Database: database, Status: StatusNotFound}
}

// Failed constructs an error outcome carrying human-readable detail.
func Failed(database string, err error) SourceOutcome {
	detail := "unknown failure"
	if err != nil {
		detail = err.Error()
	}
	return SourceOutcome{Database: database, Status: StatusError, ErrorDetail: detail}
}

// ResolutionResult aggregates every outcome produced for one identifier
// under one policy run. Successes is a subsequence of All preserving
// registry order; Primary points at Successes[0] when Found.
type ResolutionResult struct {
	Identifier Identifier
	Found      bool
	Successes  []SourceOutcome
	All        []SourceOutcome
	Primary    *SourceOutcome
}

// DownloadOutcome is the result of fetching one resolved document.
// Downloaded is true if the file now exists at the target path,
// pre-existing files included. Source is empty when nothing was fetched.
type DownloadOutcome struct {
	Identifier Identifier
	Downloaded bool
	Source     string
}

// BatchSummary partitions a batch's identifiers by download outcome.
type BatchSummary struct {
	Requested int
	Completed map[string]struct{}
	Missing   map[string]struct{}
}
