package ports

import (
	"context"

	"sdsfinder/internal/domain"
)

// SourceAdapter resolves one identifier against one external catalog.
// Implementations never panic or return a Go error past this boundary:
// network failures, timeouts, and parse surprises all come back as a
// SourceOutcome with StatusError.
type SourceAdapter interface {
	// Database names the catalog this adapter talks to.
	Database() string
	Lookup(ctx context.Context, id domain.Identifier) domain.SourceOutcome
}

// Fetcher retrieves a resolved document and persists it under targetDir.
// A pre-existing file at the derived path satisfies the fetch without a
// network call.
type Fetcher interface {
	Fetch(ctx context.Context, id domain.Identifier, outcome domain.SourceOutcome, targetDir string) domain.DownloadOutcome
}

// Resolver runs the adapter registry for one identifier under a policy.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identifier, policy Policy) (domain.ResolutionResult, error)
}

// Policy selects how far resolution probes the registry.
type Policy string

const (
	// PolicyShortCircuit stops at the first successful catalog.
	PolicyShortCircuit Policy = "short_circuit"
	// PolicyExhaustive probes every catalog regardless of earlier hits.
	PolicyExhaustive Policy = "exhaustive"
)

// Observer counts adapter and fetch activity. Call sites tolerate a nil
// observer so metrics stay optional wiring.
type Observer interface {
	LookupDone(database string, status domain.Status)
	FetchDone(downloaded bool)
}
