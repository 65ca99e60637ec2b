package batch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/fetch"
	"sdsfinder/internal/ports"
	"sdsfinder/internal/registry"
	"sdsfinder/internal/resolve"
)

type stubResolver struct {
	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	delay    time.Duration
	resolve  func(id domain.Identifier) domain.ResolutionResult
}

func newStubResolver(resolve func(id domain.Identifier) domain.ResolutionResult) *stubResolver {
	return &stubResolver{calls: map[string]int{}, resolve: resolve}
}

func (s *stubResolver) Resolve(_ context.Context, id domain.Identifier, _ ports.Policy) (domain.ResolutionResult, error) {
	cur := s.inFlight.Add(1)
	for {
		max := s.maxSeen.Load()
		if cur <= max || s.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.inFlight.Add(-1)

	s.mu.Lock()
	s.calls[id.Value]++
	s.mu.Unlock()
	return s.resolve(id), nil
}

func (s *stubResolver) callCount(value string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[value]
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, id domain.Identifier, outcome domain.SourceOutcome, _ string) domain.DownloadOutcome {
	return domain.DownloadOutcome{
		Identifier: id,
		Downloaded: outcome.Status == domain.StatusSuccess,
		Source:     outcome.ResolvedSource,
	}
}

func foundFor(value string) func(domain.Identifier) domain.ResolutionResult {
	return func(id domain.Identifier) domain.ResolutionResult {
		if id.Value != value {
			outcome := domain.NotFound("cat")
			return domain.ResolutionResult{Identifier: id, All: []domain.SourceOutcome{outcome}}
		}
		outcome := domain.Found("cat", "Maker", "https://example.com/"+id.Value+".pdf")
		return domain.ResolutionResult{
			Identifier: id,
			Found:      true,
			Successes:  []domain.SourceOutcome{outcome},
			All:        []domain.SourceOutcome{outcome},
			Primary:    &outcome,
		}
	}
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	t.Parallel()

	resolver := newStubResolver(foundFor("never-matches"))
	resolver.delay = 20 * time.Millisecond
	c := New(resolver, stubFetcher{}, nil)

	ids := []string{
		"50-00-0", "64-17-5", "67-56-1", "67-63-0", "67-64-1",
		"71-43-2", "75-09-2", "108-88-3", "110-54-3", "141-78-6",
	}
	summary, err := c.RunBatch(context.Background(), ids, domain.KindCAS, t.TempDir(), 3)
	require.NoError(t, err)

	require.Equal(t, 10, summary.Requested)
	require.LessOrEqual(t, resolver.maxSeen.Load(), int64(3), "worker pool exceeded its limit")
}

func TestRunBatchSkipsExistingFilesBeforeResolving(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "67-63-0-SDS.pdf"), []byte("cached"), 0o644))

	resolver := newStubResolver(foundFor("64-17-5"))
	c := New(resolver, stubFetcher{}, nil)

	summary, err := c.RunBatch(context.Background(), []string{"67-63-0", "64-17-5"}, domain.KindCAS, dir, 2)
	require.NoError(t, err)

	require.Equal(t, 0, resolver.callCount("67-63-0"), "cached identifier must not touch any catalog")
	require.Equal(t, 1, resolver.callCount("64-17-5"))
	require.Contains(t, summary.Completed, "67-63-0")
	require.Contains(t, summary.Completed, "64-17-5")
	require.Empty(t, summary.Missing)
}

func TestRunBatchDeduplicates(t *testing.T) {
	t.Parallel()

	resolver := newStubResolver(foundFor("67-63-0"))
	c := New(resolver, stubFetcher{}, nil)

	ids := []string{"67-63-0", " 67-63-0 ", "67-63-0", "", "   "}
	summary, err := c.RunBatch(context.Background(), ids, domain.KindCAS, t.TempDir(), 4)
	require.NoError(t, err)

	require.Equal(t, 1, summary.Requested)
	require.Equal(t, 1, resolver.callCount("67-63-0"))
}

func TestRunBatchRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	c := New(newStubResolver(foundFor("x")), stubFetcher{}, nil)
	_, err := c.RunBatch(context.Background(), []string{"x"}, domain.Kind("inchi"), t.TempDir(), 1)
	require.Error(t, err)
}

type fixedAdapter struct {
	hit string
	url string
}

func (fixedAdapter) Database() string { return "cat" }

func (a fixedAdapter) Lookup(_ context.Context, id domain.Identifier) domain.SourceOutcome {
	if id.Value != a.hit {
		return domain.NotFound("cat")
	}
	return domain.Found("cat", "Maker", a.url)
}

// End-to-end: real resolver and fetch executor over a stub catalog that
// only knows isopropanol.
func TestRunBatchPartialSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	reg := registry.New()
	reg.Register(domain.KindCAS, fixedAdapter{hit: "67-63-0", url: server.URL + "/67-63-0.pdf"})

	dir := t.TempDir()
	c := New(
		resolve.New(reg, nil, nil),
		fetch.New(server.Client(), nil, nil),
		nil,
	)

	summary, err := c.RunBatch(context.Background(), []string{"67-63-0", "00000-00-0"}, domain.KindCAS, dir, 2)
	require.NoError(t, err)

	require.Equal(t, 2, summary.Requested)
	require.Equal(t, map[string]struct{}{"67-63-0": {}}, summary.Completed)
	require.Equal(t, map[string]struct{}{"00000-00-0": {}}, summary.Missing)

	_, statErr := os.Stat(filepath.Join(dir, "67-63-0-SDS.pdf"))
	require.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "00000-00-0-SDS.pdf"))
	require.True(t, os.IsNotExist(statErr))
}
