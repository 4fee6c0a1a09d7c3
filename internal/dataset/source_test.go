package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apidataset "github.com/axisgrid/concentra/api/dataset"
	"github.com/axisgrid/concentra/internal/axis"
)

func ptr(v float64) *float64 { return &v }

func profile(code string, values [6]float64) apidataset.EntityProfile {
	scores := make([]apidataset.AxisScore, 0, axis.Count)
	sum := 0.0
	for i, slug := range axis.All() {
		scores = append(scores, apidataset.AxisScore{Slug: slug, Value: ptr(values[i])})
		sum += values[i]
	}
	composite := sum / float64(axis.Count)
	classification := apidataset.Classify(composite)
	return apidataset.EntityProfile{
		Code:           code,
		Name:           code,
		CompositeScore: &composite,
		Classification: &classification,
		AxisScores:     scores,
	}
}

type fetcherFunc func(ctx context.Context) (apidataset.Cohort, error)

func (f fetcherFunc) FetchCohort(ctx context.Context) (apidataset.Cohort, error) { return f(ctx) }

func TestSnapshotValidatesAndCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	fetcher := fetcherFunc(func(ctx context.Context) (apidataset.Cohort, error) {
		calls++
		return apidataset.Cohort{
			profile("SE", [6]float64{0.30, 0.10, 0.40, 0.20, 0.15, 0.05}),
			profile("PL", [6]float64{0.25, 0.20, 0.10, 0.30, 0.15, 0.20}),
		}, nil
	})

	now := time.Unix(0, 0)
	cache := NewCache(time.Minute, func() time.Time { return now })
	source, err := NewSource(SourceConfig{Fetcher: fetcher, Cache: cache})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}

	cohort, err := source.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(cohort) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(cohort))
	}

	if _, err := source.Snapshot(context.Background()); err != nil {
		t.Fatalf("cached snapshot: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit, got %d fetches", calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := source.Snapshot(context.Background()); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d fetches", calls)
	}
}

func TestSnapshotRejectsCompositeDrift(t *testing.T) {
	t.Parallel()

	fetcher := fetcherFunc(func(ctx context.Context) (apidataset.Cohort, error) {
		p := profile("SE", [6]float64{0.30, 0.10, 0.40, 0.20, 0.15, 0.05})
		p.CompositeScore = ptr(0.9)
		c := apidataset.HighlyConcentrated
		p.Classification = &c
		return apidataset.Cohort{p}, nil
	})
	source, err := NewSource(SourceConfig{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	if _, err := source.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected rejection of composite drift")
	}
}

func TestSnapshotRejectsClassificationDrift(t *testing.T) {
	t.Parallel()

	fetcher := fetcherFunc(func(ctx context.Context) (apidataset.Cohort, error) {
		p := profile("SE", [6]float64{0.30, 0.10, 0.40, 0.20, 0.15, 0.05})
		// Composite 0.20 classifies mildly_concentrated locally.
		c := apidataset.HighlyConcentrated
		p.Classification = &c
		return apidataset.Cohort{p}, nil
	})
	source, err := NewSource(SourceConfig{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	if _, err := source.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected rejection of classification drift")
	}
}

func TestSnapshotRejectsMalformedCohortWhole(t *testing.T) {
	t.Parallel()

	fetcher := fetcherFunc(func(ctx context.Context) (apidataset.Cohort, error) {
		good := profile("SE", [6]float64{0.30, 0.10, 0.40, 0.20, 0.15, 0.05})
		bad := profile("PLN", [6]float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1})
		return apidataset.Cohort{good, bad}, nil
	})
	source, err := NewSource(SourceConfig{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	if _, err := source.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected whole-cohort rejection")
	}
}

func TestSnapshotPropagatesFetchErrors(t *testing.T) {
	t.Parallel()

	fetcher := fetcherFunc(func(ctx context.Context) (apidataset.Cohort, error) {
		return nil, fmt.Errorf("upstream down")
	})
	source, err := NewSource(SourceConfig{Fetcher: fetcher})
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	if _, err := source.Snapshot(context.Background()); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestHTTPFetcherDecodesEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(`{"entities":[{"code":"SE","name":"Sweden","composite_score":0.2,` +
			`"classification":"mildly_concentrated","axis_scores":[` +
			`{"slug":"energy","value":0.30},{"slug":"financial","value":0.10},` +
			`{"slug":"defense","value":0.40},{"slug":"technology","value":0.20},` +
			`{"slug":"critical_inputs","value":0.15},{"slug":"logistics","value":0.05}]}]}`))
	}))
	defer server.Close()

	fetcher, err := NewHTTPFetcher(server.URL, nil)
	if err != nil {
		t.Fatalf("build fetcher: %v", err)
	}
	cohort, err := fetcher.FetchCohort(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cohort) != 1 || cohort[0].Code != "SE" {
		t.Fatalf("unexpected cohort: %+v", cohort)
	}
	if v := cohort[0].AxisValue(axis.Defense); v == nil || *v != 0.40 {
		t.Fatalf("expected defense 0.40, got %v", v)
	}
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher, err := NewHTTPFetcher(server.URL, nil)
	if err != nil {
		t.Fatalf("build fetcher: %v", err)
	}
	if _, err := fetcher.FetchCohort(context.Background()); err == nil {
		t.Fatalf("expected error status rejection")
	}
}
