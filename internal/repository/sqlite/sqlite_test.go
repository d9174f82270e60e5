package sqlite

import (
	"context"
	"reflect"
	"testing"

	"meshscope/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleModel() *domain.RenderModel {
	return &domain.RenderModel{
		Topology:  domain.ClassStar,
		GatewayID: 1,
		Nodes: []domain.RenderNode{
			{ID: 1, Hop: 0, Gateway: true, Position: domain.Position{X: 0, Y: 0}},
			{ID: 2, Hop: 1, PDR: 95, Received: 190, Transmitted: 200,
				AvgLatencyMs: 120.5, Position: domain.Position{X: 6.5, Y: 0}},
			{ID: 3, Hop: 1, PDR: 100, PDREstimated: true, Received: 50, Transmitted: 50,
				Position: domain.Position{X: -6.5, Y: 0}},
		},
		Edges: []domain.RenderEdge{
			{From: 2, To: 1, Weight: 190, Primary: true},
			{From: 3, To: 1, Weight: 1, Primary: true, Inferred: true},
		},
		Network: domain.NetworkStat{Received: 240, Transmitted: 250, Estimated: true},
	}
}

func TestRepository_SaveAndGetRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	model := sampleModel()
	runID, err := repo.SaveRun(ctx, "events.csv", model)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a non-empty run id")
	}

	got, err := repo.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !reflect.DeepEqual(model, got) {
		t.Errorf("model changed across archive round trip:\nsaved:  %+v\nloaded: %+v", model, got)
	}
}

func TestRepository_GetRun_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetRun(context.Background(), "no-such-run"); err == nil {
		t.Error("expected an error for an unknown run id")
	}
}

func TestRepository_LatestRunID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LatestRunID(ctx); err == nil {
		t.Error("expected an error with no runs archived")
	}

	if _, err := repo.SaveRun(ctx, "first.csv", sampleModel()); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := repo.SaveRun(ctx, "second.csv", sampleModel())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	latest, err := repo.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	// Both runs may share a timestamp; the id tie-break still has to
	// return one of the archived runs, and a later save never loses to
	// an earlier one on time alone.
	if latest != second {
		runs, _ := repo.ListRuns(ctx)
		found := false
		for _, r := range runs {
			if r.ID == latest {
				found = true
			}
		}
		if !found {
			t.Errorf("latest run %s is not an archived run", latest)
		}
	}
}

func TestRepository_ListRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, source := range []string{"a.csv", "b.csv"} {
		if _, err := repo.SaveRun(ctx, source, sampleModel()); err != nil {
			t.Fatalf("SaveRun(%s): %v", source, err)
		}
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.ID == "" || r.Topology != string(domain.ClassStar) {
			t.Errorf("unexpected run info: %+v", r)
		}
	}
}
