package build

import (
	"context"
	"errors"
	"sync"
	"testing"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// fakeStore is an in-memory Store keyed on edge natural identity, with
// optional permanent failure injection per edge type.
type fakeStore struct {
	mu        sync.Mutex
	ds        *model.Dataset
	edges     map[string]model.Edge
	features  map[string]bool
	types     map[model.PropertyType]bool
	bands     map[string]bool
	failTypes map[model.EdgeType]bool
	writes    int
}

func newFakeStore(ds *model.Dataset) *fakeStore {
	return &fakeStore{
		ds:        ds,
		edges:     make(map[string]model.Edge),
		features:  make(map[string]bool),
		types:     make(map[model.PropertyType]bool),
		bands:     make(map[string]bool),
		failTypes: make(map[model.EdgeType]bool),
	}
}

func (s *fakeStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *fakeStore) LoadDataset(ctx context.Context) (*model.Dataset, error) { return s.ds, nil }

func (s *fakeStore) UpsertFeatures(ctx context.Context, names []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, n := range names {
		if !s.features[n] {
			s.features[n] = true
			created++
		}
	}
	return created, nil
}

func (s *fakeStore) UpsertPropertyTypes(ctx context.Context, types []model.PropertyType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, t := range types {
		if !s.types[t] {
			s.types[t] = true
			created++
		}
	}
	return created, nil
}

func (s *fakeStore) UpsertPriceBands(ctx context.Context, bands []model.PriceBand) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, b := range bands {
		if !s.bands[b.ID] {
			s.bands[b.ID] = true
			created++
		}
	}
	return created, nil
}

func (s *fakeStore) UpsertEdges(ctx context.Context, edges []model.Edge) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for _, e := range edges {
		if s.failTypes[e.Type] {
			return 0, errors.New("injected write failure")
		}
	}
	created := 0
	for _, e := range edges {
		key := e.SourceID + "|" + string(e.Type) + "|" + e.TargetID
		if _, ok := s.edges[key]; !ok {
			created++
		}
		s.edges[key] = e
	}
	return created, nil
}

func (s *fakeStore) OutboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Edge
	for _, e := range s.edges {
		if e.SourceID == nodeID && (edgeType == "" || e.Type == edgeType) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) InboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Edge
	for _, e := range s.edges {
		if e.TargetID == nodeID && (edgeType == "" || e.Type == edgeType) {
			out = append(out, e)
		}
	}
	return out, nil
}

func buildDataset() *model.Dataset {
	return &model.Dataset{
		Properties: []model.Property{
			{ID: "p1", City: "Springfield", Neighborhood: strptr("n1"), Price: f(500000), Bedrooms: 3,
				SquareFeet: f(1800), PropertyType: "house", Features: []string{"Pool", "garage"}},
			{ID: "p2", City: "Springfield", Neighborhood: strptr("n1"), Price: f(520000), Bedrooms: 3,
				SquareFeet: f(1850), PropertyType: "house", Features: []string{"pool"}},
			{ID: "p3", City: "Shelbyville", Price: f(515000), Bedrooms: 3,
				SquareFeet: f(1820), PropertyType: "yurt"},
		},
		Neighborhoods: []model.Neighborhood{
			{ID: "n1", Name: "Downtown", City: "Springfield"},
			{ID: "n2", Name: "Riverside", City: "Springfield"},
		},
		Cities:   []model.City{{ID: "c1", Name: "Springfield"}, {ID: "c2", Name: "Shelbyville"}},
		Articles: []model.Article{{ID: "a1", Title: "Downtown revival", City: strptr("Springfield")}},
	}
}

func phaseByName(t *testing.T, report *RunReport, name string) PhaseReport {
	t.Helper()
	for _, p := range report.Phases {
		if p.Phase == name {
			return p
		}
	}
	t.Fatalf("report has no phase %q", name)
	return PhaseReport{}
}

func TestOrchestrator_RunsAllPhasesInOrder(t *testing.T) {
	store := newFakeStore(buildDataset())
	report, err := NewOrchestrator(config.Default(), store, logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"hierarchy", "classification", "proximity", "similarity", "knowledge"}
	if len(report.Phases) != len(wantOrder) {
		t.Fatalf("got %d phases, want %d", len(report.Phases), len(wantOrder))
	}
	for i, name := range wantOrder {
		if report.Phases[i].Phase != name {
			t.Errorf("phase %d = %s, want %s", i, report.Phases[i].Phase, name)
		}
	}

	if p := phaseByName(t, report, "similarity"); p.Created != 2 {
		t.Errorf("similarity created %d edges, want 2 (one symmetric pair)", p.Created)
	}
	if p := phaseByName(t, report, "proximity"); p.Created != 2 {
		t.Errorf("proximity created %d edges, want 2", p.Created)
	}
	// p3 has an unknown property type, so classification is partial.
	if p := phaseByName(t, report, "classification"); p.Status != PhasePartial {
		t.Errorf("classification status = %s, want partial", p.Status)
	}
	if report.RunID == "" {
		t.Error("report must carry a run id")
	}
}

func TestOrchestrator_Idempotent(t *testing.T) {
	store := newFakeStore(buildDataset())
	orch := NewOrchestrator(config.Default(), store, logger.NewNop())

	first, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	for i := range first.Phases {
		f, s := first.Phases[i], second.Phases[i]
		if f.Candidates != s.Candidates {
			t.Errorf("phase %s candidates changed between runs: %d vs %d", f.Phase, f.Candidates, s.Candidates)
		}
		if s.Created != 0 {
			t.Errorf("phase %s created %d edges on re-run, want 0", s.Phase, s.Created)
		}
	}
}

func TestOrchestrator_NoCrossCitySimilarity(t *testing.T) {
	// p1 and p3 are near-identical but in different cities.
	ds := &model.Dataset{
		Properties: []model.Property{
			{ID: "p1", City: "Springfield", Price: f(500000), Bedrooms: 3, SquareFeet: f(1800), PropertyType: "house"},
			{ID: "p3", City: "Shelbyville", Price: f(500000), Bedrooms: 3, SquareFeet: f(1800), PropertyType: "house"},
		},
		Neighborhoods: []model.Neighborhood{{ID: "n1", Name: "Downtown", City: "Springfield"}},
	}
	store := newFakeStore(ds)
	report, err := NewOrchestrator(config.Default(), store, logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p := phaseByName(t, report, "similarity"); p.Candidates != 0 || p.Created != 0 {
		t.Errorf("cross-city pair must never be a candidate: %+v", p)
	}
}

func TestOrchestrator_PhaseFailureIsIsolated(t *testing.T) {
	store := newFakeStore(buildDataset())
	store.failTypes[model.EdgeNear] = true

	report, err := NewOrchestrator(config.Default(), store, logger.NewNop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run itself must not error on a phase failure: %v", err)
	}

	if p := phaseByName(t, report, "proximity"); p.Status != PhaseFailed {
		t.Errorf("proximity status = %s, want failed", p.Status)
	}
	// Earlier phases keep their committed edges, later phases still run.
	if p := phaseByName(t, report, "hierarchy"); p.Status == PhaseFailed {
		t.Error("hierarchy must not be affected by the proximity failure")
	}
	if p := phaseByName(t, report, "similarity"); p.Status == PhaseFailed || p.Created == 0 {
		t.Errorf("similarity must still run after the proximity failure: %+v", p)
	}
	if report.Status != RunFailed {
		t.Errorf("run status = %s, want failed", report.Status)
	}
}

func TestOrchestrator_InvalidConfigIsFatalBeforeWrites(t *testing.T) {
	cfg := config.Default()
	cfg.BatchSize = 0
	store := newFakeStore(buildDataset())

	_, err := NewOrchestrator(cfg, store, logger.NewNop()).Run(context.Background())
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if store.writes != 0 {
		t.Errorf("no write must happen on invalid config, saw %d", store.writes)
	}
}

func TestOrchestrator_EmptyStoreIsFatal(t *testing.T) {
	store := newFakeStore(&model.Dataset{})
	_, err := NewOrchestrator(config.Default(), store, logger.NewNop()).Run(context.Background())
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for an unloaded store, got %v", err)
	}
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newFakeStore(buildDataset())

	report, err := NewOrchestrator(config.Default(), store, logger.NewNop()).Run(ctx)
	if err != nil {
		t.Fatalf("cancellation is reported per phase, not as a run error: %v", err)
	}
	for _, p := range report.Phases {
		if p.Status != PhaseFailed {
			t.Errorf("phase %s status = %s, want failed under cancelled context", p.Phase, p.Status)
		}
	}
}
