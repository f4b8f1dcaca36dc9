package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
	"github.com/bitelog/bitelog/client/internal/gateway"
	"github.com/bitelog/bitelog/client/internal/shardqueue"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu   sync.Mutex
	seq  int
	rows map[string]gateway.Entry
	goal int

	failCreate   bool
	failUpdate   bool
	failDelete   bool
	failSettings bool

	// afterList runs once the list result is fixed, before it is returned.
	afterList func()

	creates []gateway.CreateEntryInput
	updates int
	deletes int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{rows: map[string]gateway.Entry{}, goal: 2200}
}

func failure[T any](status int, msg string) gateway.Result[T] {
	return gateway.Result[T]{StatusCode: status, Error: msg}
}

func success[T any](status int, v T) gateway.Result[T] {
	return gateway.Result[T]{Success: true, StatusCode: status, Data: v}
}

func (g *fakeGateway) CreateEntry(_ context.Context, userID string, in gateway.CreateEntryInput) gateway.Result[gateway.Entry] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates = append(g.creates, in)
	if g.failCreate {
		return failure[gateway.Entry](500, "Internal server error")
	}
	g.seq++
	e := gateway.Entry{
		ID:                 fmt.Sprintf("entry-%d", g.seq),
		UserID:             userID,
		Timestamp:          in.Timestamp,
		ImageURL:           in.ImageURL,
		AnalysisData:       in.Analysis.Clone(),
		UserProvidedWeight: in.UserProvidedWeight,
		CreatedAt:          testNow,
	}
	g.rows[e.ID] = e
	return success(201, e)
}

func (g *fakeGateway) UpdateEntryAnalysis(_ context.Context, userID, entryID string, a *analysis.Result) gateway.Result[gateway.Entry] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
	if g.failUpdate {
		return failure[gateway.Entry](500, "Internal server error")
	}
	e, ok := g.rows[entryID]
	if !ok || e.UserID != userID {
		return failure[gateway.Entry](404, "Entry not found")
	}
	e.AnalysisData = a.Clone()
	g.rows[entryID] = e
	return success(200, e)
}

func (g *fakeGateway) DeleteEntry(_ context.Context, userID, entryID string) gateway.Result[string] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes++
	if g.failDelete {
		return failure[string](500, "Internal server error")
	}
	e, ok := g.rows[entryID]
	if !ok || e.UserID != userID {
		return failure[string](404, "Entry not found")
	}
	delete(g.rows, entryID)
	return success(200, "Entry deleted successfully")
}

func (g *fakeGateway) ListEntries(_ context.Context, userID string, date *time.Time) gateway.Result[[]gateway.Entry] {
	out := g.list(userID, date)
	g.mu.Lock()
	hook := g.afterList
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return success(200, out)
}

func (g *fakeGateway) list(userID string, date *time.Time) []gateway.Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []gateway.Entry{}
	for _, e := range g.rows {
		if e.UserID != userID {
			continue
		}
		if date != nil {
			start, end := entrystore.DayBounds(*date)
			if e.Timestamp < start || e.Timestamp > end {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

func (g *fakeGateway) GetSettings(_ context.Context, userID string) gateway.Result[gateway.Settings] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSettings {
		return failure[gateway.Settings](500, "Internal server error")
	}
	return success(200, gateway.Settings{UserID: userID, CalorieGoal: g.goal})
}

func (g *fakeGateway) UpdateSettings(_ context.Context, userID string, goal int) gateway.Result[gateway.Settings] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSettings {
		return failure[gateway.Settings](500, "Internal server error")
	}
	g.goal = goal
	return success(200, gateway.Settings{UserID: userID, CalorieGoal: goal})
}

func (g *fakeGateway) row(id string) (gateway.Entry, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.rows[id]
	return e, ok
}

type analyzeCall struct {
	image  string
	weight *float64
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []analyzeCall
	fn    func(ctx context.Context, image string) (*analysis.Result, error)
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, image string, weight *float64) (*analysis.Result, error) {
	a.mu.Lock()
	a.calls = append(a.calls, analyzeCall{image: image, weight: weight})
	fn := a.fn
	a.mu.Unlock()
	if fn == nil {
		return food("კერძი", 500), nil
	}
	return fn(ctx, image)
}

func (a *fakeAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Alert(m string) {
	a.mu.Lock()
	a.msgs = append(a.msgs, m)
	a.mu.Unlock()
}

func (a *alerts) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.msgs...)
}

type phases struct {
	mu  sync.Mutex
	log []Transition
}

func (p *phases) Observe(t Transition) {
	p.mu.Lock()
	p.log = append(p.log, t)
	p.mu.Unlock()
}

func (p *phases) of(id string) []Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Phase
	for _, t := range p.log {
		if t.EntryID == id {
			out = append(out, t.Phase)
		}
	}
	return out
}

func food(summary string, kcal float64) *analysis.Result {
	return &analysis.Result{
		IsFood:          true,
		ConfidenceScore: 0.9,
		Summary:         summary,
		FoodItems: []analysis.FoodItem{
			{Name: summary, Portion: "1 ულუფა", Macros: analysis.Macros{Calories: kcal, Protein: 10, Carbs: 20, Fat: 5}},
		},
		TotalMacros: analysis.Macros{Calories: kcal, Protein: 10, Carbs: 20, Fat: 5},
	}
}

// passthrough stands in for the image preprocessor.
func passthrough(b []byte) (string, error) { return "data:image/jpeg;base64," + string(b), nil }

type harness struct {
	o      *Orchestrator
	gw     *fakeGateway
	an     *fakeAnalyzer
	alerts *alerts
	phases *phases
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{gw: newFakeGateway(), an: &fakeAnalyzer{}, alerts: &alerts{}, phases: &phases{}}
	o, err := New("user-1", Deps{
		Gateway:  h.gw,
		Analyzer: h.an,
		Executor: shardqueue.NewShardExecutor(shardqueue.Config{Shards: 4, QueueSize: 16}),
		Compress: passthrough,
		Notifier: h.alerts,
		Observer: h.phases,
		Now:      func() time.Time { return testNow },
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	h.o = o
	return h
}

func (h *harness) capture(t *testing.T, image string, answer WeightAnswer) string {
	t.Helper()
	id, err := h.o.Capture(context.Background(), []byte(image), answer)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	return id
}

func (h *harness) await(t *testing.T, id string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.o.Await(ctx, id); err != nil {
		t.Fatalf("Await: %v", err)
	}
}

func (h *harness) entry(t *testing.T, id string) entrystore.Entry {
	t.Helper()
	e, ok := h.o.Store().Get(id)
	if !ok {
		t.Fatalf("entry %s missing", id)
	}
	return e
}

func gatewayInput(at time.Time, a *analysis.Result) gateway.CreateEntryInput {
	return gateway.CreateEntryInput{Timestamp: at.UnixMilli(), Analysis: a}
}
