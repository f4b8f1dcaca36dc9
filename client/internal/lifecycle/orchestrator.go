// Package lifecycle drives a food-log entry from photo to stored analysis.
// It is the only layer that decides how a failure is shown: blocking
// failures go to the Notifier, analysis failures stay on the entry.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
	clienterrors "github.com/bitelog/bitelog/client/internal/errors"
	"github.com/bitelog/bitelog/client/internal/gateway"
	"github.com/bitelog/bitelog/client/internal/imaging"
	"github.com/bitelog/bitelog/client/internal/shardqueue"
)

// DefaultAnalysisTimeout bounds one inference call.
const DefaultAnalysisTimeout = 60 * time.Second

// Gateway is the persistence service as the orchestrator uses it.
type Gateway interface {
	CreateEntry(ctx context.Context, userID string, in gateway.CreateEntryInput) gateway.Result[gateway.Entry]
	UpdateEntryAnalysis(ctx context.Context, userID, entryID string, a *analysis.Result) gateway.Result[gateway.Entry]
	DeleteEntry(ctx context.Context, userID, entryID string) gateway.Result[string]
	ListEntries(ctx context.Context, userID string, date *time.Time) gateway.Result[[]gateway.Entry]
	GetSettings(ctx context.Context, userID string) gateway.Result[gateway.Settings]
	UpdateSettings(ctx context.Context, userID string, calorieGoal int) gateway.Result[gateway.Settings]
}

// Analyzer estimates nutrition for an encoded photo.
type Analyzer interface {
	Analyze(ctx context.Context, encodedImage string, declaredWeight *float64) (*analysis.Result, error)
}

// Executor runs analysis jobs, one key per entry.
type Executor interface {
	Submit(ctx context.Context, key string, job shardqueue.Job) error
	Barrier(ctx context.Context, key string) error
	Stop()
}

// Deps are the collaborators of an Orchestrator. Gateway and Analyzer are
// required.
type Deps struct {
	Gateway  Gateway
	Analyzer Analyzer

	// Store defaults to an empty store.
	Store *entrystore.Store
	// Executor defaults to a shardqueue executor configured from the
	// environment.
	Executor Executor
	// Compress defaults to imaging.Compress.
	Compress func([]byte) (string, error)

	Notifier Notifier
	Observer Observer

	Now             func() time.Time
	Location        *time.Location
	AnalysisTimeout time.Duration
	CalorieGoal     int
}

// Orchestrator owns the entry lifecycle for one identity.
type Orchestrator struct {
	userID   string
	gw       Gateway
	analyzer Analyzer
	store    *entrystore.Store
	exec     Executor
	compress func([]byte) (string, error)
	notifier Notifier
	observer Observer
	now      func() time.Time
	loc      *time.Location
	timeout  time.Duration

	mu         sync.Mutex
	activeDate time.Time
	goal       int
	inflight   map[string]struct{}

	closeOnce sync.Once
}

// New builds an Orchestrator acting as userID.
func New(userID string, d Deps) (*Orchestrator, error) {
	if userID == "" {
		return nil, errors.New("lifecycle: user id is required")
	}
	if d.Gateway == nil || d.Analyzer == nil {
		return nil, errors.New("lifecycle: gateway and analyzer are required")
	}
	o := &Orchestrator{
		userID:   userID,
		gw:       d.Gateway,
		analyzer: d.Analyzer,
		store:    d.Store,
		exec:     d.Executor,
		compress: d.Compress,
		notifier: d.Notifier,
		observer: d.Observer,
		now:      d.Now,
		loc:      d.Location,
		timeout:  d.AnalysisTimeout,
		goal:     d.CalorieGoal,
		inflight: make(map[string]struct{}),
	}
	if o.store == nil {
		o.store = entrystore.New()
	}
	if o.compress == nil {
		o.compress = imaging.Compress
	}
	if o.notifier == nil {
		o.notifier = nopNotifier{}
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.loc == nil {
		o.loc = time.Local
	}
	if o.timeout <= 0 {
		o.timeout = DefaultAnalysisTimeout
	}
	if o.goal <= 0 {
		o.goal = 2200
	}
	if o.exec == nil {
		cfg, err := shardqueue.LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg.ErrorHandler = logJobError
		o.exec = shardqueue.NewShardExecutor(cfg)
	}
	o.activeDate = entrystore.StartOfDay(o.now().In(o.loc))
	return o, nil
}

func logJobError(key string, err error) {
	log.Debug().Str("entry_id", key).Err(err).Msg("analysis job finished with error")
}

// UserID is the identity every gateway call is made as.
func (o *Orchestrator) UserID() string { return o.userID }

// Store exposes the entry store for read access.
func (o *Orchestrator) Store() *entrystore.Store { return o.store }

// Capture runs the pipeline for one photo and returns the new entry's ID as
// soon as the pending entry is visible. Analysis continues in the
// background; use Await to wait for it.
func (o *Orchestrator) Capture(ctx context.Context, image []byte, answer WeightAnswer) (string, error) {
	weight, err := answer.weight()
	if err != nil {
		if errors.Is(err, ErrInvalidWeight) {
			o.notifier.Alert(MsgInvalidWeight)
		}
		capturesTotal.WithLabelValues(outcomeOf(err)).Inc()
		return "", err
	}
	o.observe("", PhaseCaptured, nil)

	encoded, err := o.compress(image)
	if err != nil {
		o.notifier.Alert(MsgCompressFailed)
		capturesTotal.WithLabelValues("decode_error").Inc()
		return "", err
	}

	o.observe("", PhasePersistingPlaceholder, nil)
	now := o.now()
	ts := now.UnixMilli()
	res := o.gw.CreateEntry(ctx, o.userID, gateway.CreateEntryInput{
		Timestamp:          ts,
		ImageURL:           &encoded,
		UserProvidedWeight: weight,
	})
	if !res.Success {
		perr := persistenceError("create entry", res)
		log.Warn().Int("status", res.StatusCode).Str("error", res.Error).Msg("placeholder not stored")
		o.notifier.Alert(MsgCreateFailed)
		o.observe("", PhaseFailed, perr)
		capturesTotal.WithLabelValues("persist_error").Inc()
		return "", perr
	}

	id := res.Data.ID
	o.store.Insert(entrystore.Entry{
		ID:                 id,
		Timestamp:          ts,
		ImageURL:           &encoded,
		UserProvidedWeight: weight,
		State:              entrystore.Pending{},
	})
	o.SetActiveDate(now)
	capturesTotal.WithLabelValues("accepted").Inc()

	o.mu.Lock()
	o.inflight[id] = struct{}{}
	o.mu.Unlock()
	pendingEntries.Inc()
	o.observe(id, PhaseAnalyzing, nil)

	job := shardqueue.JobFunc(func(jctx context.Context) error {
		return o.analyze(jctx, id, encoded, weight)
	})
	if err := o.exec.Submit(context.WithoutCancel(ctx), id, job); err != nil {
		log.Warn().Str("entry_id", id).Err(err).Msg("analysis not scheduled")
		o.finish(id)
		o.settle(id, entrystore.Failed{Reason: MsgAnalysisFailed}, err)
	}
	return id, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrCaptureCancelled):
		return "cancelled"
	case errors.Is(err, ErrInvalidWeight):
		return "invalid_weight"
	default:
		return "error"
	}
}

// analyze is the background half of Capture. Errors are marked
// irrecoverable so the executor never repeats a call.
func (o *Orchestrator) analyze(ctx context.Context, id, encoded string, weight *float64) error {
	defer o.finish(id)

	actx, cancel := context.WithTimeout(ctx, o.timeout)
	start := time.Now()
	result, err := o.analyzer.Analyze(actx, encoded, weight)
	cancel()
	analysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		analysisTotal.WithLabelValues("inference_error").Inc()
		o.settle(id, entrystore.Failed{Reason: MsgAnalysisFailed}, err)
		return clienterrors.MarkIrrecoverable(err)
	}

	res := o.gw.UpdateEntryAnalysis(ctx, o.userID, id, result)
	if !res.Success {
		perr := persistenceError("update entry analysis", res)
		analysisTotal.WithLabelValues("persist_error").Inc()
		o.settle(id, entrystore.Failed{Reason: MsgPersistFailed}, perr)
		return clienterrors.MarkIrrecoverable(perr)
	}
	analysisTotal.WithLabelValues("ok").Inc()
	o.settle(id, entrystore.Ready{Analysis: result}, nil)
	return nil
}

func (o *Orchestrator) finish(id string) {
	o.mu.Lock()
	delete(o.inflight, id)
	o.mu.Unlock()
	pendingEntries.Dec()
}

// settle patches the terminal state. An entry removed in the meantime stays
// removed. o.mu orders it against Load's replace.
func (o *Orchestrator) settle(id string, st entrystore.State, cause error) {
	o.mu.Lock()
	ok := o.store.SetState(id, st)
	o.mu.Unlock()
	if !ok {
		log.Debug().Str("entry_id", id).Msg("late completion for removed entry ignored")
		return
	}
	if _, failed := st.(entrystore.Failed); failed {
		o.observe(id, PhaseFailed, cause)
		return
	}
	o.observe(id, PhaseReconciled, nil)
}

func (o *Orchestrator) observe(id string, p Phase, err error) {
	o.observer.Observe(Transition{EntryID: id, Phase: p, Err: err})
}

// Await blocks until every job scheduled for the entry so far has finished.
func (o *Orchestrator) Await(ctx context.Context, id string) error {
	return o.exec.Barrier(ctx, id)
}

// Close drains outstanding analysis jobs and stops the executor.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(o.exec.Stop)
	return nil
}

// Load replaces the store with the service's entries for date and makes it
// the active date. Rows without analysis show as failed unless their
// analysis is still running in this session or already settled locally.
func (o *Orchestrator) Load(ctx context.Context, date time.Time) error {
	day := date.In(o.loc)
	res := o.gw.ListEntries(ctx, o.userID, &day)
	if !res.Success {
		return persistenceError("list entries", res)
	}

	o.mu.Lock()
	entries := make([]entrystore.Entry, 0, len(res.Data))
	for _, row := range res.Data {
		entries = append(entries, o.fromRow(row))
	}
	o.store.Replace(entries)
	o.mu.Unlock()

	o.SetActiveDate(day)
	return nil
}

// Restore replaces the store with entries from a local snapshot. Entries
// saved while loading are failed unless their analysis is still running here.
func (o *Orchestrator) Restore(entries []entrystore.Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range entries {
		if _, pending := entries[i].State.(entrystore.Pending); !pending {
			continue
		}
		if _, running := o.inflight[entries[i].ID]; !running {
			entries[i].State = entrystore.Failed{Reason: MsgAnalysisFailed}
		}
	}
	o.store.Replace(entries)
}

// fromRow requires o.mu.
func (o *Orchestrator) fromRow(row gateway.Entry) entrystore.Entry {
	e := entrystore.Entry{
		ID:                 row.ID,
		Timestamp:          row.Timestamp,
		ImageURL:           row.ImageURL,
		UserProvidedWeight: row.UserProvidedWeight,
	}
	_, running := o.inflight[row.ID]
	local, known := o.store.Get(row.ID)
	_, localPending := local.State.(entrystore.Pending)
	switch {
	case row.AnalysisData != nil:
		e.State = entrystore.Ready{Analysis: row.AnalysisData}
	case known && local.State != nil && !localPending:
		// Listed before this session's job settled; the local outcome is newer.
		e.State = local.State
	case running:
		e.State = entrystore.Pending{}
	default:
		e.State = entrystore.Failed{Reason: MsgAnalysisFailed}
	}
	return e
}

// SetActiveDate selects the day Entries and Summary report on.
func (o *Orchestrator) SetActiveDate(day time.Time) {
	o.mu.Lock()
	o.activeDate = entrystore.StartOfDay(day.In(o.loc))
	o.mu.Unlock()
}

// ActiveDate returns local midnight of the selected day.
func (o *Orchestrator) ActiveDate() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeDate
}

// Entries returns the active day's entries, newest first.
func (o *Orchestrator) Entries() []entrystore.Entry {
	return o.store.ForDay(o.ActiveDate())
}
