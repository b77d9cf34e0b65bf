// Package suite runs the agenda features through godog and records every
// step result.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
	"github.com/xkilldash9x/agenda-bdd/features"
	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
	"github.com/xkilldash9x/agenda-bdd/internal/reporting"
	"github.com/xkilldash9x/agenda-bdd/internal/steps"
)

// ErrSuiteFailed is returned when godog reports a non-zero status.
var ErrSuiteFailed = errors.New("feature suite failed")

const releaseTimeout = 10 * time.Second

// Runner executes feature files against the configured agenda driver.
type Runner struct {
	cfg    config.Interface
	logger *zap.Logger
	runID  string

	driver    Driver
	store     schemas.Store
	output    io.Writer
	features  fs.FS
	recorders []schemas.Recorder
	memory    *MemoryRecorder
}

// Option customizes a Runner.
type Option func(*Runner)

// WithDriver replaces the driver chosen by agenda.driver.
func WithDriver(d Driver) Option { return func(r *Runner) { r.driver = d } }

// WithStore persists the run's results once it completes.
func WithStore(s schemas.Store) Option { return func(r *Runner) { r.store = s } }

// WithOutput sets where the godog formatter writes.
func WithOutput(w io.Writer) Option { return func(r *Runner) { r.output = w } }

// WithFeatures reads features from fsys instead of the bundled set. It is
// ignored when suite.paths is configured.
func WithFeatures(fsys fs.FS) Option { return func(r *Runner) { r.features = fsys } }

// WithRecorder adds a recorder that receives every step result.
func WithRecorder(rec schemas.Recorder) Option {
	return func(r *Runner) { r.recorders = append(r.recorders, rec) }
}

// WithRunID fixes the run identifier.
func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

// NewRunner creates a runner.
func NewRunner(cfg config.Interface, logger *zap.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logger.Named("suite"),
		output:   os.Stdout,
		features: features.FS,
		memory:   NewMemoryRecorder(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.recorders = append([]schemas.Recorder{r.memory, NewLogRecorder(r.logger)}, r.recorders...)
	return r
}

// RunID returns the identifier stamped on every result of this run.
func (r *Runner) RunID() string { return r.runID }

// Run executes the feature suite. The summary is returned even when the suite
// fails; the error then wraps ErrSuiteFailed.
func (r *Runner) Run(ctx context.Context) (*schemas.RunSummary, error) {
	started := time.Now()
	suiteCfg := r.cfg.Suite()

	driver, err := r.openDriver()
	if err != nil {
		return nil, err
	}
	defer r.closeDriver(driver)

	opts := &godog.Options{
		Format:         suiteCfg.Format,
		Output:         r.output,
		Tags:           suiteCfg.Tags,
		Concurrency:    suiteCfg.Concurrency,
		Strict:         suiteCfg.Strict,
		StopOnFailure:  suiteCfg.StopOnFailure,
		Randomize:      suiteCfg.Randomize,
		DefaultContext: ctx,
	}
	if len(suiteCfg.Paths) > 0 {
		opts.Paths = suiteCfg.Paths
	} else {
		opts.FS = r.features
		opts.Paths = []string{"."}
	}

	r.logger.Info("Running feature suite.",
		zap.String("run_id", r.runID),
		zap.String("driver", r.cfg.Agenda().Driver),
		zap.String("base_url", r.cfg.Agenda().BaseURL),
		zap.Strings("paths", opts.Paths),
		zap.String("tags", opts.Tags))

	status := godog.TestSuite{
		Name:                suiteCfg.Name,
		ScenarioInitializer: r.scenarioInitializer(driver),
		Options:             opts,
	}.Run()

	return r.finish(ctx, started, status)
}

// RunSteps dispatches step texts in order against a single page, outside of
// godog. Steps after the first one that does not pass are recorded as skipped.
func (r *Runner) RunSteps(ctx context.Context, texts []string) (*schemas.RunSummary, error) {
	started := time.Now()

	driver, err := r.openDriver()
	if err != nil {
		return nil, err
	}
	defer r.closeDriver(driver)

	sc := newScenario(r, driver, "ad hoc steps", "cli")
	reg := steps.NewRegistry()
	if err := steps.RegisterAgendaSteps(reg, sc.world); err != nil {
		return nil, err
	}
	defer sc.release()

	var failed error
	for _, text := range texts {
		if failed != nil {
			sc.record(ctx, text, schemas.OutcomeSkipped, nil, 0)
			continue
		}
		begin := time.Now()
		next, stepErr := reg.Dispatch(ctx, text)
		if next != nil {
			ctx = next
		}
		outcome := steps.Classify(stepErr)
		sc.record(ctx, text, outcome, stepErr, time.Since(begin))
		if !outcome.Succeeded() {
			failed = stepErr
		}
	}

	status := 0
	if failed != nil {
		status = 1
	}
	return r.finish(ctx, started, status)
}

func (r *Runner) openDriver() (Driver, error) {
	if r.driver != nil {
		return r.driver, nil
	}
	return NewDriver(r.cfg, r.logger)
}

func (r *Runner) closeDriver(d Driver) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		r.logger.Warn("Failed to close agenda driver.", zap.Error(err))
	}
}

// finish summarizes the run and hands the results to the store.
func (r *Runner) finish(ctx context.Context, started time.Time, status int) (*schemas.RunSummary, error) {
	results := r.memory.Results()
	summary := reporting.Summarize(r.runID, results)
	summary.StartedAt = started
	summary.Duration = time.Since(started)

	if r.store != nil {
		if err := r.store.SaveResults(context.WithoutCancel(ctx), results); err != nil {
			return summary, fmt.Errorf("failed to persist results of run %s: %w", r.runID, err)
		}
		r.logger.Info("Results persisted.", zap.String("run_id", r.runID), zap.Int("steps", len(results)))
	}

	r.logger.Info("Feature suite finished.",
		zap.String("run_id", r.runID),
		zap.Int("status", status),
		zap.String("summary", reporting.FormatSummary(summary)))

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrSuiteFailed, err)
	}
	if status != 0 {
		return summary, fmt.Errorf("%w: godog exited with status %d", ErrSuiteFailed, status)
	}
	return summary, nil
}

// scenarioInitializer wires a fresh World, the step definitions and the
// recording hooks into every scenario.
func (r *Runner) scenarioInitializer(driver Driver) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		sc := newScenario(r, driver, "", "")
		reg := steps.NewRegistry()
		if err := steps.RegisterAgendaSteps(reg, sc.world); err != nil {
			// Registration is static; failing here is a programming error.
			panic(err)
		}
		reg.Bind(ctx)

		ctx.Before(func(c context.Context, s *godog.Scenario) (context.Context, error) {
			sc.begin(s.Name, s.Uri)
			return c, nil
		})
		ctx.After(func(c context.Context, s *godog.Scenario, err error) (context.Context, error) {
			sc.release()
			return c, nil
		})

		ctx.StepContext().Before(func(c context.Context, st *godog.Step) (context.Context, error) {
			sc.stepStarted(st.Id)
			return c, nil
		})
		ctx.StepContext().After(func(c context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
			sc.record(c, st.Text, steps.ClassifyStatus(status, err), err, sc.stepDuration(st.Id))
			return c, nil
		})
	}
}

// scenario is the per-scenario state: the World, the lazily opened page and
// step timings.
type scenario struct {
	runner  *Runner
	driver  Driver
	world   *steps.World
	feature string

	mu          sync.Mutex
	page        agenda.Page
	releasePage func(context.Context) error
	starts      map[string]time.Time
}

func newScenario(r *Runner, driver Driver, name, feature string) *scenario {
	sc := &scenario{
		runner:  r,
		driver:  driver,
		feature: feature,
		starts:  make(map[string]time.Time),
	}
	sc.world = steps.NewWorld(name, sc.agendaPage, r.logger)
	return sc
}

func (sc *scenario) begin(name, feature string) {
	sc.world.Begin(name)
	sc.feature = feature
}

// agendaPage opens the scenario's page on first use and reuses it afterwards.
func (sc *scenario) agendaPage(ctx context.Context) (agenda.Page, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.page != nil {
		return sc.page, nil
	}
	page, release, err := sc.driver.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	sc.page, sc.releasePage = page, release
	return page, nil
}

// release frees the scenario's page, if one was opened.
func (sc *scenario) release() {
	sc.mu.Lock()
	release := sc.releasePage
	sc.page, sc.releasePage = nil, nil
	sc.mu.Unlock()
	if release == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := release(ctx); err != nil {
		sc.world.Logger().Warn("Failed to release agenda page.", zap.Error(err))
	}
}

func (sc *scenario) stepStarted(id string) {
	sc.mu.Lock()
	sc.starts[id] = time.Now()
	sc.mu.Unlock()
}

func (sc *scenario) stepDuration(id string) time.Duration {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	start, ok := sc.starts[id]
	if !ok {
		return 0
	}
	delete(sc.starts, id)
	return time.Since(start)
}

func (sc *scenario) record(ctx context.Context, text string, outcome schemas.Outcome, err error, d time.Duration) {
	result := schemas.StepResult{
		ID:         uuid.NewString(),
		RunID:      sc.runner.runID,
		Feature:    sc.feature,
		Scenario:   sc.world.Scenario,
		Step:       text,
		Outcome:    outcome,
		Duration:   d,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil && outcome != schemas.OutcomeSkipped {
		result.Error = err.Error()
	}
	for _, rec := range sc.runner.recorders {
		if recErr := rec.Record(ctx, result); recErr != nil {
			sc.world.Logger().Warn("Failed to record step result.", zap.Error(recErr))
		}
	}
}
