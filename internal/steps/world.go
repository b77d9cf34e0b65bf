// Package steps binds the natural-language agenda phrases to page-object
// actions and exposes the explicit phrase to handler registry used by the
// suite runner.
package steps

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
)

// PageFactory constructs an agenda page object for the current scenario.
type PageFactory func(ctx context.Context) (agenda.Page, error)

// World is the per-scenario test context handed to step handlers.
type World struct {
	Scenario string

	pages  PageFactory
	base   *zap.Logger
	logger *zap.Logger
}

// NewWorld creates a World around a page factory.
func NewWorld(scenario string, pages PageFactory, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &World{pages: pages, base: logger}
	w.Begin(scenario)
	return w
}

// Begin names the scenario the World is about to run.
func (w *World) Begin(scenario string) {
	w.Scenario = scenario
	w.logger = w.base.With(zap.String("scenario", scenario))
}

// AgendaPage asks the factory for the scenario's agenda page object. Whether
// that is a new page or the one opened earlier in the scenario is up to the
// factory; steps call Visit first either way.
func (w *World) AgendaPage(ctx context.Context) (agenda.Page, error) {
	if w.pages == nil {
		return nil, fmt.Errorf("no agenda page driver configured for scenario %q", w.Scenario)
	}
	return w.pages(ctx)
}

// Logger returns the scenario logger.
func (w *World) Logger() *zap.Logger { return w.logger }
