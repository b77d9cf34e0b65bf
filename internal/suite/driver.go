package suite

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xkilldash9x/agenda-bdd/internal/agenda"
	"github.com/xkilldash9x/agenda-bdd/internal/browser"
	"github.com/xkilldash9x/agenda-bdd/internal/browser/static"
	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

// Driver opens agenda page objects for scenarios.
type Driver interface {
	// NewPage opens a page for one scenario. release frees whatever the page
	// holds (a browser tab, for instance) once the scenario is over.
	NewPage(ctx context.Context) (page agenda.Page, release func(context.Context) error, err error)
	// Close releases the driver itself.
	Close(ctx context.Context) error
}

// NewDriver builds the driver selected by agenda.driver.
func NewDriver(cfg config.Interface, logger *zap.Logger) (Driver, error) {
	switch cfg.Agenda().Driver {
	case config.DriverChromedp:
		return &chromedpDriver{
			manager: browser.NewManager(cfg.Browser(), logger),
			cfg:     cfg.Agenda(),
		}, nil
	case config.DriverStatic:
		return &staticDriver{
			cfg:    cfg.Agenda(),
			client: static.NewClient(cfg.Agenda(), cfg.Browser().IgnoreTLSErrors),
			logger: logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown agenda driver %q", cfg.Agenda().Driver)
	}
}

// chromedpDriver gives every scenario its own browser tab.
type chromedpDriver struct {
	manager *browser.Manager
	cfg     config.AgendaConfig
}

func (d *chromedpDriver) NewPage(ctx context.Context) (agenda.Page, func(context.Context) error, error) {
	session, err := d.manager.NewSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	page, err := browser.NewAgendaPage(session, d.cfg)
	if err != nil {
		_ = session.Close(ctx)
		return nil, nil, err
	}
	return page, session.Close, nil
}

func (d *chromedpDriver) Close(ctx context.Context) error {
	return d.manager.Shutdown(ctx)
}

// staticDriver shares one HTTP client between scenarios.
type staticDriver struct {
	cfg    config.AgendaConfig
	client *http.Client
	logger *zap.Logger
}

func (d *staticDriver) NewPage(ctx context.Context) (agenda.Page, func(context.Context) error, error) {
	page, err := static.NewPage(d.cfg, d.client, d.logger)
	if err != nil {
		return nil, nil, err
	}
	return page, func(context.Context) error { return nil }, nil
}

func (d *staticDriver) Close(context.Context) error {
	d.client.CloseIdleConnections()
	return nil
}
