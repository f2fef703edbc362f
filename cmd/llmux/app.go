package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/llmux/pkg/automation"
	"github.com/entrhq/llmux/pkg/config"
	"github.com/entrhq/llmux/pkg/executor/tui"
	"github.com/entrhq/llmux/pkg/logging"
	"github.com/entrhq/llmux/pkg/persist"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/session"
	"github.com/entrhq/llmux/pkg/session/browser"
	"github.com/entrhq/llmux/pkg/session/cdp"
	"github.com/entrhq/llmux/pkg/tabs"
	"github.com/entrhq/llmux/pkg/title"
)

// app is everything a browsing command needs, wired from the config.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	reg     *platform.Registry
	gateway persist.Gateway
	factory session.Factory
	store   *tabs.Store
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.driver != "" {
		cfg.Driver = flags.driver
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = flags.headless
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// openApp starts the browser driver and builds the tab store. The store is
// empty; callers restore or create tabs.
func openApp(cfg *config.Config, flags *globalFlags) (_ *app, err error) {
	logging.Configure(cfg.LogDir(), cfg.LogLevel())
	a := &app{
		cfg: cfg,
		log: logging.MustLogger("llmux"),
		reg: platform.DefaultRegistry(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()
	a.log.Infof("starting llmux v%s (driver=%s, state=%s)", version, cfg.Driver, cfg.StatePath())

	a.gateway, err = persist.Open(cfg.State.Backend, cfg.StatePath())
	if err != nil {
		return nil, err
	}

	a.factory, err = newFactory(cfg, flags, a.log)
	if err != nil {
		return nil, err
	}

	scripts, err := automation.NewGenerator(automation.DefaultPlans(), cfg.Timing.SettleDelay)
	if err != nil {
		return nil, err
	}

	a.store, err = tabs.New(tabs.Options{
		Registry:      a.reg,
		Factory:       a.factory,
		Scripts:       scripts,
		Gateway:       a.gateway,
		Cleaner:       title.NewCleaner(a.reg.TitleDecorations()...),
		Logger:        a.log.With("tabs"),
		TitleDebounce: cfg.Timing.TitleDebounce,
		StatusGrace:   cfg.Timing.StatusGrace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tab store: %w", err)
	}
	return a, nil
}

func newFactory(cfg *config.Config, flags *globalFlags, log *logging.Logger) (session.Factory, error) {
	switch cfg.Driver {
	case config.DriverCDP:
		return cdp.New(cdp.Options{
			DataDir:   cfg.DataDir,
			UserAgent: cfg.UserAgent,
			Headless:  cfg.Headless,
			ExecPath:  cfg.ChromePath,
			Logger:    log.With("cdp"),
		}), nil
	default:
		m := browser.NewManager(browser.Options{
			DataDir:     cfg.DataDir,
			UserAgent:   cfg.UserAgent,
			Headless:    cfg.Headless,
			SkipInstall: flags.skipInstall,
			Logger:      log.With("playwright"),
		})
		if err := m.Initialize(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Close shuts down the store, the browsers and the state backend, in that
// order, so the last checkpoint lands before the backend closes.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.factory != nil {
		errs = append(errs, a.factory.Close())
	}
	if a.gateway != nil {
		errs = append(errs, a.gateway.Close())
	}
	a.log.Infof("llmux stopped")
	errs = append(errs, a.log.Close())
	return errors.Join(errs...)
}

// runTUI restores the saved tabs and runs the terminal UI until the user
// quits.
func runTUI(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (err error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, flags)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	active := a.store.Restore(ctx)
	a.log.Infof("restored %d tabs, active %q", a.store.Len(), active.Name)

	return tui.NewExecutor(a.store, tui.Options{Logger: a.log.With("tui")}).Run(ctx)
}
