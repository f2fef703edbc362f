package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

var errNothingSent = errors.New("no platform accepted the query")

func newSendCmd(flags *globalFlags) *cobra.Command {
	var (
		warmup time.Duration
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <query>",
		Short: "Open a new tab and send a query to every enabled platform",
		Long: `send restores the saved tabs, opens a new one with the last used
platforms, gives the pages time to load and submits the query to all of
them at once. The new tab is saved like any other.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return tabs.ErrEmptyQuery
			}

			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("warmup") {
				cfg.Timing.SendWarmup = warmup
			}

			a, err := openApp(cfg, flags)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, a.Close())
			}()

			ctx := cmd.Context()
			a.store.Restore(ctx)
			tab := a.store.CreateTab(ctx, nil)
			a.log.Infof("send: tab %d opened, waiting %s for pages", tab.ID, cfg.Timing.SendWarmup)

			if err := sleep(ctx.Done(), cfg.Timing.SendWarmup); err != nil {
				return err
			}

			result, err := a.store.Dispatch(ctx, tab.ID, query)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), a.reg, result)

			if wait > 0 {
				if err := sleep(ctx.Done(), wait); err != nil {
					return err
				}
				if named, ok := a.store.Get(tab.ID); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Tab: %s\n", named.Name)
				}
			}

			if result.Sent() == 0 {
				return errNothingSent
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&warmup, "warmup", 0, "how long to let new pages load before sending (default from config, 2s)")
	cmd.Flags().DurationVar(&wait, "wait", 0, "keep the pages open this long after sending so the tab can name itself")
	return cmd
}

// sleep waits for d unless done closes first.
func sleep(done <-chan struct{}, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-done:
		return errors.New("interrupted")
	}
}

// printOutcomes writes one line per platform the query went to.
func printOutcomes(w io.Writer, reg *platform.Registry, result tabs.Result) {
	for _, o := range result.Outcomes {
		label := string(o.Platform)
		if p, ok := reg.Get(o.Platform); ok {
			label = p.Label
		}
		line := fmt.Sprintf("%-8s %s", label, o.Status.Label())
		if o.Err != nil {
			line += fmt.Sprintf(" (%v)", o.Err)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Sent to %d of %d platforms\n", result.Sent(), len(result.Outcomes))
}
