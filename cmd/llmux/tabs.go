package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/llmux/pkg/persist"
	"github.com/entrhq/llmux/pkg/platform"
	"github.com/entrhq/llmux/pkg/tabs"
)

func newTabsCmd(flags *globalFlags) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "List the saved tabs without opening any browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			gateway, err := persist.Open(cfg.State.Backend, cfg.StatePath())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, gateway.Close())
			}()

			saved, active, err := tabs.SavedTabs(gateway)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if located, ok := gateway.(interface{ Path() string }); ok && verbose {
				fmt.Fprintf(out, "State: %s\n", located.Path())
			}
			writeSavedTabs(out, platform.DefaultRegistry(), saved, active, verbose)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print each platform's conversation URL")
	return cmd
}

// writeSavedTabs prints one line per tab, the active one marked with '*'.
func writeSavedTabs(w io.Writer, reg *platform.Registry, saved []tabs.Snapshot, active int, verbose bool) {
	if len(saved) == 0 {
		fmt.Fprintln(w, "No saved tabs.")
		return
	}

	for i, snap := range saved {
		marker := " "
		if i == active {
			marker = "*"
		}

		var enabled []string
		for _, p := range reg.All() {
			if snap.EnabledPlatforms[p.ID] {
				enabled = append(enabled, p.Label)
			}
		}

		name := snap.Name
		if name == "" {
			name = tabs.DefaultName
		}
		line := fmt.Sprintf("%s %d  %s  [%s]", marker, i+1, name, strings.Join(enabled, ", "))
		if snap.UserRenamed {
			line += "  (renamed)"
		}
		fmt.Fprintln(w, line)

		if !verbose {
			continue
		}
		for _, p := range reg.All() {
			if u := snap.URLs[p.ID]; u != "" {
				fmt.Fprintf(w, "      %-8s %s\n", p.Label, u)
			}
		}
	}
}
