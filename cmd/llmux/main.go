// Package main provides the llmux command: one prompt, every chat service.
// Each tab holds a live page per platform; a query typed once is submitted
// to all of them in parallel and the tab names itself from the answers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const version = "0.1.0" // Version of llmux

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	driver      string
	headless    bool
	skipInstall bool
}

func main() {
	// Create context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "llmux: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "llmux",
		Short: "Send one prompt to ChatGPT, Claude and Gemini side by side",
		Long: `llmux keeps tabs of chat sessions, one live page per platform in each tab.
Type a query once and it is submitted to every enabled platform in parallel.

Configuration is read from ~/.llmux/config.yaml when present, then from the
LLMUX_DRIVER, LLMUX_HEADLESS, LLMUX_DATA_DIR, LLMUX_STATE_BACKEND and
LLMUX_LOG_LEVEL environment variables.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.llmux/config.yaml)")
	pf.StringVar(&flags.driver, "driver", "", "browser driver: playwright or cdp")
	pf.BoolVar(&flags.headless, "headless", false, "run browsers without windows")
	pf.BoolVar(&flags.skipInstall, "skip-install", false, "assume the Playwright driver and Chromium are installed")

	root.AddCommand(newSendCmd(flags))
	root.AddCommand(newTabsCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "llmux v%s\n", version)
			return err
		},
	}
}
