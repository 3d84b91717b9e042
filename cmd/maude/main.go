// Maude - governed chat client for the governor daemon
// License: MIT

package main

import (
	"fmt"
	"os"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/maudetui/maude/pkg/config"
	"github.com/maudetui/maude/pkg/governor"
	"github.com/maudetui/maude/pkg/logger"
	"github.com/maudetui/maude/pkg/rpc"
	"github.com/maudetui/maude/pkg/transport"
	"github.com/maudetui/maude/pkg/tui"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("maude %s\n", formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		socketPath  string
		governorDir string
		debug       bool
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "maude",
		Short: "Governed chat client for the governor daemon",
		Long: "Maude connects to a governor daemon over its unix socket and runs a\n" +
			"governed chat session: plan a spec, lock it, then build against it.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			if settings.LogFile != "" {
				if err := logger.EnableFileLogging(settings.LogFile); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
				}
				defer logger.DisableFileLogging()
			}

			gov := newGovernorClient(settings)

			if plain {
				return runPlainREPL(gov, settings)
			}

			// The TUI owns the terminal from here on.
			logger.SetConsoleOutput(false)
			defer logger.SetConsoleOutput(true)

			p := tea.NewProgram(tui.New(gov, settings), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Governor socket path (overrides derivation)")
	cmd.PersistentFlags().StringVar(&governorDir, "governor-dir", "", "Governor state directory")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().BoolVar(&plain, "plain", false, "Run the line-based REPL instead of the full-screen UI")

	cmd.AddCommand(
		newStatusCommand(),
		newSessionsCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion()
		},
	}
}

// loadSettings merges the environment configuration with the persistent
// flags of cmd's root.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return config.Settings{}, err
	}
	if v, _ := cmd.Flags().GetString("socket"); v != "" {
		settings.SocketPath = v
	}
	if v, _ := cmd.Flags().GetString("governor-dir"); v != "" {
		settings.GovernorDir = v
	}
	return settings, nil
}

// newGovernorClient wires the client stack: unix transport, correlation
// engine, typed governor surface. Connection happens lazily on first call.
func newGovernorClient(settings config.Settings) *governor.Client {
	socket := settings.ResolveSocketPath()
	logger.DebugCF("main", "resolved governor socket", map[string]any{"path": socket})

	rpcClient := rpc.NewClient(transport.NewUnix(socket))
	return governor.NewClient(rpcClient, settings.ContextID, settings.GovernorMode, settings.Label)
}
