package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/reshetovitsme/channel-relay/internal/di"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// loadConfig is swapped in tests.
var loadConfig = config.Load

// NewRootCommand assembles the relay command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "relay",
		Short:         "Relay posts between Telegram channels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newPairsCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the container. The logger is
// resolved first so every later provider logs through it.
func bootstrap() (do.Injector, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	injector, err := di.Setup(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*slog.Logger](injector); err != nil {
		return nil, err
	}
	return injector, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printLine(cmd.OutOrStdout(), "relay "+Version)
		},
	}
}

func printLine(w io.Writer, line string) {
	_, _ = io.WriteString(w, line+"\n")
}
