package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/reshetovitsme/channel-relay/internal/di"
	messageService "github.com/reshetovitsme/channel-relay/internal/modules/message/service"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	pairService "github.com/reshetovitsme/channel-relay/internal/modules/pair/service"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newPairsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "Manage channel pairs without a running relay",
		Long:  "Edits the pair registry directly. A running relay picks the changes up on its next start.",
	}

	var disabled bool
	add := &cobra.Command{
		Use:   "add [--disabled] -- <source_id> <destination_id>",
		Short: "Create a pair",
		Long:  "Creates a pair. Channel ids are negative, so pass them after -- to keep them from being read as flags.",
		Args:  cobra.ExactArgs(2),
		RunE: withRegistry(func(cmd *cobra.Command, pairs *pairService.Service, args []string) error {
			source, err := parseID(args[0])
			if err != nil {
				return err
			}
			destination, err := parseID(args[1])
			if err != nil {
				return err
			}
			pair, err := pairs.Upsert(pairDomain.ChannelPair{
				SourceID:      source,
				DestinationID: destination,
				Enabled:       !disabled,
			})
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), fmt.Sprintf("created pair #%d", pair.ID))
			return nil
		}),
	}
	add.Flags().BoolVar(&disabled, "disabled", false, "create the pair disabled")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List pairs",
			Args:  cobra.NoArgs,
			RunE: withRegistry(func(cmd *cobra.Command, pairs *pairService.Service, _ []string) error {
				return writePairs(cmd.OutOrStdout(), pairs.All())
			}),
		},
		add,
		&cobra.Command{
			Use:   "remove <pair_id>",
			Short: "Remove a pair and its message mappings",
			Args:  cobra.ExactArgs(1),
			RunE: withRegistry(func(cmd *cobra.Command, pairs *pairService.Service, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := pairs.Remove(id); err != nil {
					return err
				}
				printLine(cmd.OutOrStdout(), fmt.Sprintf("removed pair #%d", id))
				return nil
			}),
		},
		newSetEnabledCommand("enable", true),
		newSetEnabledCommand("disable", false),
	)
	return cmd
}

func newSetEnabledCommand(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <pair_id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a pair",
		Args:  cobra.ExactArgs(1),
		RunE: withRegistry(func(cmd *cobra.Command, pairs *pairService.Service, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pair, err := pairs.SetEnabled(id, enabled)
			if err != nil {
				return err
			}
			printLine(cmd.OutOrStdout(), fmt.Sprintf("pair #%d %sd", pair.ID, use))
			return nil
		}),
	}
}

type registryFunc func(cmd *cobra.Command, pairs *pairService.Service, args []string) error

// withRegistry opens the registry for one command and closes the database
// afterwards. The mapper is resolved too so removals drop their mappings.
func withRegistry(fn registryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		injector, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() {
			if shutdownErr := di.Shutdown(context.Background(), injector); shutdownErr != nil && err == nil {
				err = shutdownErr
			}
		}()

		pairs, err := do.Invoke[*pairService.Service](injector)
		if err != nil {
			return err
		}
		if _, err := do.Invoke[*messageService.Service](injector); err != nil {
			return err
		}
		return fn(cmd, pairs, args)
	}
}

func writePairs(w io.Writer, pairs []pairDomain.ChannelPair) error {
	if len(pairs) == 0 {
		printLine(w, "no pairs configured")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tDESTINATION\tENABLED\tFILTERS")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%t\t%s\n", p.ID, p.SourceID, p.DestinationID, p.Enabled, p.Filter)
	}
	return tw.Flush()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil {
		return 0, oops.With("arg", arg).Wrapf(err, "invalid id")
	}
	return id, nil
}
