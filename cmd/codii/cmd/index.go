package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/pipeline"
	"github.com/oOSomnus/codii/internal/registry"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a repository for hybrid search",
		Long: `Scans a repository, diffs it against the last indexed Merkle
snapshot, and (re)chunks, embeds, and stores whatever changed.

Indexing runs in a background worker and this command waits until the
run is indexed or failed; 'codii status' reports its progress meanwhile.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.Pipeline.Index(ctx, path, pipeline.Options{Force: force})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), msg)
			if msg != "Indexing started" {
				return nil
			}
			abs, err := app.ResolvePath(path)
			if err != nil {
				return err
			}
			return pollStatus(func() (bool, error) {
				cs, err := a.Registry.GetStatus(abs)
				if err == nil {
					err = ctx.Err()
				}
				return cs.StatusValue == registry.StatusIndexed || cs.StatusValue == registry.StatusFailed, err
			}, 200*time.Millisecond, 10*time.Minute)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "clear the existing index and rebuild from scratch")

	return cmd
}

// pollStatus is shared by index (always) and status (with --wait) to wait
// for a background run to reach a terminal state.
func pollStatus(waitFn func() (bool, error), interval time.Duration, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		done, err := waitFn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("timed out waiting for indexing to finish")
}
