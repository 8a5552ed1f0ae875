package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/registry"
	"github.com/oOSomnus/codii/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var (
		wait   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show a repository's indexing status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := app.ResolvePath(path)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if wait {
				if err := pollStatus(func() (bool, error) {
					cs, err := a.Registry.GetStatus(abs)
					if err != nil {
						return false, err
					}
					return cs.StatusValue == registry.StatusIndexed || cs.StatusValue == registry.StatusFailed, nil
				}, 500*time.Millisecond, 10*time.Minute); err != nil {
					return err
				}
			}

			cs, err := a.Registry.GetStatus(abs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderer := ui.NewStatusRenderer(out, !ui.UseColor(out))
			info := statusInfo(cs)
			info.ChunkStoreSize = fileSize(a.Layout.ChunkStorePath(abs))
			info.VectorStoreSize = fileSize(a.Layout.VectorStorePath(abs)) + fileSize(a.Layout.VectorMetaPath(abs))
			info.TotalSize = info.ChunkStoreSize + info.VectorStoreSize

			if asJSON {
				return renderer.RenderJSON(info)
			}
			renderer.Render(info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "block until the current indexing run finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the status record as JSON")

	return cmd
}

func statusInfo(cs registry.CodebaseStatus) ui.StatusInfo {
	return ui.StatusInfo{
		Path:         cs.Path,
		Status:       string(cs.StatusValue),
		Stage:        string(cs.CurrentStage),
		Progress:     cs.Progress,
		IndexedFiles: cs.IndexedFiles,
		TotalFiles:   cs.TotalFiles,
		TotalChunks:  cs.TotalChunks,
		MerkleRoot:   cs.MerkleRoot,
		LastUpdated:  cs.LastUpdated,
		ErrorMessage: cs.ErrorMessage,
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
