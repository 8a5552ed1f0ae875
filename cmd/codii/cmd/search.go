package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var (
		path     string
		limit    int
		scope    string
		noRerank bool
		snippets bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an indexed repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]

			abs, err := app.ResolvePath(path)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			renderer := ui.NewResultsRenderer(out, !ui.UseColor(out), snippets)

			if indexing, err := a.Registry.IsIndexing(abs); err == nil && indexing {
				renderer.Warn("indexing is in progress; results may be incomplete")
			}

			results, err := a.Search(cmd.Context(), abs, query, limit, scope, !noRerank)
			if err != nil {
				return err
			}

			rendered := make([]ui.Result, 0, len(results))
			for _, r := range results {
				score := r.CombinedScore
				if r.RerankScore != 0 {
					score = r.RerankScore
				}
				rendered = append(rendered, ui.Result{
					Rank:      r.Rank,
					Path:      r.Chunk.Path,
					StartLine: r.Chunk.StartLine,
					EndLine:   r.Chunk.EndLine,
					ChunkType: r.Chunk.ChunkType,
					Name:      r.Chunk.Name,
					Score:     score,
					Snippet:   r.Chunk.Content,
				})
			}
			renderer.Render(rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "repository to search")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().StringVar(&scope, "scope", "", "restrict results to paths containing this substring")
	cmd.Flags().BoolVar(&noRerank, "no-rerank", false, "skip cross-encoder re-ranking")
	cmd.Flags().BoolVar(&snippets, "snippets", false, "print the first lines of each matching chunk")

	return cmd
}
