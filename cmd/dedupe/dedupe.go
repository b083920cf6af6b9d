// Package dedupe implements the dedupe command: scan the article store for
// duplicate rows and remove all but the earliest of each group.
package dedupe

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/pressrun/pressrun/cmd/common"
	"github.com/pressrun/pressrun/internal/database"
	"github.com/pressrun/pressrun/internal/textsim"
)

// Command returns the dedupe command for use in the root command.
func Command() *cobra.Command {
	var (
		dryRun    bool
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate articles from the store",
		Long: `Scan all stored articles for duplicates by URL, title, and content
similarity. Each duplicate group keeps its earliest row; the rest are
deleted. Use --dry-run to report without deleting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			db, err := cmdcommon.ConnectDatabase(deps.Config)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := database.NewArticleRepository(db)
			ctx := cmd.Context()

			articles, err := repo.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to load articles: %w", err)
			}
			deps.Logger.Info("scanning for duplicates", "articles", len(articles), "threshold", threshold)

			groups := database.FindDuplicateGroups(articles, threshold)
			renderGroups(os.Stdout, groups)
			if len(groups) == 0 {
				fmt.Fprintln(os.Stdout, "No duplicates found.")
				return nil
			}

			ids := database.RemovableIDs(groups)
			if dryRun {
				fmt.Fprintf(os.Stdout, "Dry run: %d rows in %d groups would be deleted.\n", len(ids), len(groups))
				return nil
			}

			deleted, err := repo.DeleteByIDs(ctx, ids)
			if err != nil {
				return fmt.Errorf("failed to delete duplicates: %w", err)
			}
			deps.Logger.Info("duplicates removed", "deleted", deleted, "groups", len(groups))
			fmt.Fprintf(os.Stdout, "Deleted %d duplicate rows across %d groups.\n", deleted, len(groups))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates without deleting")
	cmd.Flags().Float64Var(&threshold, "threshold", textsim.DefaultThreshold,
		"Content similarity threshold for near-duplicate detection")

	return cmd
}

// renderGroups prints each duplicate group with the kept and removed rows.
func renderGroups(out io.Writer, groups []database.DuplicateGroup) {
	if len(groups) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Group", "Action", "URL", "Title", "Created"})

	for i, g := range groups {
		t.AppendRow(table.Row{i + 1, "keep", g.Keep.URL, g.Keep.Title, g.Keep.CreatedAt.Format("2006-01-02 15:04")})
		for _, a := range g.Remove {
			t.AppendRow(table.Row{i + 1, "delete", a.URL, a.Title, a.CreatedAt.Format("2006-01-02 15:04")})
		}
		t.AppendSeparator()
	}
	t.Render()
}
