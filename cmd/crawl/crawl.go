// Package crawl implements the one-shot crawl command: walk the listing,
// extract articles, and upload them to the store.
package crawl

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/pressrun/pressrun/cmd/common"
	"github.com/pressrun/pressrun/internal/domain"
	"github.com/pressrun/pressrun/internal/logger"
	"github.com/pressrun/pressrun/internal/output"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var (
		pages       int
		maxArticles int
		windowHours int
		concurrency int
		backupDir   string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl of the configured news source",
		Long: `Walk the configured listing pages, extract article content, filter to the
recency window, deduplicate, and upload the results to the article store.

Flags override the corresponding config values for this run only.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			cfg := deps.Config
			if pages > 0 {
				cfg.Crawl.PageLimit = pages
			}
			if maxArticles > 0 {
				cfg.Crawl.MaxArticles = maxArticles
			}
			if windowHours > 0 {
				cfg.Crawl.RecencyWindowHours = windowHours
			}
			if concurrency > 0 {
				cfg.Crawl.ExtractionConcurrency = concurrency
			}
			if backupDir != "" {
				cfg.Output.Directory = backupDir
			}

			db, err := cmdcommon.ConnectDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runner, err := cmdcommon.BuildRunner(cfg, db, deps.Logger)
			if err != nil {
				return fmt.Errorf("failed to build pipeline: %w", err)
			}

			var uploaded []domain.ArticleRecord
			if cfg.Output.Directory != "" {
				runner.OnRecord(func(rec domain.ArticleRecord) {
					uploaded = append(uploaded, rec)
				})
			}

			stats, runErr := runner.Run(cmd.Context())
			if runErr != nil {
				return fmt.Errorf("crawl aborted: %w", runErr)
			}

			if cfg.Output.Directory != "" {
				writeBackup(deps.Logger, cfg.Output.Format, cfg.Output.Directory, uploaded)
			}

			RenderSummary(os.Stdout, stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 0, "Override crawl.page_limit for this run")
	cmd.Flags().IntVar(&maxArticles, "max-articles", 0, "Override crawl.max_articles for this run")
	cmd.Flags().IntVar(&windowHours, "window-hours", 0, "Override crawl.recency_window_hours for this run")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Override crawl.extraction_concurrency for this run")
	cmd.Flags().StringVar(&backupDir, "backup", "", "Write a local backup of uploaded articles to this directory")

	return cmd
}

// writeBackup persists the uploaded records locally. Backup failures are
// logged but never fail the run; the store already has the data.
func writeBackup(log logger.Interface, format, dir string, records []domain.ArticleRecord) {
	if len(records) == 0 {
		return
	}
	if format == "" {
		format = "json"
	}

	writer, err := output.NewWriter(format, dir)
	if err != nil {
		log.Error("failed to create backup writer", "format", format, "error", err.Error())
		return
	}
	path, err := writer.Write(records)
	if err != nil {
		log.Error("failed to write backup", "error", err.Error())
		return
	}
	log.Info("backup written", "path", path, "articles", len(records))
}

// RenderSummary prints the run statistics as a table.
func RenderSummary(out io.Writer, stats *domain.RunStats) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Run %s", stats.RunID)

	t.AppendRows([]table.Row{
		{"Status", string(stats.Status)},
		{"Pages walked", stats.PagesWalked},
		{"Stop reason", stopReasonLabel(stats.StopReason)},
		{"Discovered", stats.Discovered},
		{"Extracted", stats.Extracted},
		{"Admitted", stats.Admitted},
		{"Rejected", stats.Rejected},
		{"Deduplicated", stats.Deduplicated},
		{"Uploaded", stats.Uploaded},
		{"Failed", stats.Failed},
		{"Elapsed", stats.Elapsed},
	})
	t.Render()

	if len(stats.Failures) > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(out)
		ft.SetStyle(table.StyleLight)
		ft.SetTitle("Failures")
		ft.AppendHeader(table.Row{"Stage", "URL", "Error"})
		for _, f := range stats.Failures {
			ft.AppendRow(table.Row{f.Stage, f.URL, f.Error})
		}
		ft.Render()
	}
}

func stopReasonLabel(reason domain.StopReason) string {
	if reason == domain.StopNone {
		return "page limit reached"
	}
	return string(reason)
}
