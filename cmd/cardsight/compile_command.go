package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cardsight/internal/compiler"
	"cardsight/internal/config"
	"cardsight/internal/corpus"
)

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var outPath string
	var workers int
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Fingerprint the corpus and write a new index",
		Long: `Fingerprint every card in the corpus database (or a manifest given with
--manifest) and atomically replace the index artifact. Cards whose images
cannot be read are skipped and listed in the summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			target, err := ctx.indexPath(cfg, outPath)
			if err != nil {
				return err
			}

			opts := compiler.OptionsFromConfig(cfg)
			opts.Logger = logger
			opts.Limit = limit
			if workers > 0 {
				opts.Workers = workers
			}

			var src corpus.Source
			if strings.TrimSpace(manifestPath) != "" {
				path, err := config.ExpandPath(manifestPath)
				if err != nil {
					return err
				}
				manifest, err := corpus.LoadManifest(path)
				if err != nil {
					return err
				}
				src = manifest
				opts.Source = "manifest:" + path
			} else {
				store, err := ctx.openStore(false)
				if err != nil {
					return err
				}
				defer store.Close()
				src = store
				opts.Source = "corpus:" + store.Path()
			}

			stderr := cmd.ErrOrStderr()
			if !jsonOut && isTerminal(stderr) {
				bar := newProgressBar(stderr)
				opts.Progress = func(done, total int) {
					bar.ChangeMax(total)
					_ = bar.Set(done)
				}
				defer func() {
					_ = bar.Finish()
				}()
			}

			report, err := compiler.Build(cmd.Context(), src, target, opts)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, report)
			}
			printCompileReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Compile from a JSON manifest instead of the corpus database")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Index artifact path (defaults to paths.index_path)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Extraction workers (defaults to compile.workers)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only compile the first N cards")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the build report as JSON")
	return cmd
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("fingerprinting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("cards"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func printCompileReport(out io.Writer, report compiler.Report) {
	fmt.Fprintf(out, "Indexed %s of %s cards", humanize.Comma(int64(report.Indexed)), humanize.Comma(int64(report.Total)))
	if n := len(report.Skipped); n > 0 {
		fmt.Fprintf(out, " (%d skipped)", n)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Descriptors: %s\n", humanize.Comma(int64(report.Descriptors)))
	fmt.Fprintf(out, "Build ID:    %s\n", report.BuildID)
	fmt.Fprintf(out, "Artifact:    %s (%s)\n", report.Path, humanize.Bytes(uint64(report.ArtifactBytes)))
	fmt.Fprintf(out, "SHA-256:     %s\n", report.SHA256)
	fmt.Fprintf(out, "Duration:    %s\n", report.Duration.Round(time.Millisecond))

	if len(report.Skipped) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Skipped))
	for _, s := range report.Skipped {
		rows = append(rows, []string{s.ID, s.Name, s.Reason})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]column{textColumn("Skipped"), textColumn("Name"), textColumn("Reason")}, rows))
}
