package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cardsight/internal/fileutil"
	"cardsight/internal/index"
	"cardsight/internal/preflight"
)

type inspectOutput struct {
	Path   string     `json:"path"`
	Size   int64      `json:"size"`
	SHA256 string     `json:"sha256"`
	Meta   index.Meta `json:"meta"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var indexPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show index build metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := ctx.indexPath(cfg, indexPath)
			if err != nil {
				return err
			}
			probe := preflight.ProbeIndex(path)
			if probe.Err != nil {
				return probe.Err
			}
			digest, err := fileutil.HashFile(path)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, inspectOutput{Path: path, Size: digest.Size, SHA256: digest.SHA256, Meta: probe.Meta})
			}

			meta := probe.Meta
			p := meta.Params
			rows := [][]string{
				{"Path", path},
				{"Size", humanize.Bytes(uint64(digest.Size))},
				{"SHA-256", digest.SHA256},
				{"Format version", strconv.Itoa(int(meta.FormatVersion))},
				{"Build ID", meta.BuildID},
				{"Built", fmt.Sprintf("%s (%s)", meta.BuiltAt.Local().Format(time.DateTime), humanize.Time(meta.BuiltAt))},
				{"Source", meta.Source},
				{"Cards", humanize.Comma(int64(meta.Cards))},
				{"Skipped", humanize.Comma(int64(meta.Skipped))},
				{"Descriptors", humanize.Comma(int64(meta.Descriptors))},
				{"Resolution", fmt.Sprintf("%dx%d (aspect %.3f)", p.Width, p.Height, p.CardAspect)},
				{"Keypoints", fmt.Sprintf("max %d, FAST threshold %d", p.MaxKeypoints, p.FASTThreshold)},
				{"LSH", fmt.Sprintf("%d tables x %d bits", meta.ANN.Tables, meta.ANN.KeyBits)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{textColumn("Field"), textColumn("Value")}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index artifact path (defaults to paths.index_path)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print metadata as JSON")
	return cmd
}
