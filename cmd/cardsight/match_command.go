package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cardsight/internal/canon"
	"cardsight/internal/fingerprint"
	"cardsight/internal/matcher"
	"cardsight/internal/services"
)

type matchOutput struct {
	Image  string          `json:"image"`
	Result *matcher.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var indexPath string
	var centerX, centerY, scale float64
	var rotate int
	var workers int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "match IMAGE...",
		Short: "Identify the card in one or more photos",
		Long: `Identify the card in each photo. --rotate gives the clockwise rotation that
turns the photo upright. --center-x/--center-y (fractions of the photo) and
--scale (upright card width / photo width) locate the card; without them the largest
centred card-shaped region is used.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			rotation, err := canon.ParseRotation(rotate)
			if err != nil {
				return err
			}
			var hint *canon.CropHint
			if cmd.Flags().Changed("scale") || cmd.Flags().Changed("center-x") || cmd.Flags().Changed("center-y") {
				h, err := canon.CropHint{CenterX: centerX, CenterY: centerY, Scale: scale}.Validate()
				if err != nil {
					return err
				}
				hint = &h
			}

			idx, _, err := ctx.loadIndex(indexPath)
			if err != nil {
				return err
			}
			m := matcher.New(idx, matcher.PolicyFromConfig(cfg.Matcher), logger)
			if workers <= 0 {
				workers = cfg.Matcher.Workers
			}

			outputs := make([]matchOutput, len(args))
			queries := make([]matcher.Query, 0, len(args))
			slots := make([]int, 0, len(args))
			for i, arg := range args {
				outputs[i].Image = arg
				img, err := decodeImageFile(arg)
				if err != nil {
					outputs[i].Error = err.Error()
					continue
				}
				queries = append(queries, matcher.Query{Image: img, Crop: hint, Rotation: rotation})
				slots = append(slots, i)
			}

			runCtx := services.WithRequestID(cmd.Context(), uuid.NewString())
			items, err := m.MatchBatch(runCtx, queries, workers)
			if err != nil {
				return err
			}
			for j, item := range items {
				out := &outputs[slots[j]]
				if item.Err != nil {
					out.Error = item.Err.Error()
					continue
				}
				res := item.Result
				out.Result = &res
			}

			if jsonOut {
				return writeJSON(cmd, outputs)
			}
			renderMatches(cmd.OutOrStdout(), outputs)
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index artifact path (defaults to paths.index_path)")
	cmd.Flags().Float64Var(&centerX, "center-x", 0.5, "Card centre, fraction of photo width")
	cmd.Flags().Float64Var(&centerY, "center-y", 0.5, "Card centre, fraction of photo height")
	cmd.Flags().Float64Var(&scale, "scale", canon.MaxScale, "Card width as a fraction of photo width")
	cmd.Flags().IntVar(&rotate, "rotate", 0, "Clockwise rotation to upright: 0, 90, 180 or 270")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel matches (defaults to matcher.workers)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func decodeImageFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return fingerprint.Decode(data)
}

func renderMatches(out io.Writer, outputs []matchOutput) {
	columns := []column{
		textColumn("Image"), textColumn("Outcome"), numberColumn("#"), textColumn("Card"),
		numberColumn("Confidence"), textColumn("Label"),
		numberColumn("Hash"), numberColumn("Geo"), numberColumn("Color"),
	}
	var rows [][]string
	for i, o := range outputs {
		if i > 0 {
			rows = append(rows, nil)
		}
		name := filepath.Base(o.Image)
		if o.Error != "" {
			rows = append(rows, []string{name, "error", "", o.Error, "", "", "", "", ""})
			continue
		}
		res := o.Result
		candidates := res.Candidates
		if res.Match != nil {
			candidates = []matcher.Candidate{*res.Match}
		}
		if len(candidates) == 0 {
			rows = append(rows, []string{name, string(res.Outcome), "", "no card recognised", "", "", "", "", ""})
			continue
		}
		for rank, c := range candidates {
			label, outcome := name, string(res.Outcome)
			if rank > 0 {
				label, outcome = "", ""
			}
			rows = append(rows, []string{
				label,
				outcome,
				strconv.Itoa(rank + 1),
				c.Card.Label(),
				fmt.Sprintf("%.3f", c.Confidence),
				string(c.Label),
				strconv.Itoa(c.HashDistance),
				strconv.Itoa(c.GeometricMatches),
				fmt.Sprintf("%.2f", c.ColorSimilarity),
			})
		}
	}
	fmt.Fprintln(out, renderTable(columns, rows))
}
