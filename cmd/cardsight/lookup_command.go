package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardsight/internal/corpus"
)

type lookupOutput struct {
	Card      corpus.Card `json:"card"`
	Hash      string      `json:"hash"`
	Keypoints int         `json:"keypoints"`
	Score     float64     `json:"score"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var indexPath string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "lookup NAME",
		Short: "Find indexed cards by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _, err := ctx.loadIndex(indexPath)
			if err != nil {
				return err
			}
			matches := idx.FindByName(strings.Join(args, " "), limit)
			if jsonOut {
				results := make([]lookupOutput, 0, len(matches))
				for _, m := range matches {
					results = append(results, lookupOutput{
						Card:      m.Entry.Card,
						Hash:      m.Entry.Fingerprint.Hash.String(),
						Keypoints: len(m.Entry.Fingerprint.Keypoints),
						Score:     m.Score,
					})
				}
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matching cards")
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				c := m.Entry.Card
				rows = append(rows, []string{
					c.ID,
					c.Name,
					strings.ToUpper(c.SetCode),
					c.CollectorNumber,
					fmt.Sprintf("%d", len(m.Entry.Fingerprint.Keypoints)),
					fmt.Sprintf("%.2f", m.Score),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				textColumn("ID"), textColumn("Name"), textColumn("Set"),
				numberColumn("#"), numberColumn("Keypoints"), numberColumn("Score"),
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index artifact path (defaults to paths.index_path)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}
