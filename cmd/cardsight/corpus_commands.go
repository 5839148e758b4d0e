package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cardsight/internal/config"
	"cardsight/internal/corpus"
	"cardsight/internal/fingerprint"
)

func newCorpusCommand(ctx *commandContext) *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the corpus database",
	}

	corpusCmd.AddCommand(newCorpusImportCommand(ctx))
	corpusCmd.AddCommand(newCorpusListCommand(ctx))
	corpusCmd.AddCommand(newCorpusAddCommand(ctx))
	corpusCmd.AddCommand(newCorpusRemoveCommand(ctx))

	return corpusCmd
}

func newCorpusImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import MANIFEST",
		Short: "Copy a JSON manifest and its images into the corpus database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			manifest, err := corpus.LoadManifest(path)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(true)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := store.ImportManifest(cmd.Context(), manifest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s cards into %s\n", humanize.Comma(int64(report.Imported)), store.Path())
			if len(report.Failed) > 0 {
				rows := make([][]string, 0, len(report.Failed))
				for _, f := range report.Failed {
					rows = append(rows, []string{f.ID, f.Err.Error()})
				}
				fmt.Fprintf(out, "%d entries failed:\n", len(report.Failed))
				fmt.Fprintln(out, renderTable([]column{textColumn("ID"), textColumn("Error")}, rows))
			}
			return nil
		},
	}
}

func newCorpusListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards in the corpus database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()

			cards, err := store.Cards(cmd.Context())
			if err != nil {
				return err
			}
			total := len(cards)
			if limit > 0 && len(cards) > limit {
				cards = cards[:limit]
			}
			if jsonOut {
				return writeJSON(cmd, cards)
			}
			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintln(out, "Corpus is empty")
				return nil
			}
			rows := make([][]string, 0, len(cards))
			for _, c := range cards {
				rows = append(rows, []string{c.ID, c.Name, strings.ToUpper(c.SetCode), c.CollectorNumber, c.ManaCost})
			}
			fmt.Fprintln(out, renderTable([]column{
				textColumn("ID"), textColumn("Name"), textColumn("Set"), numberColumn("#"), textColumn("Cost"),
			}, rows))
			if len(cards) < total {
				fmt.Fprintf(out, "Showing %d of %s cards\n", len(cards), humanize.Comma(int64(total)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N cards")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print cards as JSON")
	return cmd
}

func newCorpusAddCommand(ctx *commandContext) *cobra.Command {
	var card corpus.Card
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a single card",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(imagePath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if _, err := fingerprint.Decode(data); err != nil {
				return err
			}
			if strings.TrimSpace(card.ImageRef) == "" {
				card.ImageRef = path
			}
			card.SetCode = strings.ToLower(card.SetCode)
			if err := card.Validate(); err != nil {
				return err
			}

			store, err := ctx.openStore(true)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Put(cmd.Context(), card, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as %s\n", card.Label(), card.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&card.ID, "id", "", "Stable card identifier")
	cmd.Flags().StringVar(&card.Name, "name", "", "Card name")
	cmd.Flags().StringVar(&card.SetCode, "set", "", "Set code")
	cmd.Flags().StringVar(&card.CollectorNumber, "number", "", "Collector number")
	cmd.Flags().StringVar(&card.ManaCost, "mana-cost", "", "Mana cost, e.g. {1}{R}")
	cmd.Flags().StringVar(&card.OracleText, "oracle-text", "", "Rules text")
	cmd.Flags().StringVar(&card.ImageRef, "image-ref", "", "Display locator (defaults to the image path)")
	cmd.Flags().StringVar(&imagePath, "image", "", "Reference image file (JPEG or PNG)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("set")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newCorpusRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a card from the corpus database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return errors.New("no card with id " + args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (recompile to drop it from the index)\n", args[0])
			return nil
		},
	}
}
