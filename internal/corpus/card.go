package corpus

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cardsight/internal/services"
)

// Card is the metadata for one printing in the corpus.
type Card struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SetCode         string `json:"set"`
	CollectorNumber string `json:"collector_number,omitempty"`
	ManaCost        string `json:"mana_cost,omitempty"`
	OracleText      string `json:"oracle_text,omitempty"`
	ImageRef        string `json:"image_ref"`
}

// Validate rejects records missing a required field.
func (c Card) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.SetCode) == "" {
		missing = append(missing, "set")
	}
	if strings.TrimSpace(c.ImageRef) == "" {
		missing = append(missing, "image_ref")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrInvalidInput, "corpus", "validate card",
			fmt.Sprintf("%q missing %s", c.ID, strings.Join(missing, ", ")), nil)
	}
	return nil
}

// Label renders the card for humans, e.g. "Lightning Bolt (LEA #161)".
func (c Card) Label() string {
	set := strings.ToUpper(c.SetCode)
	if c.CollectorNumber != "" {
		return fmt.Sprintf("%s (%s #%s)", c.Name, set, c.CollectorNumber)
	}
	return fmt.Sprintf("%s (%s)", c.Name, set)
}

// Source supplies cards and their reference images to the compiler.
type Source interface {
	// Cards lists every record in a stable order.
	Cards(ctx context.Context) ([]Card, error)
	// OpenImage opens the encoded reference image for card.
	OpenImage(ctx context.Context, card Card) (io.ReadCloser, error)
}
