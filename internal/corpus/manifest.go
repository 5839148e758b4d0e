package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImageURIs mirrors the image_uris object of a Scryfall card.
type ImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
	Large  string `json:"large,omitempty"`
	PNG    string `json:"png,omitempty"`
}

func (u *ImageURIs) preferred() string {
	if u == nil {
		return ""
	}
	for _, candidate := range []string{u.Large, u.Normal, u.PNG} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// CardFace mirrors one entry of card_faces on double-faced cards.
type CardFace struct {
	Name      string     `json:"name,omitempty"`
	ManaCost  string     `json:"mana_cost,omitempty"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// ManifestEntry is one element of a manifest file.
type ManifestEntry struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Set             string     `json:"set"`
	CollectorNumber string     `json:"collector_number,omitempty"`
	ManaCost        string     `json:"mana_cost,omitempty"`
	OracleText      string     `json:"oracle_text,omitempty"`
	ImageURIs       *ImageURIs `json:"image_uris,omitempty"`
	CardFaces       []CardFace `json:"card_faces,omitempty"`
	// ImagePath is the local reference image, relative to the manifest.
	ImagePath string `json:"image_path,omitempty"`
}

// Card converts the entry. ImageRef prefers large, normal then png URIs,
// falls back to the first face that has one, and finally to ImagePath.
func (e ManifestEntry) Card() Card {
	ref := e.ImageURIs.preferred()
	if ref == "" {
		for _, face := range e.CardFaces {
			if ref = face.ImageURIs.preferred(); ref != "" {
				break
			}
		}
	}
	if ref == "" {
		ref = e.ImagePath
	}
	manaCost := e.ManaCost
	if manaCost == "" && len(e.CardFaces) > 0 {
		manaCost = e.CardFaces[0].ManaCost
	}
	return Card{
		ID:              strings.TrimSpace(e.ID),
		Name:            strings.TrimSpace(e.Name),
		SetCode:         strings.ToLower(strings.TrimSpace(e.Set)),
		CollectorNumber: e.CollectorNumber,
		ManaCost:        manaCost,
		OracleText:      e.OracleText,
		ImageRef:        ref,
	}
}

// Manifest is a Source backed by a JSON manifest and local image files.
type Manifest struct {
	path   string
	dir    string
	cards  []Card
	images map[string]string
}

// LoadManifest parses the manifest at path. Individual entries are not
// validated here; the compiler decides what to skip.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	m := &Manifest{
		path:   abs,
		dir:    filepath.Dir(abs),
		cards:  make([]Card, 0, len(entries)),
		images: make(map[string]string, len(entries)),
	}
	for _, entry := range entries {
		card := entry.Card()
		m.cards = append(m.cards, card)
		if entry.ImagePath == "" {
			continue
		}
		if _, seen := m.images[card.ID]; seen {
			continue
		}
		imagePath := entry.ImagePath
		if !filepath.IsAbs(imagePath) {
			imagePath = filepath.Join(m.dir, imagePath)
		}
		m.images[card.ID] = imagePath
	}
	return m, nil
}

// Path returns the absolute manifest path.
func (m *Manifest) Path() string {
	return m.path
}

// Cards returns the manifest records in file order.
func (m *Manifest) Cards(ctx context.Context) ([]Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Card(nil), m.cards...), nil
}

// ImagePath returns the resolved local image for a card ID.
func (m *Manifest) ImagePath(id string) (string, bool) {
	path, ok := m.images[id]
	return path, ok
}

// OpenImage opens the local image file for card.
func (m *Manifest) OpenImage(ctx context.Context, card Card) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := m.images[card.ID]
	if !ok {
		return nil, fmt.Errorf("card %q has no image_path", card.ID)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image for %q: %w", card.ID, err)
	}
	return file, nil
}
