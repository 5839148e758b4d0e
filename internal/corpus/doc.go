// Package corpus defines the card record schema and the sources the index
// compiler reads cards from.
//
// Two sources are provided. Manifest reads a JSON array in the Scryfall
// bulk-data card shape with local image files next to it. Store is a SQLite
// database holding card metadata and the reference image bytes, filled by
// importing manifests or adding cards one at a time.
//
// Card.ImageRef is a display locator only. Matching never fetches it; the
// compiler reads pixels through Source.OpenImage.
package corpus
