// Command cardsight builds card indexes and identifies card photos against
// them.
//
// Typical use:
//
//	cardsight corpus import cards.json   # copy a manifest into the corpus database
//	cardsight compile                    # fingerprint the corpus into an index
//	cardsight match photo.jpg --rotate 180 --center-x 0.5 --center-y 0.45 --scale 0.6
//
// Configuration is read from --config, ~/.config/cardsight/config.toml or
// ./cardsight.toml, in that order.
package main
