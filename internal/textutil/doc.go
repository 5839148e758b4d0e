// Package textutil provides the name normalisation and term similarity used
// for card lookups.
//
// FoldName produces a case-, accent- and punctuation-insensitive key so that
// "Æther Vial", "aether vial" and "AETHER-VIAL" compare equal. A NameModel
// built over the corpus names turns names into TF-IDF TermVectors, and Cosine
// ranks fuzzy name matches.
package textutil
