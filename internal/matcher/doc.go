// Package matcher identifies a query frame against a loaded index.
//
// A match runs in three passes. The query hash is compared with every
// indexed hash and the closest CoarseCandidates survive. Each surviving card
// is then scored geometrically: query descriptors are looked up through the
// index's LSH tables, pass a ratio test per candidate, and vote on the
// translation between query and card keypoints. Finally hash, geometric and
// colour scores are blended into a confidence and the policy decides whether
// the best card is a confident match, one of several ambiguous candidates,
// or nothing at all.
//
// A Matcher holds an immutable index and is safe for concurrent use. Holder
// lets a server install a freshly loaded index without pausing in-flight
// requests.
package matcher
