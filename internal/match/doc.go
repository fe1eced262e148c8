// Package match provides field-name normalization, Levenshtein distance and
// ranking of existing names by similarity.
//
// It backs the "did you mean" suggestions attached to diagnostics when a
// mapping file renames or selects a field the dataset does not have.
//
// Key functions:
//   - NormalizeName: folds case, separators and camelCase into one token stream
//   - Distance: rune-wise edit distance
//   - Rank / Suggest: order candidate names by similarity to a query
package match
