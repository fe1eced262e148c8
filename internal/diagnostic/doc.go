// Package diagnostic provides structured errors and warnings produced while
// checking a mapping file against an ingested dataset.
//
// Key capabilities:
//   - Unknown field reports with closest-name suggestions
//   - Rename collision and selection errors
//   - Question definition errors
//   - Plain-text rendering for terminals
package diagnostic
