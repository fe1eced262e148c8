// Package mapping maintains the field rename/selection mapping applied to an
// ingested record set, and the YAML mapping file that pins a configuration
// so it can be reviewed, checked against data and reused.
//
// # Key capabilities
//
//   - Rename original fields to display names, rejecting empty names and
//     collisions with another field's display name
//   - Apply renames to a record set idempotently
//   - Select the display names shown during annotation and exported
//   - Declare the annotation questions next to the fields they are about
//   - Validate a mapping file against the columns of a dataset, with
//     "did you mean" suggestions for misspelled field names
//
// # Schema Overview
//
// The mapping file has the following structure:
//
//	version: "1"
//	dataset: product-reviews          # name used when uploading
//	guidelines: |
//	  Read the review, then answer every question.
//	rename:
//	  review_body: Review             # original -> display name
//	  meta_lang: Language
//	select: [Review, Language]        # a single string is accepted too
//	questions:
//	  - title: Sentiment
//	    type: label
//	    labels: [positive, negative]
//	  - title: Topics
//	    type: multi_label
//	    labels: [price, quality, delivery]
//	  - title: Quality
//	    type: rating
//	    description: Overall quality of the review
//
// Renames are applied in key order. Question types accept the spellings
// understood by question.ParseType.
package mapping
