// Package scanner discovers entity candidates in raw chapter prose.
//
// The scanner walks every chapter body, extracts capitalized token
// sequences of one to three words, and accumulates per-name statistics:
// total frequency, chapter spread, an occurrence score, and sample
// context snippets for the classifier's signal scoring.
//
// Design decision: We use a capitalization regexp rather than a
// statistical NER model. Fiction has no training corpus for its invented
// names, and proper nouns in well-edited prose are reliably capitalized.
// The precision cost (sentence-initial common words) is handled by a
// lowercase-form check here and by the classifier's noise pre-filters
// downstream.
package scanner
