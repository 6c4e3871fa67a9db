// Package gazetteer provides the static lookup data the classifier and
// scanner consult: a curated name-to-type table, noise-word and caps-noise
// lists, street-address detection, and the signal word lists used for
// context scoring (character verbs, title words, location prepositions,
// organizational nouns).
//
// Design decision: The gazetteer is loaded once at process start and is
// immutable afterwards. It is passed by value-semantics pointer to the
// classifier and scanner and treated as read-only configuration data, not
// mutable global state. Project-specific extensions are merged at load
// time from a YAML file rather than mutated in later.
package gazetteer
