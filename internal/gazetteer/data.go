package gazetteer

import "github.com/nao1215/lorescan/internal/model"

// builtinEntries seeds the curated name table with genre-neutral names
// that recur across fiction corpora. Project-specific names come from
// the YAML extension file.
var builtinEntries = map[string]Entry{
	// Common real-world places appearing in contemporary fiction.
	"london":        {Type: model.EntityTypeLocation, Confidence: 90},
	"paris":         {Type: model.EntityTypeLocation, Confidence: 90},
	"new york":      {Type: model.EntityTypeLocation, Confidence: 90},
	"tokyo":         {Type: model.EntityTypeLocation, Confidence: 90},
	"moscow":        {Type: model.EntityTypeLocation, Confidence: 90},
	"berlin":        {Type: model.EntityTypeLocation, Confidence: 90},
	"rome":          {Type: model.EntityTypeLocation, Confidence: 85},
	"washington":    {Type: model.EntityTypeLocation, Confidence: 80},
	"america":       {Type: model.EntityTypeLocation, Confidence: 85},
	"europe":        {Type: model.EntityTypeLocation, Confidence: 85},

	// Well-known organizations.
	"fbi":      {Type: model.EntityTypeOrganization, Confidence: 95},
	"cia":      {Type: model.EntityTypeOrganization, Confidence: 95},
	"nasa":     {Type: model.EntityTypeOrganization, Confidence: 95},
	"interpol": {Type: model.EntityTypeOrganization, Confidence: 95},
	"mi6":      {Type: model.EntityTypeOrganization, Confidence: 95},
	"kgb":      {Type: model.EntityTypeOrganization, Confidence: 95},
	"scotland yard": {Type: model.EntityTypeOrganization, Confidence: 90},

	// Common concepts in genre fiction.
	"christmas": {Type: model.EntityTypeEvent, Confidence: 80},
	"god":       {Type: model.EntityTypeConcept, Confidence: 70},
}

// builtinNoiseWords lists common capitalized words with no entity value:
// sentence starters, pronouns, time words, and connective adverbs that
// the scanner's capitalization heuristic would otherwise surface.
var builtinNoiseWords = []string{
	"the", "a", "an", "and", "but", "or", "so", "yet", "for", "nor",
	"he", "she", "it", "they", "we", "you", "i",
	"his", "her", "its", "their", "our", "your", "my",
	"this", "that", "these", "those", "there", "here",
	"then", "now", "when", "where", "while", "after", "before",
	"however", "although", "though", "because", "since", "until",
	"suddenly", "finally", "meanwhile", "perhaps", "maybe",
	"yes", "no", "not", "never", "always", "sometimes",
	"what", "who", "why", "how", "which", "whose",
	"monday", "tuesday", "wednesday", "thursday", "friday",
	"saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december",
	"morning", "afternoon", "evening", "night", "today", "tomorrow",
	"yesterday", "everything", "everyone", "something", "someone",
	"nothing", "nobody", "anything", "anyone",
	"chapter", "prologue", "epilogue", "part",
	"inside", "outside", "beyond", "behind", "above", "below",
	"once", "twice", "again", "still", "just", "even", "only",
	"oh", "ah", "well", "okay", "right", "look", "listen", "wait",
	"good", "bad", "old", "new", "first", "last", "next",
}

// builtinCapsNoise lists short all-caps tokens that are abbreviations
// rather than story entities. Unlisted acronyms fall through to the
// shape layer, which classifies them as organizations.
var builtinCapsNoise = []string{
	"todo", "fixme", "note", "ok", "tv", "dvd", "cd", "pc", "gps",
	"am", "pm", "ad", "bc", "ce", "bce", "usa", "uk", "eu", "un",
	"id", "vip", "diy", "faq", "asap", "rsvp", "ps", "etc",
	"sos", "dna", "atm", "ceo", "cfo", "hr", "it", "er", "icu",
}

// builtinStreetSuffixes lists trailing words that mark a street address
// rather than a named place.
var builtinStreetSuffixes = []string{
	"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd",
	"lane", "ln", "drive", "dr", "court", "ct", "place", "pl",
	"terrace", "way", "alley", "highway", "hwy", "route",
}

// builtinCharacterVerbs lists dialogue and perception verbs whose
// co-occurrence with a name signals a character subject.
var builtinCharacterVerbs = []string{
	"said", "says", "asked", "asks", "replied", "replies", "answered",
	"whispered", "whispers", "shouted", "shouts", "muttered", "mutters",
	"murmured", "exclaimed", "cried", "called", "snapped", "sighed",
	"laughed", "smiled", "grinned", "frowned", "nodded", "shrugged",
	"thought", "wondered", "realized", "remembered", "knew", "felt",
	"looked", "stared", "glanced", "watched", "turned", "walked",
	"ran", "stood", "sat", "rose", "paused", "hesitated", "continued",
	"added", "began", "spoke", "told", "gasped", "groaned", "breathed",
}

// builtinTitleWords lists honorifics and role titles that precede
// character names.
var builtinTitleWords = []string{
	"mr", "mrs", "ms", "miss", "dr", "doctor", "professor", "prof",
	"captain", "capt", "colonel", "major", "general", "sergeant",
	"lieutenant", "commander", "admiral", "officer", "detective",
	"agent", "inspector", "chief", "sheriff", "deputy",
	"lord", "lady", "sir", "dame", "king", "queen", "prince",
	"princess", "duke", "duchess", "baron", "baroness", "count",
	"countess", "emperor", "empress",
	"father", "mother", "brother", "sister", "uncle", "aunt",
	"master", "mistress", "madam", "madame", "reverend", "bishop",
	"saint", "st", "elder", "judge", "senator", "president", "mayor",
}

// builtinLocationPreps lists prepositions that signal a following place
// name ("in Ravenport", "toward the Citadel").
var builtinLocationPreps = []string{
	"in", "at", "to", "from", "near", "toward", "towards", "through",
	"across", "into", "onto", "within", "outside", "beneath", "beyond",
	"around", "past", "along",
}

// builtinOrgNouns lists organizational nouns that mark a preceding name
// as an organization ("the Veil Bureau", "Stormwind Company").
var builtinOrgNouns = []string{
	"agency", "bureau", "department", "ministry", "institute",
	"corporation", "company", "force", "intelligence", "committee",
	"council", "guild", "order", "brotherhood", "sisterhood",
	"alliance", "federation", "union", "syndicate", "consortium",
	"foundation", "society", "academy", "university", "college",
	"church", "temple", "legion", "army", "guard", "watch",
}
