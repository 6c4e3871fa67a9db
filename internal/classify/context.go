package classify

import (
	"strings"

	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/model"
)

// Context signal weights. Title co-occurrence is the strongest single
// character signal because honorifics almost never precede non-names;
// the leading-"the" organization cue is the weakest because articles
// precede many location names too.
const (
	characterVerbWeight  = 3
	characterTitleWeight = 5
	locationPrepWeight   = 3
	orgLeadingTheWeight  = 2
	orgNounWeight        = 4

	// multiTokenCharacterBias tips the category comparison toward
	// character for 2-3 token names once any signal has fired; most
	// multi-token names in prose are character names. The bias alone
	// never fires the layer: with no context signal at all the layer
	// abstains so token-shape heuristics can run.
	multiTokenCharacterBias = 8
)

// contextScores accumulates per-family signal scores across all sample
// contexts of a candidate.
type contextScores struct {
	character    int
	location     int
	organization int
}

// scoreContexts runs the context scoring layer. It returns the winning
// classification and true, or abstains with false when no signal family
// scored above zero.
func scoreContexts(candidate model.RawCandidate, g *gazetteer.Gazetteer) (model.Classified, bool) {
	nameTokens := tokenize(candidate.Name)
	if len(nameTokens) == 0 {
		return model.Classified{}, false
	}

	var scores contextScores
	for _, context := range candidate.Contexts {
		scoreOneContext(&scores, tokenize(context), nameTokens, g)
	}

	// The leading-article cue belongs to the candidate name itself
	// ("The Syndicate"), not to its surroundings in any one snippet.
	if strings.HasPrefix(strings.ToLower(candidate.Name), "the ") {
		scores.organization += orgLeadingTheWeight
	}

	if scores.character == 0 && scores.location == 0 && scores.organization == 0 {
		return model.Classified{}, false
	}

	if len(nameTokens) >= 2 && len(nameTokens) <= 3 {
		scores.character += multiTokenCharacterBias
	}

	winnerType, winnerScore := scores.winner()
	return model.Classified{
		Type:       winnerType,
		Confidence: contextConfidence(winnerScore),
		Source:     model.SourceContext,
	}, true
}

// winner picks the category with the strictly highest score. Character
// wins ties against both others; location wins only when it strictly
// exceeds character and is at least organization.
func (s contextScores) winner() (model.EntityType, int) {
	if s.character >= s.location && s.character >= s.organization {
		return model.EntityTypeCharacter, s.character
	}
	if s.location > s.character && s.location >= s.organization {
		return model.EntityTypeLocation, s.location
	}
	return model.EntityTypeOrganization, s.organization
}

// scoreOneContext finds the first occurrence of the name tokens in one
// context snippet and scores the words adjacent to it.
func scoreOneContext(scores *contextScores, contextTokens, nameTokens []string, g *gazetteer.Gazetteer) {
	pos := findSubsequence(contextTokens, nameTokens)
	if pos < 0 {
		return
	}

	var before, before2, after string
	if pos > 0 {
		before = contextTokens[pos-1]
	}
	if pos > 1 {
		before2 = contextTokens[pos-2]
	}
	if next := pos + len(nameTokens); next < len(contextTokens) {
		after = contextTokens[next]
	}

	// Character signals: "X said" / "said X" and "Dr. X".
	if after != "" && g.IsCharacterVerb(after) {
		scores.character += characterVerbWeight
	}
	if before != "" && g.IsCharacterVerb(before) {
		scores.character += characterVerbWeight
	}
	if before != "" && g.IsTitleWord(before) {
		scores.character += characterTitleWeight
	}

	// Location signal: preposition directly before the name, optionally
	// with an article between ("in Ravenport", "through the Mistwood").
	if before != "" && g.IsLocationPrep(before) {
		scores.location += locationPrepWeight
	} else if before == "the" && before2 != "" && g.IsLocationPrep(before2) {
		scores.location += locationPrepWeight
	}

	// Organization signal: organizational noun directly after the name
	// ("Stormwind Company", "the Veil Bureau ordered...").
	if after != "" && g.IsOrgNoun(after) {
		scores.organization += orgNounWeight
	}
}

// contextConfidence maps a winning signal score to a confidence value,
// capped so context scoring never outranks a curated gazetteer entry.
func contextConfidence(score int) int {
	confidence := contextConfidenceBase + 2*score
	if confidence > contextConfidenceCap {
		return contextConfidenceCap
	}
	return confidence
}

// tokenize lowercases text and splits it into words, trimming
// non-alphanumeric runes from token edges so punctuation does not break
// adjacency checks.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// isWordRune reports whether r belongs inside a token.
func isWordRune(r rune) bool {
	return r == '\'' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// findSubsequence returns the index of the first occurrence of needle
// inside haystack, or -1.
func findSubsequence(haystack, needle []string) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
