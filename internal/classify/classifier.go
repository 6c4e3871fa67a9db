package classify

import (
	"strings"
	"unicode"

	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/model"
)

// Confidence values assigned by the non-context layers.
const (
	// acronymConfidence is assigned to unlisted 2-6 letter acronyms,
	// which are usually in-world organizations.
	acronymConfidence = 60

	// multiTokenConfidence is assigned to 2-3 capitalized tokens with no
	// context signal; most such names are characters.
	multiTokenConfidence = 50

	// recurringConfidence is assigned to single tokens recurring across
	// chapters (frequency >= 5, spread >= 3) with no other signal.
	recurringConfidence = 35

	// defaultConfidence is the fallback for anything the earlier layers
	// could not place.
	defaultConfidence = 30

	// contextConfidenceBase and contextConfidenceCap bound the context
	// layer formula min(cap, base + 2*score).
	contextConfidenceBase = 40
	contextConfidenceCap  = 85
)

// Shape thresholds for the recurring single-token rule.
const (
	recurringMinFrequency = 5
	recurringMinSpread    = 3
)

// Classify maps one raw candidate to exactly one classification using the
// layered decision chain. It is pure: the candidate and gazetteer are
// read-only and the same inputs always produce the same output.
func Classify(candidate model.RawCandidate, g *gazetteer.Gazetteer) model.ClassifiedEntity {
	entity := model.ClassifiedEntity{
		Name:          candidate.Name,
		Frequency:     candidate.Frequency,
		ChapterSpread: candidate.ChapterSpread,
		Contexts:      candidate.Contexts,
	}

	// Layer 1: pre-filters. Filtered candidates never reach later layers.
	if reason, filtered := PreFilter(candidate.Name, g); filtered {
		entity.Classification = model.Filtered{Reason: reason}
		return entity
	}

	// Layer 2: exact gazetteer hit adopts type and confidence verbatim.
	if entry, ok := g.Lookup(candidate.Name); ok {
		entity.Classification = model.Classified{
			Type:       entry.Type,
			Confidence: entry.Confidence,
			Source:     model.SourceGazetteer,
		}
		return entity
	}

	// Layer 3: context signal scoring.
	if c, ok := scoreContexts(candidate, g); ok {
		entity.Classification = c
		return entity
	}

	// Layer 4: shape heuristics.
	if c, ok := classifyShape(candidate, g); ok {
		entity.Classification = c
		return entity
	}

	// Layer 5: default. Favors recall for proper nouns at the cost of
	// precision on unsignaled organizations and locations.
	entity.Classification = model.Classified{
		Type:       model.EntityTypeCharacter,
		Confidence: defaultConfidence,
		Source:     model.SourceDefault,
	}
	return entity
}

// PreFilter applies the noise pre-filters shared by the classifier and
// the extraction pipeline. It reports the filter reason and whether the
// name was rejected.
func PreFilter(name string, g *gazetteer.Gazetteer) (model.FilterReason, bool) {
	switch {
	case g.IsNoiseWord(name):
		return model.FilterNoiseWord, true
	case g.IsStreetAddress(name):
		return model.FilterStreetAddress, true
	case g.IsCapsNoise(name):
		return model.FilterCapsNoise, true
	default:
		return "", false
	}
}

// classifyShape applies the token-shape heuristics used when no context
// signal fired. Returns false when no rule matches.
func classifyShape(candidate model.RawCandidate, g *gazetteer.Gazetteer) (model.Classified, bool) {
	tokens := strings.Fields(candidate.Name)

	// A short all-caps token that survived the caps-noise filter is
	// usually an in-world agency or organization.
	if len(tokens) == 1 && g.IsAcronymShape(candidate.Name) {
		return model.Classified{
			Type:       model.EntityTypeOrganization,
			Confidence: acronymConfidence,
			Source:     model.SourceShape,
		}, true
	}

	// Two or three capitalized tokens look like a person's full name.
	if len(tokens) >= 2 && len(tokens) <= 3 && allCapitalized(tokens) {
		return model.Classified{
			Type:       model.EntityTypeCharacter,
			Confidence: multiTokenConfidence,
			Source:     model.SourceShape,
		}, true
	}

	// A single token recurring across chapters is weak evidence of a
	// character referred to by one name.
	if len(tokens) == 1 &&
		candidate.Frequency >= recurringMinFrequency &&
		candidate.ChapterSpread >= recurringMinSpread {
		return model.Classified{
			Type:       model.EntityTypeCharacter,
			Confidence: recurringConfidence,
			Source:     model.SourceShape,
		}, true
	}

	return model.Classified{}, false
}

// allCapitalized reports whether every token starts with an uppercase
// letter.
func allCapitalized(tokens []string) bool {
	for _, tok := range tokens {
		runes := []rune(tok)
		if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
			return false
		}
	}
	return true
}
