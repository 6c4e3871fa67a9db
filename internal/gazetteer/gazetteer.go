package gazetteer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/lorescan/internal/model"
)

// Entry is one curated gazetteer record: a known name with its type and
// configured confidence. The classifier adopts both verbatim on an exact
// lookup hit.
type Entry struct {
	Type       model.EntityType `yaml:"type"`
	Confidence int              `yaml:"confidence"`
}

// Extension is the user-editable YAML shape merged into the built-in
// tables at load time. Unknown entity types in Names are normalized
// through model.ParseEntityType.
type Extension struct {
	// Names maps additional known names to their type and confidence.
	Names map[string]Entry `yaml:"names"`

	// NoiseWords lists additional words to reject as noise.
	NoiseWords []string `yaml:"noise_words"`

	// CapsNoise lists additional all-caps acronyms to reject as noise.
	CapsNoise []string `yaml:"caps_noise"`
}

// Gazetteer is the immutable lookup structure. Construct with New or
// Load; never mutate after construction.
type Gazetteer struct {
	entries        map[string]Entry
	noiseWords     map[string]bool
	capsNoise      map[string]bool
	streetSuffixes map[string]bool
	characterVerbs map[string]bool
	titleWords     map[string]bool
	locationPreps  map[string]bool
	orgNouns       map[string]bool
}

// streetNumberPattern matches a leading house number, the shape cue for
// street addresses ("221 Baker Street").
var streetNumberPattern = regexp.MustCompile(`^\d+\s+\S`)

// capsTokenPattern matches a 2-6 letter all-caps token.
var capsTokenPattern = regexp.MustCompile(`^[A-Z]{2,6}$`)

// New builds a Gazetteer from the built-in tables plus an optional
// extension. A nil extension yields the built-in tables alone.
func New(ext *Extension) *Gazetteer {
	g := &Gazetteer{
		entries:        make(map[string]Entry, len(builtinEntries)),
		noiseWords:     toSet(builtinNoiseWords),
		capsNoise:      toSet(builtinCapsNoise),
		streetSuffixes: toSet(builtinStreetSuffixes),
		characterVerbs: toSet(builtinCharacterVerbs),
		titleWords:     toSet(builtinTitleWords),
		locationPreps:  toSet(builtinLocationPreps),
		orgNouns:       toSet(builtinOrgNouns),
	}
	for name, entry := range builtinEntries {
		g.entries[normalizeKey(name)] = entry
	}

	if ext != nil {
		for name, entry := range ext.Names {
			entry.Type = model.ParseEntityType(string(entry.Type))
			entry.Confidence = clampConfidence(entry.Confidence)
			g.entries[normalizeKey(name)] = entry
		}
		for _, w := range ext.NoiseWords {
			g.noiseWords[normalizeKey(w)] = true
		}
		for _, w := range ext.CapsNoise {
			g.capsNoise[normalizeKey(w)] = true
		}
	}
	return g
}

// Load reads an extension file and builds a Gazetteer from it. If path
// is empty, the built-in tables are used alone.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // User-provided extension path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer extension: %w", err)
	}

	var ext Extension
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer extension: %w", err)
	}
	return New(&ext), nil
}

// Lookup returns the curated entry for a name, if present. The lookup is
// case-insensitive on the whole name.
func (g *Gazetteer) Lookup(name string) (Entry, bool) {
	entry, ok := g.entries[normalizeKey(name)]
	return entry, ok
}

// IsNoiseWord reports whether the name is a common word with no entity
// value ("The", "However", weekday names).
func (g *Gazetteer) IsNoiseWord(name string) bool {
	return g.noiseWords[normalizeKey(name)]
}

// IsStreetAddress reports whether the name has street-address shape:
// a leading house number, or a trailing street-suffix word ("221 Baker
// Street", "Elm Avenue").
func (g *Gazetteer) IsStreetAddress(name string) bool {
	if streetNumberPattern.MatchString(strings.TrimSpace(name)) {
		return true
	}
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return false
	}
	return g.streetSuffixes[normalizeKey(tokens[len(tokens)-1])]
}

// IsCapsNoise reports whether the name is a 2-6 letter all-caps token
// flagged as noise (common abbreviations like "TODO" or "USA" that are
// not story entities).
func (g *Gazetteer) IsCapsNoise(name string) bool {
	if !capsTokenPattern.MatchString(name) {
		return false
	}
	return g.capsNoise[normalizeKey(name)]
}

// IsAcronymShape reports whether the name is a 2-6 letter all-caps token,
// regardless of the noise list. The shape layer uses this to classify
// unlisted acronyms as organizations.
func (g *Gazetteer) IsAcronymShape(name string) bool {
	return capsTokenPattern.MatchString(name)
}

// IsCharacterVerb reports whether the word is a dialogue or action verb
// that signals a character subject ("said", "whispered").
func (g *Gazetteer) IsCharacterVerb(word string) bool {
	return g.characterVerbs[normalizeKey(word)]
}

// IsTitleWord reports whether the word is an honorific or role title
// preceding character names ("Dr", "Captain", "Agent").
func (g *Gazetteer) IsTitleWord(word string) bool {
	return g.titleWords[normalizeKey(strings.TrimSuffix(word, "."))]
}

// IsLocationPrep reports whether the word is a preposition that signals
// a following place name ("in", "at", "toward").
func (g *Gazetteer) IsLocationPrep(word string) bool {
	return g.locationPreps[normalizeKey(word)]
}

// IsOrgNoun reports whether the word is an organizational noun that
// signals an organization when following a name ("agency", "bureau").
func (g *Gazetteer) IsOrgNoun(word string) bool {
	return g.orgNouns[normalizeKey(word)]
}

// normalizeKey lowercases and trims a lookup key.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// clampConfidence pins a configured confidence into [0, 100].
func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// toSet builds a lookup set from a word list, normalizing keys.
func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[normalizeKey(w)] = true
	}
	return set
}
