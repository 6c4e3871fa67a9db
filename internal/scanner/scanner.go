package scanner

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/model"
)

// Default scanner limits.
const (
	// DefaultMaxContexts is the number of sample snippets kept per
	// candidate. Three is enough for the classifier's signal scoring
	// without dragging whole paragraphs through the pipeline.
	DefaultMaxContexts = 3

	// DefaultContextRadius is the number of bytes kept on each side of
	// an occurrence in a context snippet.
	DefaultContextRadius = 60

	// minNameLength drops one-letter matches ("I" at sentence starts).
	minNameLength = 2
)

// namePattern matches a capitalized token optionally followed by up to
// two more capitalized tokens ("Aria", "Aria Stormwind", "Veil Bureau
// Archive"). Apostrophes and hyphens stay inside tokens so "D'Arcy" and
// "Storm-born" survive.
var namePattern = regexp.MustCompile(`[A-Z][a-zA-Z'-]*(?:[ ][A-Z][a-zA-Z'-]*){0,2}`)

// Scanner discovers candidate entity names across a set of chapters.
type Scanner struct {
	gazetteer     *gazetteer.Gazetteer
	maxContexts   int
	contextRadius int
	logger        *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxContexts sets how many sample snippets are kept per candidate.
func WithMaxContexts(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxContexts = n
		}
	}
}

// WithContextRadius sets the snippet radius in runes.
func WithContextRadius(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.contextRadius = n
		}
	}
}

// WithLogger sets a custom logger for the scanner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner consulting the given gazetteer.
func New(g *gazetteer.Gazetteer, opts ...Option) *Scanner {
	s := &Scanner{
		gazetteer:     g,
		maxContexts:   DefaultMaxContexts,
		contextRadius: DefaultContextRadius,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// accumulator collects per-name statistics during a scan.
type accumulator struct {
	name      string
	frequency int
	chapters  map[int64]bool
	contexts  []string
	score     float64
}

// Scan walks every chapter body and returns the discovered candidates,
// sorted by occurrence score descending (ties by name for determinism).
func (s *Scanner) Scan(chapters []model.Chapter) []model.RawCandidate {
	found := make(map[string]*accumulator)
	bodies := make([]string, len(chapters))
	for i, ch := range chapters {
		bodies[i] = ch.Body
	}

	for _, ch := range chapters {
		for _, loc := range namePattern.FindAllStringIndex(ch.Body, -1) {
			name := s.trimLeadingNoise(strings.TrimSpace(ch.Body[loc[0]:loc[1]]))
			if len(name) < minNameLength {
				continue
			}

			key := strings.ToLower(name)
			acc, ok := found[key]
			if !ok {
				acc = &accumulator{name: name, chapters: make(map[int64]bool)}
				found[key] = acc
			}
			acc.frequency++
			acc.chapters[ch.ID] = true
			if len(acc.contexts) < s.maxContexts {
				acc.contexts = append(acc.contexts, s.snippet(ch.Body, loc[0], loc[1]))
			}
		}
	}

	candidates := make([]model.RawCandidate, 0, len(found))
	for key, acc := range found {
		// A single capitalized token whose lowercase form also appears
		// in the prose is almost always a sentence-initial common word,
		// not a name.
		if !strings.Contains(key, " ") && appearsLowercase(bodies, key) {
			continue
		}

		acc.score = float64(acc.frequency) + 2*float64(len(acc.chapters))
		guess, level := s.guessType(acc.name)
		candidates = append(candidates, model.RawCandidate{
			Name:            acc.name,
			TypeGuess:       guess,
			GuessConfidence: level,
			Score:           acc.score,
			Frequency:       acc.frequency,
			ChapterSpread:   len(acc.chapters),
			TotalChapters:   len(chapters),
			Contexts:        acc.contexts,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Name < candidates[j].Name
	})

	s.logger.Debug("scan complete",
		"chapters", len(chapters),
		"candidates", len(candidates),
	)
	return candidates
}

// trimLeadingNoise drops sentence-initial noise words that the name
// pattern absorbed into a multi-token match ("The MSS tracks..." must
// yield "MSS", not "The MSS"). Names the gazetteer knows in full are
// left alone so listed entries like "The Veil Order" survive intact.
func (s *Scanner) trimLeadingNoise(name string) string {
	if _, ok := s.gazetteer.Lookup(name); ok {
		return name
	}
	tokens := strings.Fields(name)
	for len(tokens) > 1 && s.gazetteer.IsNoiseWord(tokens[0]) {
		tokens = tokens[1:]
		if _, ok := s.gazetteer.Lookup(strings.Join(tokens, " ")); ok {
			break
		}
	}
	return strings.Join(tokens, " ")
}

// guessType is the scanner's coarse advisory judgment. The pipeline
// reconciles it against the layered classifier's verdict later.
func (s *Scanner) guessType(name string) (model.EntityType, model.ConfidenceLevel) {
	if entry, ok := s.gazetteer.Lookup(name); ok {
		return entry.Type, model.ConfidenceHigh
	}
	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		return model.EntityTypeCharacter, model.ConfidenceMedium
	}
	if s.gazetteer.IsAcronymShape(name) {
		return model.EntityTypeOrganization, model.ConfidenceMedium
	}
	return model.EntityTypeCharacter, model.ConfidenceLow
}

// snippet extracts a context window around a match, clipped to rune
// boundaries and collapsed to single-line form. The radius is measured
// in bytes, which is close enough for snippet purposes.
func (s *Scanner) snippet(body string, start, end int) string {
	from := start - s.contextRadius
	if from < 0 {
		from = 0
	}
	for from > 0 && !isRuneStart(body[from]) {
		from--
	}
	to := end + s.contextRadius
	if to > len(body) {
		to = len(body)
	}
	for to < len(body) && !isRuneStart(body[to]) {
		to++
	}
	return strings.Join(strings.Fields(body[from:to]), " ")
}

// isRuneStart reports whether b is the first byte of a UTF-8 rune.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// appearsLowercase reports whether the lowercased key appears as a
// standalone word in any original chapter body. Searching the original
// text means only genuinely lowercase occurrences count, not the
// capitalized occurrences the scanner extracted.
func appearsLowercase(bodies []string, key string) bool {
	for _, body := range bodies {
		idx := 0
		for {
			i := strings.Index(body[idx:], key)
			if i < 0 {
				break
			}
			pos := idx + i
			before := pos == 0 || !isWordByte(body[pos-1])
			afterPos := pos + len(key)
			after := afterPos >= len(body) || !isWordByte(body[afterPos])
			if before && after {
				return true
			}
			idx = pos + len(key)
		}
	}
	return false
}

// isWordByte reports whether b belongs inside an ASCII word.
func isWordByte(b byte) bool {
	return b == '\'' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
