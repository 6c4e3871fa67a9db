package detect

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/lorescan/internal/model"
)

// DefaultConcurrency is the number of manuscripts detected in parallel
// by DetectFullProject.
const DefaultConcurrency = 4

// Store is the persistence surface the engine reads entities and
// chapters from and writes appearances to. *database.StoryDB satisfies
// it.
type Store interface {
	GetManuscript(ctx context.Context, id int64) (model.Manuscript, error)
	ListManuscripts(ctx context.Context, projectID int64) ([]model.Manuscript, error)
	ListChapters(ctx context.Context, manuscriptID int64) ([]model.Chapter, error)
	ListEntities(ctx context.Context, projectID int64) ([]model.Entity, error)
	ListAppearancesByEntity(ctx context.Context, entityID int64) ([]model.Appearance, error)
	InsertAppearances(ctx context.Context, appearances []model.Appearance) ([]bool, error)
	CrossBookPresence(ctx context.Context, projectID int64) ([]model.CrossBookRecord, error)
}

// Engine runs detection against a Store.
type Engine struct {
	store       Store
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency sets the manuscript-level parallelism for full-project
// detection.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine over the given store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Detect runs one manuscript's detection. A nonexistent manuscript
// surfaces the store's not-found error unchanged.
func (e *Engine) Detect(ctx context.Context, projectID, manuscriptID int64) (model.DetectionResult, error) {
	result := model.DetectionResult{RunID: uuid.NewString()}

	manuscript, err := e.store.GetManuscript(ctx, manuscriptID)
	if err != nil {
		return result, err
	}

	entities, err := e.store.ListEntities(ctx, projectID)
	if err != nil {
		return result, fmt.Errorf("failed to load entities: %w", err)
	}
	chapters, err := e.store.ListChapters(ctx, manuscriptID)
	if err != nil {
		return result, fmt.Errorf("failed to load chapters: %w", err)
	}
	if len(entities) == 0 || len(chapters) == 0 {
		return result, nil
	}

	matchers := buildMatchers(entities)

	var pending []model.Appearance
	pendingEntity := make([]model.Entity, 0) // parallel to pending
	for _, chapter := range chapters {
		for i, entity := range entities {
			match, ok := matchers[i].firstMatch(chapter.Body)
			if !ok {
				continue
			}

			result.TotalMatches++
			result.Matches = append(result.Matches, model.MatchDetail{
				EntityID:     entity.ID,
				EntityName:   entity.Name,
				ManuscriptID: manuscriptID,
				ChapterID:    chapter.ID,
				ChapterTitle: chapter.Title,
				Variant:      match.variant,
				Offset:       match.start,
			})
			pending = append(pending, model.Appearance{
				EntityID:     entity.ID,
				ManuscriptID: manuscriptID,
				ChapterID:    chapter.ID,
				Start:        match.start,
				End:          match.end,
			})
			pendingEntity = append(pendingEntity, entity)
		}
	}
	if len(pending) == 0 {
		return result, nil
	}

	// Snapshot each matched entity's presence before writing, so
	// cross-book deltas reflect the pre-run state.
	priorBooks, err := e.priorPresence(ctx, projectID, manuscriptID, pendingEntity)
	if err != nil {
		return result, err
	}

	created, err := e.store.InsertAppearances(ctx, pending)
	if err != nil {
		return result, fmt.Errorf("failed to insert appearances: %w", err)
	}

	crossBookSeen := make(map[int64]bool)
	for i, wasCreated := range created {
		if !wasCreated {
			continue
		}
		result.NewAppearances++

		entity := pendingEntity[i]
		existing := priorBooks[entity.ID]
		if len(existing) == 0 || crossBookSeen[entity.ID] {
			continue
		}
		crossBookSeen[entity.ID] = true
		result.CrossBook = append(result.CrossBook, model.CrossBookMatch{
			EntityID:      entity.ID,
			EntityName:    entity.Name,
			ExistingBooks: existing,
			NewBook:       model.BookRef{ManuscriptID: manuscript.ID, Title: manuscript.Title},
		})
	}

	e.logger.Info("detection run completed",
		"run_id", result.RunID,
		"manuscript", manuscript.Title,
		"total_matches", result.TotalMatches,
		"new_appearances", result.NewAppearances,
	)
	return result, nil
}

// DetectFullProject runs detection over every manuscript of the project
// and sums the results. A failing manuscript is logged and skipped; it
// never aborts the remaining manuscripts.
func (e *Engine) DetectFullProject(ctx context.Context, projectID int64) (model.DetectionResult, error) {
	manuscripts, err := e.store.ListManuscripts(ctx, projectID)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("failed to list manuscripts: %w", err)
	}

	total := model.DetectionResult{RunID: uuid.NewString()}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, manuscript := range manuscripts {
		g.Go(func() error {
			result, err := e.Detect(ctx, projectID, manuscript.ID)
			if err != nil {
				e.logger.Warn("manuscript detection failed, continuing",
					"manuscript", manuscript.Title, "error", err)
				return nil
			}
			mu.Lock()
			total.Merge(result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, ctx.Err()
}

// CrossBookPresence reports, for every entity with at least one
// appearance, the deduplicated set of manuscripts it appears in. A pure
// read-side aggregation independent of any detection run.
func (e *Engine) CrossBookPresence(ctx context.Context, projectID int64) ([]model.CrossBookRecord, error) {
	return e.store.CrossBookPresence(ctx, projectID)
}

// priorPresence returns, per entity, the manuscripts (other than the one
// being detected) where it already had appearances.
func (e *Engine) priorPresence(ctx context.Context, projectID, currentManuscriptID int64, entities []model.Entity) (map[int64][]model.BookRef, error) {
	manuscripts, err := e.store.ListManuscripts(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manuscripts: %w", err)
	}
	titleByID := make(map[int64]string, len(manuscripts))
	for _, m := range manuscripts {
		titleByID[m.ID] = m.Title
	}

	prior := make(map[int64][]model.BookRef)
	for _, entity := range entities {
		if _, done := prior[entity.ID]; done {
			continue
		}
		prior[entity.ID] = nil

		appearances, err := e.store.ListAppearancesByEntity(ctx, entity.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list appearances for entity %d: %w", entity.ID, err)
		}
		seen := make(map[int64]bool)
		for _, a := range appearances {
			if a.ManuscriptID == currentManuscriptID || seen[a.ManuscriptID] {
				continue
			}
			seen[a.ManuscriptID] = true
			prior[entity.ID] = append(prior[entity.ID], model.BookRef{
				ManuscriptID: a.ManuscriptID,
				Title:        titleByID[a.ManuscriptID],
			})
		}
	}
	return prior, nil
}

// matcher matches one entity's name variants in prose.
type matcher struct {
	variants []variantPattern
}

type variantPattern struct {
	variant string
	re      *regexp.Regexp
}

// matchSpan is one located occurrence.
type matchSpan struct {
	variant string
	start   int
	end     int
}

// buildMatchers compiles the variant patterns for each entity, index
// aligned with the input slice.
func buildMatchers(entities []model.Entity) []matcher {
	matchers := make([]matcher, len(entities))
	for i, entity := range entities {
		for _, variant := range entity.NameVariants() {
			matchers[i].variants = append(matchers[i].variants, variantPattern{
				variant: variant,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(variant) + `\b`),
			})
		}
	}
	return matchers
}

// firstMatch returns the earliest match of any variant in body. Variants
// are tried in NameVariants order; among them the smallest offset wins,
// so the primary name takes precedence over an alias at the same spot.
func (m matcher) firstMatch(body string) (matchSpan, bool) {
	best := matchSpan{start: -1}
	for _, vp := range m.variants {
		loc := vp.re.FindStringIndex(body)
		if loc == nil {
			continue
		}
		if best.start < 0 || loc[0] < best.start {
			best = matchSpan{variant: vp.variant, start: loc[0], end: loc[1]}
		}
	}
	return best, best.start >= 0
}
