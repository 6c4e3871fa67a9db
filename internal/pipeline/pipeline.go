package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/lorescan/internal/classify"
	"github.com/nao1215/lorescan/internal/enhance"
	"github.com/nao1215/lorescan/internal/gazetteer"
	"github.com/nao1215/lorescan/internal/model"
)

// DefaultConfidenceThreshold separates auto-classified entities from
// those needing review.
const DefaultConfidenceThreshold = 50

// Stage identifies a phase of the pipeline for progress reporting.
type Stage string

// Pipeline stages, in execution order.
const (
	// StageClassify is the synchronous classification phase.
	StageClassify Stage = "classify"
	// StageEnhance is the remote enhancement phase.
	StageEnhance Stage = "enhance"
	// StageWarning reports a non-fatal degradation, currently only a
	// failed enhancement run.
	StageWarning Stage = "warning"
	// StageAssemble is the final partition and statistics phase.
	StageAssemble Stage = "assemble"
)

// Event is one progress notification.
type Event struct {
	// Stage is the phase the event belongs to.
	Stage Stage
	// Detail is a short human-readable description, such as the name of
	// the entity just processed.
	Detail string
}

// Observer receives progress events during a run. Implementations must
// be fast; the pipeline calls them inline.
type Observer func(Event)

// Enhancer is the remote collaborator consulted for needs-review
// entities. *enhance.Client satisfies it.
type Enhancer interface {
	Enhance(ctx context.Context, req enhance.Request) (enhance.Result, error)
}

// Pipeline runs extraction over scanner candidates.
type Pipeline struct {
	gazetteer *gazetteer.Gazetteer
	enhancer  Enhancer
	threshold int
	excluded  map[string]struct{}
	observer  Observer
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfidenceThreshold sets the needs-review confidence boundary.
// Values outside [0, 100] are ignored.
func WithConfidenceThreshold(threshold int) Option {
	return func(p *Pipeline) {
		if threshold >= 0 && threshold <= 100 {
			p.threshold = threshold
		}
	}
}

// WithEnhancer enables the remote enhancement phase. Without this option
// the pipeline is fully synchronous.
func WithEnhancer(e Enhancer) Option {
	return func(p *Pipeline) {
		p.enhancer = e
	}
}

// WithExcludedNames drops candidates whose names are already stored as
// entities, case-insensitively. Re-extracting a known entity would only
// produce a duplicate for the user to reject.
func WithExcludedNames(names []string) Option {
	return func(p *Pipeline) {
		for _, name := range names {
			p.excluded[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Pipeline over the given gazetteer.
func New(g *gazetteer.Gazetteer, opts ...Option) *Pipeline {
	p := &Pipeline{
		gazetteer: g,
		threshold: DefaultConfidenceThreshold,
		excluded:  make(map[string]struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EstimateEnhancementCost predicts the USD cost of enhancing the given
// number of needs-review entities without any network call.
func EstimateEnhancementCost(needsReview int) float64 {
	return enhance.EstimateCost(needsReview)
}

// Run executes the pipeline over the scanner's candidates. bookTitle and
// genre are passed to the remote collaborator as narrative context; both
// may be empty.
//
// Run never returns an error: remote enhancement failures degrade to the
// synchronous results, which are always available.
func (p *Pipeline) Run(ctx context.Context, candidates []model.RawCandidate, bookTitle, genre string) model.PipelineResult {
	working := p.classifyAll(candidates)
	attachRelatedNames(working)

	var outcome *mergeOutcome
	if _, needsReview, _ := p.partition(working); p.enhancer != nil && len(needsReview) > 0 {
		outcome = p.enhanceWorking(ctx, working, needsReview, bookTitle, genre)
	}
	return p.assemble(working, outcome)
}

// classifyAll is the synchronous phase: each candidate goes through the
// full layered classifier, then its verdict is reconciled against the
// scanner's coarse guess. The classifier must strictly beat the guess to
// override it; on a tie the guess stands. The strictly-greater rule is
// what keeps a low-confidence gazetteer entry from shadowing a scanner
// guess of equal strength.
func (p *Pipeline) classifyAll(candidates []model.RawCandidate) []model.ClassifiedEntity {
	working := make([]model.ClassifiedEntity, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := p.excluded[strings.ToLower(candidate.Name)]; ok {
			p.logger.Debug("skipping already-stored entity", "name", candidate.Name)
			continue
		}

		entity := classify.Classify(candidate, p.gazetteer)
		if !entity.IsFiltered() && candidate.TypeGuess != "" {
			if scannerConfidence := candidate.GuessConfidence.Numeric(); entity.Confidence() <= scannerConfidence {
				entity.Classification = model.Classified{
					Type:       candidate.TypeGuess,
					Confidence: scannerConfidence,
					Source:     model.SourceContext,
				}
			}
		}
		working = append(working, entity)
		p.notify(StageClassify, candidate.Name)
	}
	return working
}

// enhanceWorking runs the remote phase and merges its verdicts in place.
// It returns nil on failure, leaving working untouched.
func (p *Pipeline) enhanceWorking(ctx context.Context, working []model.ClassifiedEntity, needsReview []model.ClassifiedEntity, bookTitle, genre string) *mergeOutcome {
	p.notify(StageEnhance, fmt.Sprintf("submitting %d entities for review", len(needsReview)))

	result, err := p.enhancer.Enhance(ctx, enhance.Request{
		Entities:  needsReview,
		BookTitle: bookTitle,
		Genre:     genre,
	})
	if err != nil {
		p.logger.Warn("remote enhancement failed, keeping local classifications", "error", err)
		p.notify(StageWarning, fmt.Sprintf("enhancement unavailable: %v", err))
		return nil
	}

	enhanced := p.mergeVerdicts(working, result.Verdicts)
	return &mergeOutcome{enhanced: enhanced, costUSD: result.CostUSD}
}

// mergeOutcome carries the remote phase's contribution into assembly.
type mergeOutcome struct {
	enhanced int
	costUSD  float64
}

// mergeVerdicts applies remote verdicts to the working list in place and
// returns the number of entities changed. Fields a verdict is silent on
// keep their local values.
func (p *Pipeline) mergeVerdicts(working []model.ClassifiedEntity, verdicts []enhance.Verdict) int {
	byName := make(map[string]enhance.Verdict, len(verdicts))
	for _, v := range verdicts {
		byName[strings.ToLower(v.Name)] = v
	}

	enhanced := 0
	for i := range working {
		verdict, ok := byName[strings.ToLower(working[i].Name)]
		if !ok {
			continue
		}

		if verdict.Noise {
			working[i].Classification = model.Filtered{Reason: model.FilterLLMNoise}
			enhanced++
			p.notify(StageEnhance, working[i].Name)
			continue
		}

		classified, ok := working[i].Classification.(model.Classified)
		if !ok {
			// Locally filtered entities are not resurrected by a
			// non-noise verdict.
			continue
		}
		if verdict.Type != "" {
			classified.Type = verdict.Type
		}
		if verdict.Confidence > 0 {
			classified.Confidence = verdict.Confidence
		}
		classified.Source = model.SourceLLMEnhanced
		working[i].Classification = classified
		enhanced++
		p.notify(StageEnhance, working[i].Name)
	}
	return enhanced
}

// assemble recomputes the partitions and statistics.
func (p *Pipeline) assemble(working []model.ClassifiedEntity, outcome *mergeOutcome) model.PipelineResult {
	p.notify(StageAssemble, fmt.Sprintf("partitioning %d entities", len(working)))

	valid, needsReview, filtered := p.partition(working)
	result := model.PipelineResult{
		Entities:    valid,
		NeedsReview: needsReview,
		Filtered:    filtered,
		Stats: model.PipelineStats{
			TotalCandidates: len(working),
			FilteredNoise:   len(filtered),
			AutoClassified:  len(valid),
			NeedsReview:     len(needsReview),
		},
	}
	if outcome != nil {
		result.Stats.LLMEnhanced = outcome.enhanced
		cost := outcome.costUSD
		result.Stats.LLMCostUSD = &cost
	}
	return result
}

// partition splits the working list into the three result buckets.
func (p *Pipeline) partition(working []model.ClassifiedEntity) (valid, needsReview, filtered []model.ClassifiedEntity) {
	for _, entity := range working {
		switch {
		case entity.IsFiltered():
			filtered = append(filtered, entity)
		case entity.Confidence() < p.threshold:
			needsReview = append(needsReview, entity)
		default:
			valid = append(valid, entity)
		}
	}
	return valid, needsReview, filtered
}

// attachRelatedNames links candidates that share a surname token, a hint
// that bare surnames and full names may refer to the same person.
func attachRelatedNames(working []model.ClassifiedEntity) {
	bySurname := make(map[string][]int)
	for i, entity := range working {
		if entity.IsFiltered() {
			continue
		}
		tokens := strings.Fields(entity.Name)
		if len(tokens) < 2 {
			continue
		}
		surname := strings.ToLower(tokens[len(tokens)-1])
		bySurname[surname] = append(bySurname[surname], i)
	}

	for i := range working {
		if working[i].IsFiltered() {
			continue
		}
		tokens := strings.Fields(working[i].Name)
		if len(tokens) == 0 {
			continue
		}
		surname := strings.ToLower(tokens[len(tokens)-1])
		for _, j := range bySurname[surname] {
			if j == i {
				continue
			}
			working[i].RelatedNames = append(working[i].RelatedNames, working[j].Name)
		}
	}
}

// notify delivers an event to the observer, if any.
func (p *Pipeline) notify(stage Stage, detail string) {
	if p.observer != nil {
		p.observer(Event{Stage: stage, Detail: detail})
	}
}
