package retrieve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/contract"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/embedding"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ErrNoRelevantEvidence means stage one found candidate sections but the
// document relevance gate eliminated every one of them. Callers must treat
// this differently from an empty stage one result.
var ErrNoRelevantEvidence = errors.New("no relevant evidence for query")

// Match is one section that survived both retrieval stages.
type Match struct {
	Section               *entity.SectionEmbedding
	Report                *entity.Report
	SectionSimilarity     float64
	DescriptionSimilarity float64
}

// Config encapsulates retrieval parameters. The two thresholds gate
// independent stages and are tuned separately.
type Config struct {
	SectionThreshold   float64
	RelevanceThreshold float64
	// ConfidenceFloor is consumed downstream by evidence assembly and
	// sits above SectionThreshold.
	ConfidenceFloor float64
	TopK            int
}

func DefaultConfig() Config {
	return Config{
		SectionThreshold:   0.35,
		RelevanceThreshold: 0.25,
		ConfidenceFloor:    0.45,
		TopK:               10,
	}
}

// Retriever runs two-stage retrieval: vector search over section
// embeddings, then a report-description relevance gate.
type Retriever struct {
	provider  embedding.EmbeddingProvider
	descCache *gocache.Cache
	logger    *log.Logger
}

func NewRetriever(provider embedding.EmbeddingProvider, logger *log.Logger) *Retriever {
	return &Retriever{
		provider:  provider,
		descCache: gocache.New(15*time.Minute, 30*time.Minute),
		logger:    logger,
	}
}

// Retrieve executes both stages against an already embedded query.
func (r *Retriever) Retrieve(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	queryEmbedding []float32,
	config Config,
) ([]*Match, error) {

	scored, err := uow.SectionEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		queryEmbedding,
		config.TopK,
		config.SectionThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	r.logger.Printf("[DEBUG] Stage one: %d candidate sections", len(scored))

	if len(scored) == 0 {
		// Nothing in the corpus is close enough. Not an error.
		return nil, nil
	}

	reports, err := r.hydrateReports(ctx, uow, scored)
	if err != nil {
		return nil, err
	}

	matches := make([]*Match, 0, len(scored))
	for i, res := range scored {
		report, ok := reports[res.Section.ReportId]
		if !ok {
			// Report row vanished between stages, drop the match.
			continue
		}

		descSim, err := r.descriptionSimilarity(report, queryEmbedding)
		if err != nil {
			r.logger.Printf("[WARN] Description embedding for report %s failed: %v", report.Id, err)
			continue
		}

		if descSim < config.RelevanceThreshold {
			r.logger.Printf("[DEBUG] Candidate %d: section=%.4f desc=%.4f [FILTERED]", i+1, res.Similarity, descSim)
			continue
		}

		r.logger.Printf("[DEBUG] Candidate %d: section=%.4f desc=%.4f [KEEP]", i+1, res.Similarity, descSim)
		matches = append(matches, &Match{
			Section:               res.Section,
			Report:                report,
			SectionSimilarity:     res.Similarity,
			DescriptionSimilarity: descSim,
		})
	}

	if len(matches) == 0 {
		return nil, ErrNoRelevantEvidence
	}
	return matches, nil
}

func (r *Retriever) hydrateReports(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	scored []*contract.ScoredSection,
) (map[uuid.UUID]*entity.Report, error) {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0, len(scored))
	for _, res := range scored {
		if !seen[res.Section.ReportId] {
			seen[res.Section.ReportId] = true
			ids = append(ids, res.Section.ReportId)
		}
	}

	reports, err := uow.ReportRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("hydrate reports: %w", err)
	}

	byId := make(map[uuid.UUID]*entity.Report, len(reports))
	for _, rep := range reports {
		byId[rep.Id] = rep
	}
	return byId, nil
}

// descriptionSimilarity embeds the report description on demand and scores
// it against the query. Descriptions are immutable after generation so the
// cached vector is keyed by report id alone.
func (r *Retriever) descriptionSimilarity(report *entity.Report, queryEmbedding []float32) (float64, error) {
	key := report.Id.String()
	if cached, found := r.descCache.Get(key); found {
		return Cosine(queryEmbedding, cached.([]float32)), nil
	}

	res, err := r.provider.Generate(report.Description, embedding.TaskRetrievalDocument)
	if err != nil {
		return 0, err
	}

	vec := res.Embedding.Values
	r.descCache.Set(key, vec, gocache.DefaultExpiration)
	return Cosine(queryEmbedding, vec), nil
}
