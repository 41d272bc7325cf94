package retrieve

import (
	"context"
	"io"
	"log"
	"testing"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/contract"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vectorProvider returns scripted embeddings keyed by input text.
type vectorProvider struct {
	vectors map[string][]float32
	calls   int
}

func (p *vectorProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.calls++
	vec, ok := p.vectors[text]
	if !ok {
		vec = []float32{0, 0, 0}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

type fakeSectionRepo struct {
	contract.SectionEmbeddingRepository
	scored []*contract.ScoredSection
}

func (r *fakeSectionRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, limit int, threshold float64) ([]*contract.ScoredSection, error) {
	out := make([]*contract.ScoredSection, 0, len(r.scored))
	for _, s := range r.scored {
		if s.Similarity >= threshold && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeReportRepo struct {
	contract.ReportRepository
	reports []*entity.Report
}

func (r *fakeReportRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Report, error) {
	return r.reports, nil
}

type fakeUnitOfWork struct {
	unitofwork.UnitOfWork
	reports  *fakeReportRepo
	sections *fakeSectionRepo
}

func (u *fakeUnitOfWork) ReportRepository() contract.ReportRepository { return u.reports }
func (u *fakeUnitOfWork) SectionEmbeddingRepository() contract.SectionEmbeddingRepository {
	return u.sections
}

func newFakeUow(reports []*entity.Report, scored []*contract.ScoredSection) *fakeUnitOfWork {
	return &fakeUnitOfWork{
		reports:  &fakeReportRepo{reports: reports},
		sections: &fakeSectionRepo{scored: scored},
	}
}

func scoredSection(reportId uuid.UUID, slug string, sim float64) *contract.ScoredSection {
	return &contract.ScoredSection{
		Section:    &entity.SectionEmbedding{Id: uuid.New(), ReportId: reportId, Slug: slug},
		Similarity: sim,
	}
}

func testRetriever(p embedding.EmbeddingProvider) *Retriever {
	return NewRetriever(p, log.New(io.Discard, "", 0))
}

func TestDefaultConfigConfidenceFloorTightens(t *testing.T) {
	cfg := DefaultConfig()
	assert.Greater(t, cfg.ConfidenceFloor, cfg.SectionThreshold)
}

func TestRetrieveEmptyStageOneIsNotAnError(t *testing.T) {
	provider := &vectorProvider{}
	r := testRetriever(provider)
	uow := newFakeUow(nil, nil)

	matches, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, matches)
	// The relevance gate never ran, so no description was embedded.
	assert.Zero(t, provider.calls)
}

func TestRetrieveRelevanceGateEliminatesEverything(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "Fitness App", Description: "workout tracking"}
	provider := &vectorProvider{vectors: map[string][]float32{
		// Orthogonal to the query vector, so document relevance is zero.
		"workout tracking": {0, 1, 0},
	}}
	r := testRetriever(provider)
	uow := newFakeUow(
		[]*entity.Report{report},
		[]*contract.ScoredSection{scoredSection(report.Id, "pricing", 0.9)},
	)

	matches, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.ErrorIs(t, err, ErrNoRelevantEvidence)
	assert.Nil(t, matches)
}

func TestRetrieveStagesGateIndependently(t *testing.T) {
	relevant := &entity.Report{Id: uuid.New(), Title: "Budget App", Description: "expense tracking"}
	offTopic := &entity.Report{Id: uuid.New(), Title: "Game", Description: "puzzle levels"}
	provider := &vectorProvider{vectors: map[string][]float32{
		"expense tracking": {1, 0, 0},
		"puzzle levels":    {0, 1, 0},
	}}
	r := testRetriever(provider)

	// The off-topic report has the stronger section match; the document
	// gate must still eliminate it without touching the other report.
	uow := newFakeUow(
		[]*entity.Report{relevant, offTopic},
		[]*contract.ScoredSection{
			scoredSection(offTopic.Id, "complaints", 0.95),
			scoredSection(relevant.Id, "complaints", 0.80),
		},
	)

	matches, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, relevant.Id, matches[0].Report.Id)
	assert.InDelta(t, 0.80, matches[0].SectionSimilarity, 1e-9)
	assert.InDelta(t, 1.0, matches[0].DescriptionSimilarity, 1e-6)
}

func TestRetrieveSectionThresholdFiltersStageOne(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "App", Description: "desc"}
	provider := &vectorProvider{vectors: map[string][]float32{
		"desc": {1, 0, 0},
	}}
	r := testRetriever(provider)
	uow := newFakeUow(
		[]*entity.Report{report},
		[]*contract.ScoredSection{
			scoredSection(report.Id, "kept", 0.50),
			scoredSection(report.Id, "dropped", 0.30),
		},
	)

	matches, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "kept", matches[0].Section.Slug)
}

func TestRetrieveCachesDescriptionEmbedding(t *testing.T) {
	report := &entity.Report{Id: uuid.New(), Title: "App", Description: "desc"}
	provider := &vectorProvider{vectors: map[string][]float32{
		"desc": {1, 0, 0},
	}}
	r := testRetriever(provider)
	uow := newFakeUow(
		[]*entity.Report{report},
		[]*contract.ScoredSection{
			scoredSection(report.Id, "a", 0.9),
			scoredSection(report.Id, "b", 0.8),
		},
	)

	_, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	// A second query against the same report reuses the cached vector.
	_, err = r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
}

func TestRetrieveDropsMatchWhenReportVanished(t *testing.T) {
	gone := uuid.New()
	provider := &vectorProvider{}
	r := testRetriever(provider)
	uow := newFakeUow(
		nil, // report row already purged
		[]*contract.ScoredSection{scoredSection(gone, "a", 0.9)},
	)

	matches, err := r.Retrieve(context.Background(), uow, []float32{1, 0, 0}, DefaultConfig())
	require.ErrorIs(t, err, ErrNoRelevantEvidence)
	assert.Nil(t, matches)
}
