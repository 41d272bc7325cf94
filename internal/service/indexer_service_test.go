package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/contract"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/contentstore"
	"review-insights-be/pkg/embedding"
	"review-insights-be/pkg/segment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// memState is the shared backing store every fake unit of work reads and
// writes, standing in for the database.
type memState struct {
	reports  map[uuid.UUID]*entity.Report
	sections map[uuid.UUID][]*entity.SectionEmbedding
}

func newMemState() *memState {
	return &memState{
		reports:  make(map[uuid.UUID]*entity.Report),
		sections: make(map[uuid.UUID][]*entity.SectionEmbedding),
	}
}

type memFactory struct {
	state         *memState
	createBulkErr error
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{state: f.state, createBulkErr: f.createBulkErr}
}

type memUow struct {
	unitofwork.UnitOfWork
	state         *memState
	createBulkErr error

	inTx         bool
	snapReports  map[uuid.UUID]entity.Report
	snapSections map[uuid.UUID][]*entity.SectionEmbedding
}

func (u *memUow) Begin(ctx context.Context) error {
	u.snapReports = make(map[uuid.UUID]entity.Report, len(u.state.reports))
	for id, r := range u.state.reports {
		u.snapReports[id] = *r
	}
	u.snapSections = make(map[uuid.UUID][]*entity.SectionEmbedding, len(u.state.sections))
	for id, s := range u.state.sections {
		u.snapSections[id] = append([]*entity.SectionEmbedding(nil), s...)
	}
	u.inTx = true
	return nil
}

func (u *memUow) Commit() error {
	u.inTx = false
	return nil
}

func (u *memUow) Rollback() error {
	if !u.inTx {
		return nil
	}
	u.state.reports = make(map[uuid.UUID]*entity.Report, len(u.snapReports))
	for id, r := range u.snapReports {
		cp := r
		u.state.reports[id] = &cp
	}
	u.state.sections = u.snapSections
	u.inTx = false
	return nil
}

func (u *memUow) ReportRepository() contract.ReportRepository {
	return &memReportRepo{state: u.state}
}

func (u *memUow) SectionEmbeddingRepository() contract.SectionEmbeddingRepository {
	return &memSectionRepo{state: u.state, createErr: u.createBulkErr}
}

type memReportRepo struct {
	contract.ReportRepository
	state *memState
}

func (r *memReportRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Report, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if rep, found := r.state.reports[byId.ID]; found {
				cp := *rep
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (r *memReportRepo) NextPage(ctx context.Context, afterId uuid.UUID, pageSize int) ([]*entity.Report, error) {
	all := make([]*entity.Report, 0, len(r.state.reports))
	for _, rep := range r.state.reports {
		if afterId != uuid.Nil && rep.Id.String() <= afterId.String() {
			continue
		}
		cp := *rep
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Id.String() < all[j].Id.String() })
	if len(all) > pageSize {
		all = all[:pageSize]
	}
	return all, nil
}

func (r *memReportRepo) UpdateChecksum(ctx context.Context, id uuid.UUID, checksum string) error {
	if rep, found := r.state.reports[id]; found {
		rep.Checksum = checksum
	}
	return nil
}

type memSectionRepo struct {
	contract.SectionEmbeddingRepository
	state     *memState
	createErr error
}

func (r *memSectionRepo) DeleteByReportId(ctx context.Context, reportId uuid.UUID) error {
	delete(r.state.sections, reportId)
	return nil
}

func (r *memSectionRepo) CreateBulk(ctx context.Context, sections []*entity.SectionEmbedding) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, s := range sections {
		r.state.sections[s.ReportId] = append(r.state.sections[s.ReportId], s)
	}
	return nil
}

type memStore struct {
	bodies   map[string]string
	released []string
}

func (s *memStore) Fetch(ctx context.Context, key string) (string, error) {
	body, ok := s.bodies[key]
	if !ok {
		return "", contentstore.ErrNotFound
	}
	return body, nil
}

func (s *memStore) Release(ctx context.Context, key string) error {
	s.released = append(s.released, key)
	delete(s.bodies, key)
	return nil
}

// countingEmbedder fails any document containing failOn, succeeds otherwise.
type countingEmbedder struct {
	calls  int
	failOn string
}

func (p *countingEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	p.calls++
	if p.failOn != "" && strings.Contains(text, p.failOn) {
		return nil, errors.New("embedding backend rejected input")
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}}}, nil
}

const reportBody = "Overall sentiment is positive.\n\n" +
	"## Pricing\nUsers find the subscription fair.\n\n" +
	"## Original App Link\nhttps://store.example.com/app\n\n" +
	"## Complaints\nFrequent crashes after the last update.\n"

type indexerFixture struct {
	state    *memState
	store    *memStore
	embedder *countingEmbedder
	indexer  IIndexerService
}

func newIndexerFixture(t *testing.T, failOn string, release bool) *indexerFixture {
	t.Helper()
	state := newMemState()
	store := &memStore{bodies: make(map[string]string)}
	provider := &countingEmbedder{failOn: failOn}
	embedder := embedding.NewRetryer(provider, 1, time.Millisecond)

	return &indexerFixture{
		state:    state,
		store:    store,
		embedder: provider,
		indexer: NewIndexerService(
			&memFactory{state: state},
			store,
			embedder,
			nil,
			NewReportLocks(),
			noopLogger{},
			release,
		),
	}
}

func (f *indexerFixture) addReport(id uuid.UUID, title, body string) *entity.Report {
	key := "reports/" + id.String() + ".md"
	report := &entity.Report{Id: id, Title: title, ContentKey: key, CreatedAt: time.Now()}
	f.state.reports[id] = report
	f.store.bodies[key] = body
	return report
}

func TestReindexReportIndexesSections(t *testing.T) {
	f := newIndexerFixture(t, "", false)
	report := f.addReport(uuid.New(), "Fitness App", reportBody)

	require.NoError(t, f.indexer.ReindexReport(context.Background(), report.Id, false))

	stored := f.state.sections[report.Id]
	require.Len(t, stored, 3)

	slugs := make([]string, 0, len(stored))
	for _, s := range stored {
		slugs = append(slugs, s.Slug)
		assert.NotEmpty(t, s.EmbeddingValue)
	}
	assert.Equal(t, []string{"", "pricing", "complaints"}, slugs)

	// The store-link section never reaches the index.
	for _, s := range stored {
		assert.NotEqual(t, segment.ExcludedHeading, s.Heading)
	}

	assert.Equal(t, segment.Checksum(reportBody), f.state.reports[report.Id].Checksum)
	assert.Equal(t, 3, f.embedder.calls)
}

func TestReindexSkipsUnchangedChecksum(t *testing.T) {
	f := newIndexerFixture(t, "", false)
	f.addReport(uuid.New(), "Fitness App", reportBody)

	first, err := f.indexer.Reindex(context.Background(), ReindexParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)
	callsAfterFirst := f.embedder.calls

	second, err := f.indexer.Reindex(context.Background(), ReindexParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Skipped)
	assert.Zero(t, second.Processed)
	assert.Equal(t, callsAfterFirst, f.embedder.calls)
}

func TestReindexRefreshForcesReembedding(t *testing.T) {
	f := newIndexerFixture(t, "", false)
	f.addReport(uuid.New(), "Fitness App", reportBody)

	_, err := f.indexer.Reindex(context.Background(), ReindexParams{})
	require.NoError(t, err)
	callsAfterFirst := f.embedder.calls

	result, err := f.indexer.Reindex(context.Background(), ReindexParams{Refresh: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Greater(t, f.embedder.calls, callsAfterFirst)
}

func TestEmbedFailureLeavesOldIndexIntact(t *testing.T) {
	f := newIndexerFixture(t, "FAILTOKEN", false)
	report := f.addReport(uuid.New(), "Fitness App", reportBody)

	require.NoError(t, f.indexer.ReindexReport(context.Background(), report.Id, false))
	oldChecksum := f.state.reports[report.Id].Checksum
	oldSections := f.state.sections[report.Id]

	// New body version whose last section cannot be embedded.
	newBody := reportBody + "\n## Broken\nFAILTOKEN here.\n"
	f.store.bodies[report.ContentKey] = newBody

	err := f.indexer.ReindexReport(context.Background(), report.Id, false)
	require.Error(t, err)

	// Old sections and old checksum survive, so the next pass retries.
	assert.Equal(t, oldChecksum, f.state.reports[report.Id].Checksum)
	assert.Equal(t, oldSections, f.state.sections[report.Id])
}

func TestReplaceFailureRollsBack(t *testing.T) {
	state := newMemState()
	store := &memStore{bodies: make(map[string]string)}
	provider := &countingEmbedder{}
	indexer := NewIndexerService(
		&memFactory{state: state, createBulkErr: errors.New("disk full")},
		store,
		embedding.NewRetryer(provider, 1, time.Millisecond),
		nil,
		NewReportLocks(),
		noopLogger{},
		false,
	)

	id := uuid.New()
	key := "reports/" + id.String() + ".md"
	state.reports[id] = &entity.Report{Id: id, Title: "App", ContentKey: key}
	store.bodies[key] = reportBody
	existing := &entity.SectionEmbedding{Id: uuid.New(), ReportId: id, Slug: "pricing"}
	state.sections[id] = []*entity.SectionEmbedding{existing}

	err := indexer.ReindexReport(context.Background(), id, true)
	require.Error(t, err)

	// The delete inside the failed transaction must not stick.
	require.Len(t, state.sections[id], 1)
	assert.Equal(t, existing.Id, state.sections[id][0].Id)
	assert.Empty(t, state.reports[id].Checksum)
}

func TestReindexBatchContinuesPastFailureAndFreezesCursor(t *testing.T) {
	f := newIndexerFixture(t, "FAILTOKEN", false)
	first := f.addReport(uuid.MustParse("00000000-0000-0000-0000-000000000001"), "First", reportBody)
	f.addReport(uuid.MustParse("00000000-0000-0000-0000-000000000002"), "Second", "## Broken\nFAILTOKEN here.\n")
	third := f.addReport(uuid.MustParse("00000000-0000-0000-0000-000000000003"), "Third", reportBody)

	result, err := f.indexer.Reindex(context.Background(), ReindexParams{PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)

	// The batch finished the whole corpus but the resume cursor stops
	// before the failed report so a rerun retries it.
	assert.Equal(t, first.Id, result.LastId)
	assert.NotEmpty(t, f.state.sections[third.Id])
}

func TestReindexMissingBodySkips(t *testing.T) {
	f := newIndexerFixture(t, "", false)
	id := uuid.New()
	f.state.reports[id] = &entity.Report{Id: id, Title: "App", ContentKey: "reports/missing.md"}

	result, err := f.indexer.Reindex(context.Background(), ReindexParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, f.embedder.calls)
}

func TestReleaseAfterIndexDropsBody(t *testing.T) {
	f := newIndexerFixture(t, "", true)
	report := f.addReport(uuid.New(), "Fitness App", reportBody)

	require.NoError(t, f.indexer.ReindexReport(context.Background(), report.Id, false))
	assert.Contains(t, f.store.released, report.ContentKey)

	// With the body gone the next pass skips instead of failing.
	result, err := f.indexer.Reindex(context.Background(), ReindexParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
}
