package service

import (
	"context"
	"testing"
	"time"

	"review-insights-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *memReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.state.reports, id)
	return nil
}

// Deletion and indexing share the per-report lock, so a delete arriving
// while a report is being indexed must wait for the index run to finish
// instead of interleaving with its transaction.
func TestDeleteSerializesWithIndexLock(t *testing.T) {
	state := newMemState()
	id := uuid.New()
	state.reports[id] = &entity.Report{Id: id, Title: "Budgeting"}
	state.sections[id] = []*entity.SectionEmbedding{{Id: uuid.New(), ReportId: id, Slug: "pricing"}}

	locks := NewReportLocks()
	svc := NewReportService(&memFactory{state: state}, nil, nil, locks, noopLogger{})

	key := id.String()
	locks.Lock(key)

	done := make(chan error, 1)
	go func() { done <- svc.Delete(context.Background(), id) }()

	select {
	case <-done:
		t.Fatal("delete finished while the report lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	locks.Unlock(key)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("delete never acquired the report lock")
	}

	assert.NotContains(t, state.reports, id)
	assert.NotContains(t, state.sections, id)
}
