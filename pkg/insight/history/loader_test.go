package history

import (
	"context"
	"testing"
	"time"

	"review-insights-be/internal/constant"
	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/contract"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRawRepo struct {
	contract.ChatMessageRawRepository
	rows []*entity.ChatMessageRaw
}

// FindAll honors the descending created_at order the loader requests.
func (r *fakeRawRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessageRaw, error) {
	out := append([]*entity.ChatMessageRaw(nil), r.rows...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type fakeUow struct {
	unitofwork.UnitOfWork
	raw *fakeRawRepo
}

func (u *fakeUow) ChatMessageRawRepository() contract.ChatMessageRawRepository { return u.raw }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

func rawMessage(role, chat string, at time.Time) *entity.ChatMessageRaw {
	return &entity.ChatMessageRaw{Id: uuid.New(), Role: role, Chat: chat, CreatedAt: at}
}

func TestLoadConversationHistoryChronologicalWithMappedRoles(t *testing.T) {
	base := time.Now()
	repo := &fakeRawRepo{rows: []*entity.ChatMessageRaw{
		rawMessage(constant.ChatMessageRoleUser, "priming", base),
		rawMessage(constant.ChatMessageRoleModel, "ready", base.Add(time.Second)),
		rawMessage(constant.ChatMessageRoleUser, "question one", base.Add(2*time.Second)),
		rawMessage(constant.ChatMessageRoleModel, "answer one", base.Add(3*time.Second)),
	}}
	loader := NewLoader(&fakeFactory{uow: &fakeUow{raw: repo}})

	messages, err := loader.LoadConversationHistory(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "priming", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "answer one", messages[3].Content)
}

func TestLoadConversationHistoryPinsPrimingPairOutsideWindow(t *testing.T) {
	base := time.Now()
	var rows []*entity.ChatMessageRaw
	for i := 0; i < 8; i++ {
		role := constant.ChatMessageRoleUser
		if i%2 == 1 {
			role = constant.ChatMessageRoleModel
		}
		rows = append(rows, rawMessage(role, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second)))
	}
	loader := NewLoader(&fakeFactory{uow: &fakeUow{raw: &fakeRawRepo{rows: rows}}})

	messages, err := loader.LoadConversationHistory(context.Background(), uuid.New(), 4)
	require.NoError(t, err)
	require.Len(t, messages, 6)

	// The priming pair (the oldest two rows) stays even on long sessions;
	// the rest of the window keeps the newest rows in chronological order.
	assert.Equal(t, "a", messages[0].Content)
	assert.Equal(t, "b", messages[1].Content)
	assert.Equal(t, "e", messages[2].Content)
	assert.Equal(t, "h", messages[5].Content)
}
