package history

import (
	"context"

	"review-insights-be/internal/constant"
	"review-insights-be/internal/entity"
	"review-insights-be/internal/repository/specification"
	"review-insights-be/internal/repository/unitofwork"
	"review-insights-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader reads recent raw conversation history for LLM context. The raw
// log includes the session priming prompts; they are pinned past the
// recency window so they ride along on every turn without being user
// visible.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{
		uowFactory: uowFactory,
	}
}

// LoadConversationHistory returns the pinned session priming pair plus up
// to limit recent raw messages, in chronological order and mapped to
// provider-agnostic roles.
func (l *Loader) LoadConversationHistory(ctx context.Context, sessionId uuid.UUID, limit int) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	rawChats, err := uow.ChatMessageRawRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	// rawChats is newest first. When the window truncates, pin the two
	// oldest rows: the priming pair written at session creation.
	var pinned []*entity.ChatMessageRaw
	if len(rawChats) > limit {
		dropped := rawChats[limit:]
		if len(dropped) > 2 {
			dropped = dropped[len(dropped)-2:]
		}
		pinned = dropped
		rawChats = rawChats[:limit]
	}

	messages := make([]llm.Message, 0, len(pinned)+len(rawChats))
	messages = appendChronological(messages, pinned)
	messages = appendChronological(messages, rawChats)
	return messages, nil
}

// appendChronological reverses a newest-first slice into messages with
// provider-agnostic roles.
func appendChronological(messages []llm.Message, rows []*entity.ChatMessageRaw) []llm.Message {
	for i := len(rows) - 1; i >= 0; i-- {
		chat := rows[i]

		role := "user"
		if chat.Role == constant.ChatMessageRoleModel {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: chat.Chat,
		})
	}
	return messages
}
