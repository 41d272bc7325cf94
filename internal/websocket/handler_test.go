package websocket

import (
	"context"
	"testing"
	"time"

	"review-insights-be/internal/dto"
	"review-insights-be/internal/service"
	"review-insights-be/pkg/insight/stream"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// blockingInsightService stands in for a long generation: it holds the
// turn open until its context is cancelled.
type blockingInsightService struct {
	service.IInsightService
	started chan struct{}
}

func (s *blockingInsightService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest, emit func(stream.Unit) error) (*dto.SendChatResponse, error) {
	close(s.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnswerStopsWhenClientDisconnects(t *testing.T) {
	svc := &blockingInsightService{started: make(chan struct{})}
	h := NewInsightStreamHandler(nil, svc, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		UserID:   uuid.New(),
		Send:     make(chan []byte, 8),
		lifetime: ctx,
		cancel:   cancel,
	}

	done := make(chan struct{})
	go func() {
		h.answer(client, &dto.SendChatRequest{ChatSessionId: uuid.New(), Chat: "still there?"})
		close(done)
	}()

	<-svc.started
	// What readPump does when the peer goes away.
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("answer kept consuming the generation after disconnect")
	}
	assert.NotEmpty(t, client.Send)
}

func TestClientContextDefaultsToBackground(t *testing.T) {
	c := &Client{}
	assert.NoError(t, c.Context().Err())
}
