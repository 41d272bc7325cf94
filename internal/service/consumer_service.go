package service

import (
	"context"
	"encoding/json"
	"log"

	"review-insights-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains queued reindex jobs through the indexer core.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	indexer   IIndexerService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	indexer IIndexerService,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		indexer:   indexer,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishReindexReportMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal reindex message: %v", err)
		// Ack invalid messages to prevent infinite retry.
		msg.Ack()
		return
	}

	log.Printf("[INFO] Reindexing report %s", payload.ReportId)

	if err := cs.indexer.ReindexReport(ctx, payload.ReportId, payload.Refresh); err != nil {
		log.Printf("[ERROR] Reindex of report %s failed: %v", payload.ReportId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Report reindexed: %s", payload.ReportId)
	msg.Ack()
}
