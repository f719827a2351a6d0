package outbox_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/outbox"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

type fakePublisher struct {
	failFirst int
	calls     int
	published []domain.OutboxMessage
}

func (p *fakePublisher) Publish(event domain.OutboxMessage) error {
	p.calls++
	if p.calls <= p.failFirst {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func TestWorker_ProcessOnce(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{}
	worker := outbox.NewWorker(repo, publisher, outbox.WithRetryBaseDelay(0))

	if _, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.placed",
		Payload:       []byte(`{"order_id":"order-1"}`),
	}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	worker.ProcessOnce(context.Background())

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages after publish, got %d", len(pending))
	}
}

func TestWorker_RetriesTransientErrors(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{failFirst: 2}
	worker := outbox.NewWorker(repo, publisher,
		outbox.WithMaxAttempts(3), outbox.WithRetryBaseDelay(0))

	if _, err := repo.Enqueue(domain.OutboxMessage{EventType: "order.placed"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	worker.ProcessOnce(context.Background())

	if publisher.calls != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", publisher.calls)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected event published on the last attempt, got %d", len(publisher.published))
	}
}

func TestWorker_ExhaustedRetriesGoToDLQ(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{failFirst: 100}
	dlq := &fakePublisher{}
	worker := outbox.NewWorker(repo, publisher,
		outbox.WithMaxAttempts(2), outbox.WithRetryBaseDelay(0), outbox.WithDLQPublisher(dlq))

	if _, err := repo.Enqueue(domain.OutboxMessage{ID: "msg-1", EventType: "order.placed"}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	worker.ProcessOnce(context.Background())

	if len(dlq.published) != 1 || dlq.published[0].ID != "msg-1" {
		t.Fatalf("expected message in DLQ, got %+v", dlq.published)
	}
	// Сообщение помечено failed и не возвращается в pending.
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages, got %d", len(pending))
	}
}
