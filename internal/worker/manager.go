package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"memehub/internal/queue"
)

const (
	readBatchSize = 10
	readBlock     = 5 * time.Second
)

// Manager runs a pool of workers draining the feed event stream.
type Manager struct {
	consumer *queue.Consumer
	handler  *Handler
	count    int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(consumer *queue.Consumer, handler *Handler, count int) *Manager {
	return &Manager{
		consumer: consumer,
		handler:  handler,
		count:    count,
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 0; i < m.count; i++ {
		name := fmt.Sprintf("worker-%d", i)
		m.wg.Add(1)
		go m.run(ctx, name)
	}

	log.Printf("[Worker] Started %d feed workers", m.count)
	return nil
}

// Stop signals the workers and waits for in-flight events to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	log.Println("[Worker] All feed workers stopped")
}

func (m *Manager) run(ctx context.Context, name string) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := m.consumer.Read(ctx, name, readBatchSize, readBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker] %s: read failed: %v", name, err)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			if err := m.handler.Handle(ctx, msg.Event); err != nil {
				// Leave the message pending so another worker can retry it.
				log.Printf("[Worker] %s: failed to handle %s event: %v", name, msg.Event.Type, err)
				continue
			}
			if err := m.consumer.Ack(ctx, msg.ID); err != nil {
				log.Printf("[Worker] %s: %v", name, err)
			}
		}
	}
}
