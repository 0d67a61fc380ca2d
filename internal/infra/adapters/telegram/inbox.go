package telegram

import (
	"context"
	"sync"

	"telegram-storefront-bot/internal/domain/model"
)

// inbox keeps one FIFO per sender. A sender with queued messages has exactly
// one drain goroutine, and at most cap(sem) handlers run at once across all
// senders. push never blocks, so a slow handler only delays its own sender.
type inbox struct {
	ctx     context.Context
	run     func(model.Message)
	backlog int
	sem     chan struct{}

	mu     sync.Mutex
	queues map[int64][]model.Message // key present while a drain goroutine runs
	wg     sync.WaitGroup
}

func newInbox(ctx context.Context, workers, backlog int, run func(model.Message)) *inbox {
	if workers <= 0 {
		workers = 1
	}
	return &inbox{
		ctx:     ctx,
		run:     run,
		backlog: backlog,
		sem:     make(chan struct{}, workers),
		queues:  make(map[int64][]model.Message),
	}
}

// push queues msg behind earlier messages from the same sender. It reports
// false when that sender already has backlog messages waiting.
func (b *inbox) push(msg model.Message) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, active := b.queues[msg.SenderID]
	if len(q) >= b.backlog {
		return false
	}
	b.queues[msg.SenderID] = append(q, msg)
	if !active {
		b.wg.Add(1)
		go b.drain(msg.SenderID)
	}
	return true
}

func (b *inbox) drain(senderID int64) {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		q := b.queues[senderID]
		if len(q) == 0 || b.ctx.Err() != nil {
			delete(b.queues, senderID)
			b.mu.Unlock()
			return
		}
		msg := q[0]
		b.queues[senderID] = q[1:]
		b.mu.Unlock()

		select {
		case b.sem <- struct{}{}:
		case <-b.ctx.Done():
			continue
		}
		b.run(msg)
		<-b.sem
	}
}

// wait blocks until every drain goroutine has exited.
func (b *inbox) wait() { b.wg.Wait() }
