package scenario

import (
	"log/slog"
	"sync"

	"github.com/MikeSquared-Agency/Funding/internal/hermes"
)

// eventQueueSize bounds the events waiting to be published.
const eventQueueSize = 256

type event struct {
	subject string
	data    any
}

// publisher hands events to a hermes client from its own goroutine so a
// slow or disconnected broker never holds up an evaluation.
type publisher struct {
	client hermes.Client
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan event
	wg     sync.WaitGroup
}

func newPublisher(client hermes.Client, logger *slog.Logger) *publisher {
	p := &publisher{
		client: client,
		logger: logger,
		queue:  make(chan event, eventQueueSize),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *publisher) run() {
	defer p.wg.Done()
	for ev := range p.queue {
		if err := p.client.Publish(ev.subject, ev.data); err != nil {
			p.logger.Warn("failed to publish event", "subject", ev.subject, "error", err)
		}
	}
}

// enqueue never blocks. Events are dropped once the queue is full or the
// publisher is closed.
func (p *publisher) enqueue(subject string, data any) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- event{subject: subject, data: data}:
	default:
		p.logger.Warn("event queue full, dropping event", "subject", subject)
	}
}

// close stops accepting events and waits for the queued ones.
func (p *publisher) close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
