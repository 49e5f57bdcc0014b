package negotiation

import (
	"context"
	"errors"

	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/util"
)

const loopQueueSize = 256

// Loop is the ordered event queue of one session. Events posted from any
// goroutine (signaling reader, media callbacks) run one at a time in arrival
// order on the goroutine executing Run. A handler that blocks on the media
// binding holds the queue until it returns.
type Loop struct {
	id     string
	events chan func() error
	done   chan struct{}
}

// NewLoop creates a Loop; id is only used to prefix log lines.
func NewLoop(id string) *Loop {
	return &Loop{
		id:     id[:min(8, len(id))],
		events: make(chan func() error, loopQueueSize),
		done:   make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false once
// the loop has stopped.
func (l *Loop) Post(fn func() error) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.events <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes events until ctx is cancelled. Handler errors are logged and
// never stop the loop.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case fn := <-l.events:
			l.report(fn())
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrDecode),
		errors.Is(err, ErrUnexpectedMessage),
		errors.Is(err, ErrInvalidState):
		util.LogWarning("[%s] message discarded: %v", l.id, err)
	default:
		util.LogError("[%s] %v", l.id, err)
	}
}
