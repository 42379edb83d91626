package channel

import (
	"context"
	"sync"
)

const loopbackBuffer = 1024

// Loopback fans messages out to in-process subscribers. Drop, when set, is
// asked about every message with its 1-based publish sequence number and
// silently discards it when it returns true, simulating a lossy channel.
type Loopback struct {
	mu       sync.Mutex
	subs     map[chan string]struct{}
	maxBytes int
	seq      int
	closed   bool

	Drop func(msg string, seq int) bool
}

func NewLoopback(maxBytes int) *Loopback {
	return &Loopback{subs: make(map[chan string]struct{}), maxBytes: maxBytes}
}

func (l *Loopback) Publish(ctx context.Context, msg string) error {
	if err := checkSize(msg, l.maxBytes); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.seq++
	if l.Drop != nil && l.Drop(msg, l.seq) {
		log.Debugf("action: loopback_publish | result: drop | seq: %d", l.seq)
		return nil
	}
	for sub := range l.subs {
		select {
		case sub <- msg:
		default:
			log.Warningf("action: loopback_publish | result: drop | seq: %d | reason: subscriber full", l.seq)
		}
	}
	return nil
}

func (l *Loopback) Subscribe(ctx context.Context) (<-chan string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	sub := make(chan string, loopbackBuffer)
	l.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[sub]; ok {
			delete(l.subs, sub)
			close(sub)
		}
	}()
	return sub, nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for sub := range l.subs {
		delete(l.subs, sub)
		close(sub)
	}
	return nil
}
