package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"libraryhub/internal/notify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memLocker is an in-process Locker.
type memLocker struct {
	mu      sync.Mutex
	held    map[string]string
	marks   map[string]bool
	err     error
	unlocks int
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}, marks: map[string]bool{}}
}

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.held[key] = "token-" + key
	return l.held[key], true, nil
}

func (l *memLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	l.unlocks++
	return nil
}

func (l *memLocker) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.marks[key] {
		return false, nil
	}
	l.marks[key] = true
	return true, nil
}

var errRedisDown = errors.New("redis: connection refused")

type captureSender struct {
	mu   sync.Mutex
	msgs []notify.Message
	ok   bool
}

func (c *captureSender) Deliver(_ context.Context, msg notify.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.ok
}

func (c *captureSender) sent() []notify.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Message(nil), c.msgs...)
}
