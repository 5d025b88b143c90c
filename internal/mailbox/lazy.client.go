package mailbox

import (
	"context"
	"sync"
)

// Lazy defers Gmail authorization to the first reconciliation tick so a
// missing or expired token never prevents the service from booting. A failed
// init is retried on the next call.
type Lazy struct {
	mu    sync.Mutex
	inner Client
	init  func(ctx context.Context) (Client, error)
}

func NewLazy(init func(ctx context.Context) (Client, error)) *Lazy {
	return &Lazy{init: init}
}

func (l *Lazy) client(ctx context.Context) (Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return l.inner, nil
	}
	c, err := l.init(ctx)
	if err != nil {
		return nil, err
	}
	l.inner = c
	return c, nil
}

func (l *Lazy) List(ctx context.Context, query string, max int64) ([]string, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.List(ctx, query, max)
}

func (l *Lazy) Get(ctx context.Context, id string) (*Message, error) {
	c, err := l.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, id)
}
