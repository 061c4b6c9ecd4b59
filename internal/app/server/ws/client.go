package ws

import (
	"context"
	"errors"
	"sync"
)

type RuntimeClient struct {
	ctx        context.Context
	cancel     context.CancelFunc
	ws         *WebSocket
	identityID string
	out        chan []byte
	once       sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, identityID string) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:        ctx,
		cancel:     cancel,
		ws:         ws,
		identityID: identityID,
		out:        make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) IdentityID() string { return c.identityID }

// Send enqueues a frame for the write loop. The out channel is never closed;
// subscription goroutines may still be inside Send when the connection tears
// down, so closure is signalled through the context alone.
func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	if c.ctx.Err() != nil {
		return errors.New("client closed")
	}
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New("client closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			_ = c.ws.WriteMessage(data)
		}
	}
}
