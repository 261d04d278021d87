// Package stream pushes market events to websocket subscribers. The
// hub is an event.Sink: emission never blocks an operation, and slow
// subscribers drop messages instead of backing up the market.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"pollmarket/internal/event"
)

type subscriber struct {
	ch chan []byte
}

type Hub struct {
	Logger *zap.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger: logger,
		subs:   make(map[*subscriber]struct{}),
	}
}

// Emit broadcasts the event to every connected subscriber.
func (h *Hub) Emit(_ context.Context, ev event.Event) {
	if h == nil {
		return
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- raw:
		default:
			// Subscriber is not keeping up; drop this message.
		}
	}
}

// Handle upgrades the request to a websocket and streams events until
// the client disconnects.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS is handled by the gin middleware
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := &subscriber{ch: make(chan []byte, 32)}
	h.add(sub)
	defer h.remove(sub)

	// CloseRead tells us when the peer goes away; we never expect
	// inbound frames.
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.ch:
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, sub)
}

// Subscribers reports the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
