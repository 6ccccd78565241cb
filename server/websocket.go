package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// hub fans events out to websocket subscribers.
// Slow subscribers miss progress events rather than block the broadcaster.
// A done event is always queued, evicting the oldest queued event if needed.
type hub struct {
	m    sync.Mutex
	subs map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan Event]struct{})}
}

func (h *hub) subscribe() chan Event {
	ch := make(chan Event, 8)
	h.m.Lock()
	h.subs[ch] = struct{}{}
	h.m.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan Event) {
	h.m.Lock()
	delete(h.subs, ch)
	h.m.Unlock()
}

func (h *hub) broadcast(ev Event) {
	h.m.Lock()
	defer h.m.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		if ev.Event != EventDone {
			continue
		}
		// broadcast is the only sender and holds h.m, so one eviction makes room.
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

func (h *hub) count() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.subs)
}

// handleWebsocket streams progress and completion events.
// The current progress is sent right after the handshake.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.logger.Println(err)
		return
	}
	defer c.CloseNow()

	events := s.hub.subscribe()
	defer s.hub.unsubscribe(events)
	s.logger.Printf("ws subscriber connected from %s (%d total)", r.RemoteAddr, s.hub.count())

	// We never expect messages from the client.
	ctx := c.CloseRead(r.Context())

	if err := writeEvent(ctx, c, Event{Event: EventProgress, Progress: s.backend.Progress()}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := writeEvent(ctx, c, ev); err != nil {
				s.logger.Printf("ws write to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, c *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, ev)
}
