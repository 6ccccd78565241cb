package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/async_mandel/server"
)

// client talks to the Mandelbrot server's http and websocket API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{base: strings.TrimRight(base, "/"), http: http.DefaultClient}
}

// generate submits req and returns the server's effective request.
func (c *client) generate(ctx context.Context, req server.GenerateRequest) (server.GenerateResponse, error) {
	var out server.GenerateResponse

	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("marshal: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return out, fmt.Errorf("POST generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return out, fmt.Errorf("POST generate: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode generate response: %w", err)
	}
	return out, nil
}

// awaitDone blocks until the server reports a finished generation.
// Call it after generate: an idle first event means the render already finished.
func (c *client) awaitDone(ctx context.Context, conn *websocket.Conn) error {
	for {
		var ev server.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		switch ev.Event {
		case server.EventProgress:
			if !ev.Generating {
				return nil
			}
			if ev.Max > 0 {
				log.Printf("progress: %.1f%%", 100*float64(ev.Progress.Progress)/float64(ev.Max))
			}
		case server.EventDone:
			if !ev.Generating {
				return nil
			}
		}
	}
}

// dial opens the event websocket.
func (c *client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.base + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial %s: %w", u, err)
	}
	return conn, nil
}

// result downloads the finished image as png.
func (c *client) result(ctx context.Context, w io.Writer) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/result", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(hreq)
	if err != nil {
		return fmt.Errorf("GET result: %w", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("no image available: %s", bytes.TrimSpace(msg))
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
