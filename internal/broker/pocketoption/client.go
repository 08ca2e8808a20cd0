package pocketoption

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"binary-options-assistant/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected = errors.New("pocketoption: not connected")
	ErrTimeout      = errors.New("pocketoption: request timed out")
	ErrAuth         = errors.New("pocketoption: authentication failed")
)

// eventHandler receives every decoded event from the read loop.
type eventHandler func(event string, payload json.RawMessage)

type client struct {
	url         string
	origin      string
	dialTimeout time.Duration
	attempts    int
	limiter     *rate.Limiter
	onEvent     eventHandler

	writeMu sync.Mutex
	conn    *websocket.Conn
	closed  chan struct{}
	once    sync.Once
}

func newClient(p Params, onEvent eventHandler) *client {
	rps := p.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &client{
		url:         p.URL,
		origin:      p.Origin,
		dialTimeout: p.RequestTimeout,
		attempts:    p.DialAttempts,
		limiter:     rate.NewLimiter(rate.Limit(rps), burst),
		onEvent:     onEvent,
		closed:      make(chan struct{}),
	}
}

func (c *client) dial(ctx context.Context) error {
	header := http.Header{}
	if c.origin != "" {
		header.Set("Origin", c.origin)
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}

	attempts := c.attempts
	if attempts < 1 {
		attempts = 1
	}
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1)),
		ctx,
	)

	try := 0
	op := func() error {
		try++
		conn, resp, err := dialer.DialContext(ctx, c.url, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			logger.Warn(ctx, "PocketOption dial failed", "attempt", try, "error", err.Error())
			return err
		}
		c.conn = conn
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	return nil
}

// handshake answers the Engine.IO open with a namespace connect and, once
// the server confirms it, sends the session frame.
func (c *client) handshake(ctx context.Context, ssid string) error {
	deadline := time.Now().Add(c.dialTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = c.conn.SetReadDeadline(deadline)
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		f, err := parseFrame(msg)
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
		switch f.kind {
		case frameOpen:
			if err := c.writeRaw([]byte(connectFrame)); err != nil {
				return err
			}
		case framePing:
			if err := c.writeRaw([]byte(pongFrame)); err != nil {
				return err
			}
		case frameConnect:
			return c.writeRaw([]byte(ssid))
		case frameConnectError:
			return fmt.Errorf("%w: %s", ErrAuth, string(f.payload))
		}
	}
}

func (c *client) readLoop(ctx context.Context) {
	defer c.shutdown()

	var pending string
	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				logger.Warn(ctx, "PocketOption connection lost", "error", err.Error())
			}
			return
		}

		if kind == websocket.BinaryMessage {
			if pending == "" {
				continue
			}
			event := pending
			pending = ""
			c.onEvent(event, json.RawMessage(trimAttachment(msg)))
			continue
		}

		f, err := parseFrame(msg)
		if err != nil {
			logger.Debug(ctx, "PocketOption frame skipped", "error", err.Error())
			continue
		}
		switch f.kind {
		case framePing:
			if err := c.writeRaw([]byte(pongFrame)); err != nil {
				return
			}
		case frameClose, frameDisconnect:
			return
		case frameEvent:
			c.onEvent(f.event, f.payload)
		case frameBinaryEvent:
			if f.attachments > 0 && isPlaceholder(f.payload) {
				pending = f.event
				continue
			}
			c.onEvent(f.event, f.payload)
		}
	}
}

// Binary attachments sometimes carry a leading 0x04 message-type byte.
func trimAttachment(b []byte) []byte {
	if len(b) > 0 && b[0] == 0x04 {
		return b[1:]
	}
	return b
}

func (c *client) emit(ctx context.Context, event string, payload any) error {
	if c.isClosed() {
		return ErrNotConnected
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	b, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	return c.writeRaw(b)
}

func (c *client) writeRaw(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

func (c *client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return c.conn == nil
	}
}

func (c *client) shutdown() {
	c.once.Do(func() {
		close(c.closed)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *client) close() {
	if c.conn != nil && !c.isClosed() {
		_ = c.writeRaw([]byte(closeFrame))
	}
	c.shutdown()
}
