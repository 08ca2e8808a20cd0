package pocketoption

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Socket.IO v4 over Engine.IO v4, text transport.
type frameKind int

const (
	frameUnknown frameKind = iota
	frameOpen
	frameClose
	framePing
	framePong
	frameConnect
	frameDisconnect
	frameEvent
	frameBinaryEvent
	frameConnectError
)

const (
	pingFrame    = "2"
	pongFrame    = "3"
	connectFrame = "40"
	closeFrame   = "41"
)

var errBadFrame = errors.New("malformed socket.io frame")

type frame struct {
	kind        frameKind
	event       string
	payload     json.RawMessage
	attachments int
}

type placeholder struct {
	Placeholder bool `json:"_placeholder"`
	Num         int  `json:"num"`
}

func parseFrame(b []byte) (frame, error) {
	if len(b) == 0 {
		return frame{}, errBadFrame
	}
	switch b[0] {
	case '0':
		return frame{kind: frameOpen, payload: json.RawMessage(b[1:])}, nil
	case '1':
		return frame{kind: frameClose}, nil
	case '2':
		return frame{kind: framePing}, nil
	case '3':
		return frame{kind: framePong}, nil
	case '4':
	default:
		return frame{kind: frameUnknown}, nil
	}

	if len(b) < 2 {
		return frame{}, errBadFrame
	}
	body := b[2:]
	switch b[1] {
	case '0':
		return frame{kind: frameConnect, payload: json.RawMessage(body)}, nil
	case '1':
		return frame{kind: frameDisconnect}, nil
	case '4':
		return frame{kind: frameConnectError, payload: json.RawMessage(body)}, nil
	case '2':
		f, err := parseEventArray(body)
		f.kind = frameEvent
		return f, err
	case '5':
		dash := bytes.IndexByte(body, '-')
		if dash <= 0 {
			return frame{}, errBadFrame
		}
		n, err := strconv.Atoi(string(body[:dash]))
		if err != nil {
			return frame{}, fmt.Errorf("%w: attachment count: %v", errBadFrame, err)
		}
		f, err := parseEventArray(body[dash+1:])
		f.kind = frameBinaryEvent
		f.attachments = n
		return f, err
	}
	return frame{kind: frameUnknown}, nil
}

// parseEventArray decodes [event, payload?], skipping an optional ack id
// in front of the array.
func parseEventArray(b []byte) (frame, error) {
	if i := bytes.IndexByte(b, '['); i > 0 {
		b = b[i:]
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return frame{}, fmt.Errorf("%w: %v", errBadFrame, err)
	}
	if len(parts) == 0 {
		return frame{}, errBadFrame
	}
	var f frame
	if err := json.Unmarshal(parts[0], &f.event); err != nil {
		return frame{}, fmt.Errorf("%w: event name: %v", errBadFrame, err)
	}
	if len(parts) > 1 {
		f.payload = parts[1]
	}
	return f, nil
}

// isPlaceholder reports whether payload stands in for a binary attachment.
func isPlaceholder(payload json.RawMessage) bool {
	var p placeholder
	if err := json.Unmarshal(payload, &p); err != nil {
		return false
	}
	return p.Placeholder
}

func encodeEvent(event string, payload any) ([]byte, error) {
	b, err := json.Marshal([]any{event, payload})
	if err != nil {
		return nil, err
	}
	return append([]byte("42"), b...), nil
}
