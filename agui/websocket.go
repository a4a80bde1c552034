package agui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agui-dev/agui-go/agui/pkg/wire"
)

// frameReadPause keeps the receive loop from spinning hot on servers that
// trickle frames out over a long-lived connection.
const frameReadPause = 10 * time.Millisecond

// wsStream yields text payloads from a live WebSocket connection. Pings
// are answered with pongs, binary frames are dropped, and a close frame
// ends the stream cleanly.
type wsStream struct {
	conn    *wire.Conn
	timeout time.Duration
	started bool
	done    bool
}

func (c *Client) streamWebSocket(ctx context.Context, payload []byte) (*MessageIterator, error) {
	conn, err := wire.Dial(ctx, wire.DialConfig{
		Host:    c.endpoint.host,
		Port:    c.endpoint.port,
		Path:    c.endpoint.path,
		TLS:     c.endpoint.secure(),
		Timeout: c.timeout,
	})
	if err != nil {
		var handshakeErr *wire.HandshakeError
		if errors.As(err, &handshakeErr) {
			return nil, newError(
				ErrorTypeHandshake,
				"websocket upgrade failed",
				withCode("UPGRADE_FAILED"),
				withCause(err),
			)
		}
		return nil, newError(
			ErrorTypeConnection,
			"failed to open websocket connection",
			withCause(err),
			withSuggestion("Check the server URL and your network connection"),
		)
	}

	if err := conn.WriteFrame(wire.OpText, payload); err != nil {
		conn.Close()
		return nil, newError(ErrorTypeConnection, "failed to send question payload", withCause(err))
	}

	return newMessageIterator(&wsStream{conn: conn, timeout: c.timeout}), nil
}

// next decodes frames until a text frame arrives, handling control frames
// along the way. A brief pause separates consecutive frame reads.
func (w *wsStream) next() (string, error) {
	if w.done {
		return "", io.EOF
	}

	for {
		if w.started {
			time.Sleep(frameReadPause)
		}
		w.started = true

		frame, err := w.conn.ReadFrame(w.readDeadline())
		if err != nil {
			return "", newError(ErrorTypeConnection, "websocket connection closed unexpectedly", withCause(err))
		}

		switch frame.Opcode {
		case wire.OpText:
			return strings.ToValidUTF8(string(frame.Payload), "�"), nil
		case wire.OpPing:
			if err := w.conn.WriteFrame(wire.OpPong, frame.Payload); err != nil {
				return "", newError(ErrorTypeConnection, "failed to answer ping", withCause(err))
			}
		case wire.OpClose:
			w.done = true
			return "", io.EOF
		default:
			log.Debug().Uint8("opcode", frame.Opcode).Msg("dropping unhandled frame")
		}
	}
}

func (w *wsStream) readDeadline() time.Time {
	if w.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(w.timeout)
}

func (w *wsStream) close() error {
	return w.conn.Close()
}
