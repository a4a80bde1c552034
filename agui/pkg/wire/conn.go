package wire

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// acceptGUID is the fixed key-hashing GUID from RFC 6455 section 1.3.
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// HandshakeError reports an upgrade exchange that completed on the wire
// but did not switch protocols.
type HandshakeError struct {
	StatusLine string
	Reason     string
}

func (e *HandshakeError) Error() string {
	if e.StatusLine != "" {
		return fmt.Sprintf("websocket handshake failed: %s (%s)", e.Reason, e.StatusLine)
	}
	return fmt.Sprintf("websocket handshake failed: %s", e.Reason)
}

// DialConfig carries the parameters needed to reach and upgrade one endpoint.
type DialConfig struct {
	Host    string
	Port    int
	Path    string // request target, including any query string
	TLS     bool
	Timeout time.Duration

	// TLSConfig overrides the default TLS client configuration. When nil,
	// system roots are used and the certificate is verified against Host.
	TLSConfig *tls.Config
}

// Conn is a client-side WebSocket connection with a completed upgrade
// handshake. Reads go through a buffered reader so bytes over-read while
// parsing the handshake response are not lost; writes go straight to the
// socket.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Dial opens a TCP connection (TLS-wrapped when requested), performs the
// WebSocket upgrade handshake and returns a connection ready for framed
// I/O. The socket is closed before returning any error.
func Dial(ctx context.Context, cfg DialConfig) (*Conn, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := net.Dialer{Timeout: cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if cfg.TLS {
		tlsConfig := cfg.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		} else {
			tlsConfig = tlsConfig.Clone()
		}
		if tlsConfig.ServerName == "" {
			tlsConfig.ServerName = cfg.Host
		}

		tlsConn := tls.Client(netConn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			netConn.Close()
			return nil, fmt.Errorf("tls handshake with %s: %w", cfg.Host, err)
		}
		netConn = tlsConn
	}

	c := &Conn{conn: netConn, reader: bufio.NewReader(netConn)}
	if err := c.upgrade(cfg); err != nil {
		netConn.Close()
		return nil, err
	}

	log.Debug().Str("addr", addr).Str("path", cfg.Path).Msg("websocket handshake complete")
	return c, nil
}

func (c *Conn) upgrade(cfg DialConfig) error {
	var nonce [16]byte
	_, _ = rand.Read(nonce[:])
	key := base64.StdEncoding.EncodeToString(nonce[:])

	target := cfg.Path
	if target == "" {
		target = "/"
	}

	var req strings.Builder
	fmt.Fprintf(&req, "GET %s HTTP/1.1\r\n", target)
	fmt.Fprintf(&req, "Host: %s\r\n", cfg.Host)
	req.WriteString("Upgrade: websocket\r\n")
	req.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&req, "Sec-WebSocket-Key: %s\r\n", key)
	req.WriteString("Sec-WebSocket-Version: 13\r\n\r\n")

	if cfg.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(cfg.Timeout)); err != nil {
			return fmt.Errorf("set handshake deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write([]byte(req.String())); err != nil {
		return fmt.Errorf("send upgrade request: %w", err)
	}

	statusLine, headers, err := c.readUpgradeResponse()
	if err != nil {
		return fmt.Errorf("read upgrade response: %w", err)
	}

	if !strings.Contains(statusLine, "101") {
		return &HandshakeError{StatusLine: statusLine, Reason: "server refused the protocol upgrade"}
	}
	if accept := headers["sec-websocket-accept"]; accept != acceptKey(key) {
		return &HandshakeError{StatusLine: statusLine, Reason: fmt.Sprintf("bad Sec-WebSocket-Accept value %q", accept)}
	}
	return nil
}

// readUpgradeResponse consumes the handshake response up to the blank
// line terminating the header block. Header names are lowercased.
func (c *Conn) readUpgradeResponse() (string, map[string]string, error) {
	statusLine, err := c.reader.ReadString('\n')
	if err != nil {
		return "", nil, err
	}
	statusLine = strings.TrimRight(statusLine, "\r\n")

	headers := make(map[string]string)
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return statusLine, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return statusLine, headers, nil
		}
		if name, value, ok := strings.Cut(line, ":"); ok {
			headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
		}
	}
}

func acceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// WriteFrame sends one masked frame, as required for the client side of a
// connection.
func (c *Conn) WriteFrame(opcode byte, payload []byte) error {
	if _, err := c.conn.Write(Encode(opcode, payload, true)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame blocks until one full frame has been read. A zero deadline
// waits indefinitely.
func (c *Conn) ReadFrame(deadline time.Time) (Frame, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Frame{}, fmt.Errorf("set read deadline: %w", err)
	}
	return Decode(c.reader)
}

// Close shuts the underlying socket down. Safe to call more than once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
