package agui

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxLineSize bounds a single response line; servers emit one message per
// line so anything larger is malformed.
const maxLineSize = 1 << 20

// httpStream reads one streaming HTTP response body line by line. It
// accepts both Server-Sent-Events-style "data:" lines and bare
// newline-delimited JSON.
type httpStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func (c *Client) streamHTTP(ctx context.Context, payload []byte) (*MessageIterator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.url, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(ErrorTypeUnknown, "failed to create request", withCause(err))
	}
	req.Header.Set("Accept", "text/event-stream, application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(
			ErrorTypeConnection,
			"failed to reach the ag-ui server",
			withCause(err),
			withSuggestion("Check the server URL and your network connection"),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, newError(
			ErrorTypeServer,
			fmt.Sprintf("server returned status %d", resp.StatusCode),
		)
	}

	log.Debug().Str("url", c.endpoint.url).Int("status", resp.StatusCode).Msg("http stream open")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return newMessageIterator(&httpStream{body: resp.Body, scanner: scanner}), nil
}

// next returns the next non-blank line with any "data:" prefix and
// surrounding whitespace stripped. It returns io.EOF once the server
// closes the response body.
func (h *httpStream) next() (string, error) {
	for h.scanner.Scan() {
		line := strings.TrimSpace(h.scanner.Text())
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			line = strings.TrimSpace(rest)
		}
		return line, nil
	}

	if err := h.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (h *httpStream) close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.body.Close()
}
