package agui

import (
	"context"
	"errors"
	"io"
)

// payloadSource is the closed set of transport drivers. Each instance
// produces the raw text payloads of exactly one stream call; next returns
// io.EOF after the final payload.
type payloadSource interface {
	next() (string, error)
	close() error
}

// MessageIterator provides a blocking iterator over streaming responses.
// It is forward-only and not restartable; abandoning it early only
// requires calling Close.
type MessageIterator struct {
	source payloadSource
	closed bool
}

func newMessageIterator(source payloadSource) *MessageIterator {
	return &MessageIterator{source: source}
}

// Next blocks until the next message is available. The boolean reports
// whether more data may follow; it is false after normal termination.
// Any transport failure closes the underlying connection before being
// returned.
func (it *MessageIterator) Next(ctx context.Context) (Message, bool, error) {
	if it.closed {
		return Message{}, false, nil
	}

	select {
	case <-ctx.Done():
		it.Close()
		return Message{}, false, ctx.Err()
	default:
	}

	raw, err := it.source.next()
	if err != nil {
		it.Close()
		var clientErr *AgUIError
		if errors.As(err, &clientErr) {
			return Message{}, false, err
		}
		if errors.Is(err, io.EOF) {
			return Message{}, false, nil
		}
		return Message{}, false, newError(
			ErrorTypeConnection,
			"failed to read stream message",
			withCause(err),
		)
	}

	return Normalize(raw), true, nil
}

// Close releases the underlying transport. Safe to call more than once.
func (it *MessageIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.source.close()
}
