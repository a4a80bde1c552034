package agui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStreamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()

	router := mux.NewRouter()
	router.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"question":"hello?"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}).Methods(http.MethodPost)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func collectTexts(t *testing.T, stream *MessageIterator) []string {
	t.Helper()

	var texts []string
	for {
		message, more, err := stream.Next(context.Background())
		require.NoError(t, err)
		if !more {
			return texts
		}
		texts = append(texts, message.Text)
	}
}

func TestHTTPStreamYieldsMessages(t *testing.T) {
	server := newStreamServer(t, []string{
		`data: {"text":"hello"}`,
		"",
		`data: {"text":"world"}`,
	})

	client, err := New(Config{ServerURL: server.URL + "/stream", TimeoutSeconds: 5})
	require.NoError(t, err)

	stream, err := client.Stream(context.Background(), "hello?")
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"hello", "world"}, collectTexts(t, stream))
}

func TestHTTPStreamBareJSONLines(t *testing.T) {
	server := newStreamServer(t, []string{
		`{"user":"bot","message":"hi"}`,
		`plain text line`,
	})

	client, err := New(Config{ServerURL: server.URL + "/stream", TimeoutSeconds: 5})
	require.NoError(t, err)

	stream, err := client.Stream(context.Background(), "hello?")
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"bot: hi", "plain text line"}, collectTexts(t, stream))
}

func TestHTTPStreamServerErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(Config{ServerURL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = client.Stream(context.Background(), "hello?")
	require.Error(t, err)

	var clientErr *AgUIError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrorTypeServer, clientErr.Type)
}

func TestHTTPStreamConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client, err := New(Config{ServerURL: serverURL, TimeoutSeconds: 1})
	require.NoError(t, err)

	_, err = client.Stream(context.Background(), "hello?")
	require.Error(t, err)

	var clientErr *AgUIError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrorTypeConnection, clientErr.Type)
}

func TestHTTPStreamCancelledContext(t *testing.T) {
	server := newStreamServer(t, []string{`{"text":"hello"}`})

	client, err := New(Config{ServerURL: server.URL + "/stream", TimeoutSeconds: 5})
	require.NoError(t, err)

	stream, err := client.Stream(context.Background(), "hello?")
	require.NoError(t, err)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
