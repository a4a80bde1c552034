package agui

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agui-dev/agui-go/agui/pkg/constants"
	"github.com/agui-dev/agui-go/agui/pkg/db"
)

// Client is the entry point for streaming questions to an ag-ui server.
// A Client is cheap and stateless; every Stream call owns its own
// connection.
type Client struct {
	endpoint   serverEndpoint
	timeout    time.Duration
	httpClient *http.Client
}

// serverEndpoint is the parsed stream target.
type serverEndpoint struct {
	scheme string
	host   string
	port   int
	path   string // includes the query string
	url    string
}

func (e serverEndpoint) secure() bool {
	return e.scheme == "https" || e.scheme == "wss"
}

func (e serverEndpoint) websocket() bool {
	return e.scheme == "ws" || e.scheme == "wss"
}

// New creates a client. The server URL is resolved from cfg.ServerURL,
// then the AG_UI_SERVER environment variable, then the local registry
// default, and is parsed eagerly so configuration mistakes surface before
// any network activity.
func New(cfg Config) (*Client, error) {
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = strings.TrimSpace(os.Getenv(constants.EnvServerURL))
	}
	if serverURL == "" {
		serverURL = lookupDefaultServer()
	}
	if serverURL == "" {
		return nil, newError(
			ErrorTypeConfiguration,
			"no server URL configured",
			withSuggestion("Pass Config.ServerURL, set AG_UI_SERVER, or register a default with 'agui servers add'"),
		)
	}

	endpoint, err := parseEndpoint(serverURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = envTimeoutSeconds()
	}
	if timeout <= 0 {
		timeout = constants.DefaultTimeoutSeconds
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newStreamingHTTPClient(timeoutDuration)
	}

	return &Client{
		endpoint:   endpoint,
		timeout:    timeoutDuration,
		httpClient: httpClient,
	}, nil
}

// ServerURL returns the resolved stream endpoint URL.
func (c *Client) ServerURL() string {
	return c.endpoint.url
}

// Stream sends the question and returns an iterator over normalized
// response messages. The transport driver is selected by URL scheme:
// http/https use a streaming POST, ws/wss a raw WebSocket connection.
func (c *Client) Stream(ctx context.Context, question string) (*MessageIterator, error) {
	payload, err := json.Marshal(questionPayload{Question: question})
	if err != nil {
		return nil, newError(ErrorTypeUnknown, "failed to serialize question", withCause(err))
	}

	if c.endpoint.websocket() {
		return c.streamWebSocket(ctx, payload)
	}
	return c.streamHTTP(ctx, payload)
}

// ValidateServerURL reports whether raw is usable as a stream endpoint.
func ValidateServerURL(raw string) error {
	_, err := parseEndpoint(raw)
	return err
}

func parseEndpoint(raw string) (serverEndpoint, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return serverEndpoint{}, newError(
			ErrorTypeConfiguration,
			fmt.Sprintf("invalid server URL %q", raw),
			withCause(err),
		)
	}

	scheme := strings.ToLower(parsed.Scheme)
	switch scheme {
	case "http", "https", "ws", "wss":
	default:
		return serverEndpoint{}, newError(
			ErrorTypeConfiguration,
			fmt.Sprintf("unsupported server URL scheme: %q", parsed.Scheme),
			withCode("UNSUPPORTED_SCHEME"),
			withSuggestion("Use an http://, https://, ws:// or wss:// URL"),
		)
	}

	host := parsed.Hostname()
	if host == "" {
		return serverEndpoint{}, newError(
			ErrorTypeConfiguration,
			fmt.Sprintf("server URL %q has no host", raw),
		)
	}

	port := constants.DefaultHTTPPort
	if scheme == "https" || scheme == "wss" {
		port = constants.DefaultTLSPort
	}
	if portStr := parsed.Port(); portStr != "" {
		parsedPort, err := strconv.Atoi(portStr)
		if err != nil {
			return serverEndpoint{}, newError(
				ErrorTypeConfiguration,
				fmt.Sprintf("invalid port in server URL %q", raw),
				withCause(err),
			)
		}
		port = parsedPort
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path = path + "?" + parsed.RawQuery
	}

	return serverEndpoint{
		scheme: scheme,
		host:   host,
		port:   port,
		path:   path,
		url:    parsed.String(),
	}, nil
}

// lookupDefaultServer consults the local registry. Any failure (missing
// database, empty registry) resolves to no URL rather than an error so
// configuration problems are reported uniformly by New.
func lookupDefaultServer() string {
	svc, err := db.NewService("")
	if err != nil {
		log.Debug().Err(err).Msg("server registry unavailable")
		return ""
	}
	defer svc.Close()

	server, err := svc.GetDefault()
	if err != nil || server == nil {
		return ""
	}

	log.Debug().Str("name", server.Name).Str("url", server.URL).Msg("using registry default server")
	return server.URL
}

func envTimeoutSeconds() int {
	timeoutStr := os.Getenv(constants.EnvTimeout)
	if timeoutStr == "" {
		return 0
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return 0
	}
	return timeout
}

// newStreamingHTTPClient bounds connection setup and the wait for
// response headers without capping total body read time, so long-lived
// streams are not cut off mid-flight.
func newStreamingHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}
