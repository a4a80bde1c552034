package agui

import "net/http"

// Config captures initialization options for Client.
// Field precedence: explicit values override environment variables, which
// override the local server registry default.
type Config struct {
	// ServerURL is the full stream endpoint, including any path the
	// server requires. Recognized schemes: http, https, ws, wss.
	ServerURL string

	// TimeoutSeconds bounds connection setup and individual reads.
	TimeoutSeconds int

	// HTTPClient overrides the client used by the HTTP streaming driver.
	HTTPClient *http.Client
}

// Message is the normalized unit produced for every server payload. Text
// is the display form, possibly "speaker: body". Raw retains the decoded
// value, or the original string when decoding failed.
type Message struct {
	Text string
	Raw  interface{}
}

type questionPayload struct {
	Question string `json:"question"`
}
