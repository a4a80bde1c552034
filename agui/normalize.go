package agui

import (
	"encoding/json"
	"fmt"
)

// Field names probed, in order, when lifting a speaker and a body out of
// a structured payload. The first present, non-null value wins.
var (
	speakerKeys = []string{"user", "sender", "name", "role"}
	bodyKeys    = []string{"message", "content", "text", "body"}
)

// Normalize converts one raw server payload into a display message.
// The payload is parsed as JSON when possible; anything unparseable is
// passed through as opaque text rather than failing the stream. Raw
// always keeps the decoded value so normalization is lossless.
func Normalize(rawText string) Message {
	var parsed interface{}
	if err := json.Unmarshal([]byte(rawText), &parsed); err != nil {
		return Message{Text: rawText, Raw: rawText}
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return Message{Text: stringify(parsed), Raw: parsed}
	}

	var bodyText string
	body, found := firstField(obj, bodyKeys)
	switch body.(type) {
	case map[string]interface{}, []interface{}:
		bodyText = compactJSON(body)
	default:
		if !found {
			bodyText = compactJSON(obj)
		} else {
			bodyText = stringify(body)
		}
	}

	text := bodyText
	if speaker, ok := firstField(obj, speakerKeys); ok {
		text = fmt.Sprintf("%s: %s", stringify(speaker), bodyText)
	}

	return Message{Text: text, Raw: parsed}
}

func firstField(obj map[string]interface{}, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if value, ok := obj[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func compactJSON(v interface{}) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return compactJSON(v)
}
