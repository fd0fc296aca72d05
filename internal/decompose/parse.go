package decompose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxItems caps how many subtasks one decomposition may return.
const MaxItems = 10

// ResponseKind tags a decoded model response.
type ResponseKind int

const (
	// KindFallback means the response was unusable.
	KindFallback ResponseKind = iota
	// KindItems means the response carried a list of subtasks.
	KindItems
)

// String returns the kind name used in logs.
func (k ResponseKind) String() string {
	if k == KindItems {
		return "items"
	}
	return "fallback"
}

// Response is the decoded model output. Items is only meaningful for
// KindItems; Reason explains a KindFallback.
type Response struct {
	Kind   ResponseKind
	Items  []string
	Reason string
}

func fallbackResponse(format string, args ...interface{}) Response {
	return Response{Kind: KindFallback, Reason: fmt.Sprintf(format, args...)}
}

// ParseResponse decodes model text into a Response. Surrounding prose and
// code fences are skipped by locating the outermost JSON value; when the
// first bracket in the text does not start valid JSON the other kind of
// bracket is tried.
func ParseResponse(text string) Response {
	spans := jsonSpans(text)
	if len(spans) == 0 {
		return fallbackResponse("no JSON value in %d chars", len(text))
	}

	var payload interface{}
	var err error
	for _, raw := range spans {
		if payload, err = decodeJSON(raw); err == nil {
			break
		}
	}
	if err != nil {
		return fallbackResponse("unmarshal JSON: %v", err)
	}

	var list []interface{}
	switch v := payload.(type) {
	case map[string]interface{}:
		field := v["items"]
		// An absent, null or empty items list defers to subtasks.
		if arr, ok := field.([]interface{}); field == nil || (ok && len(arr) == 0) {
			if sub := v["subtasks"]; sub != nil {
				field = sub
			}
		}
		if field == nil {
			return fallbackResponse("object has neither items nor subtasks")
		}
		arr, ok := field.([]interface{})
		if !ok {
			return fallbackResponse("items is %T, not an array", field)
		}
		list = arr
	case []interface{}:
		list = v
	default:
		return fallbackResponse("unexpected JSON %T", payload)
	}

	if len(list) > MaxItems {
		list = list[:MaxItems]
	}
	items := make([]string, 0, len(list))
	for _, entry := range list {
		items = append(items, coerce(entry))
	}
	return Response{Kind: KindItems, Items: items}
}

func decodeJSON(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// jsonSpans returns the span from the first '{' to the last '}' and the
// span from the first '[' to the last ']', earliest start first. Spans
// without a closer after the opener are omitted.
func jsonSpans(text string) [][]byte {
	type span struct{ start, end int }
	var found []span
	for _, pair := range [...][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		if start == -1 {
			continue
		}
		end := strings.LastIndexByte(text, pair[1])
		if end <= start {
			continue
		}
		found = append(found, span{start, end + 1})
	}
	if len(found) == 2 && found[1].start < found[0].start {
		found[0], found[1] = found[1], found[0]
	}

	spans := make([][]byte, 0, len(found))
	for _, sp := range found {
		spans = append(spans, []byte(text[sp.start:sp.end]))
	}
	return spans
}

// coerce renders a decoded JSON value as a subtask string. Strings are kept
// verbatim; anything else becomes its JSON text.
func coerce(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
