package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	JSON       any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// Field returns a top-level string field of a JSON error body, or "" if the
// body wasn't a JSON object or lacks the field.
func (e *HTTPError) Field(name string) string {
	if e == nil {
		return ""
	}
	obj, ok := e.JSON.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[name].(string)
	return s
}

// decodeJSONBody parses the body bytes into a generic JSON payload.
func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}
