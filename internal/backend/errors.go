package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// IsConflict reports whether err is a 409 from the backend, which it uses
// for invalid lifecycle transitions such as starting a running bot.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// newAPIError builds an APIError from a raw response body. Empty or
// non-JSON bodies are tolerated; plain text is kept as the message.
func newAPIError(method, endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Endpoint: endpoint, StatusCode: status}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Message
		return apiErr
	}

	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	apiErr.Message = trimmed
	return apiErr
}
