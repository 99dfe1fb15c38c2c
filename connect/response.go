package connect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the outcome of one exchange with the server. A failure to
// reach the server at all is recorded in Err rather than returned.
type Response struct {
	StatusCode int
	Reason     string
	Body       []byte
	Err        error
}

// IsJSONObject reports whether the body looks like a JSON object.
func (r *Response) IsJSONObject() bool {
	return len(bytes.TrimSpace(r.Body)) > 0 && bytes.TrimSpace(r.Body)[0] == '{'
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorField returns the body's "error" member when the body is a JSON
// object that has one, whatever its value.
func (r *Response) errorField() (string, bool) {
	if !r.IsJSONObject() {
		return "", false
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return "", false
	}
	raw, ok := payload["error"]
	if !ok {
		return "", false
	}
	return rawText(raw), true
}

// rawText renders a JSON value for messages: strings unquoted, anything
// else as its compact JSON text.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// CheckResponse returns a domain error when resp denotes a transport
// failure, a server-reported error or a status outside 2xx. A 200 response
// is allowed to carry an "error" member: on task status bodies it is data.
//
// A server-reported error on a non-2xx status wraps the ErrUnexpectedStatus
// error, so both kinds match it.
func CheckResponse(serverURL string, resp *Response) error {
	if resp == nil {
		return NewError(ErrTransportFailure, nil, "exception trying to connect to %s - no response", serverURL)
	}
	if resp.Err != nil {
		return NewError(ErrTransportFailure, resp.Err,
			"exception trying to connect to %s - %v", serverURL, resp.Err)
	}

	var statusErr error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr = &Error{
			Kind: ErrUnexpectedStatus,
			Message: fmt.Sprintf("received an unexpected response from Connect: %d %s",
				resp.StatusCode, resp.Reason),
			Status: resp.StatusCode,
			Reason: resp.Reason,
		}
	}

	if resp.StatusCode != http.StatusOK {
		if msg, ok := resp.errorField(); ok {
			return &Error{
				Kind:    ErrServerReported,
				Message: "the Connect server reported an error: " + msg,
				Status:  resp.StatusCode,
				Reason:  resp.Reason,
				Cause:   statusErr,
			}
		}
	}
	return statusErr
}
