package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
)

// FieldError is a field-level rejection returned by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the canonical shape every backend response is normalized into.
// Success is true only for a 2xx status carrying an explicit success marker.
type Envelope struct {
	Success    bool
	StatusCode int
	Message    string
	Errors     []FieldError
	Raw        json.RawMessage
}

// Response is an envelope whose data has been decoded into T.
type Response[T any] struct {
	*Envelope
	Data T
}

// wireEnvelope accepts both legacy shapes: {"success": bool} and {"status": "success"}.
type wireEnvelope struct {
	Success *bool           `json:"success"`
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(statusCode int, body []byte) (*Envelope, error) {
	env := &Envelope{StatusCode: statusCode}
	if len(bytes.TrimSpace(body)) == 0 {
		if statusCode >= http.StatusInternalServerError {
			env.Message = http.StatusText(statusCode)
			return env, nil
		}
		return nil, ErrMalformedResponse
	}

	var w wireEnvelope
	if err := json.Unmarshal(body, &w); err != nil {
		if statusCode >= http.StatusInternalServerError {
			// gateways in front of the backend answer 5xx with html
			env.Message = http.StatusText(statusCode)
			return env, nil
		}
		return nil, ErrMalformedResponse
	}

	flagged := w.Success != nil && *w.Success
	if !flagged && len(w.Status) > 0 {
		var s string
		if json.Unmarshal(w.Status, &s) == nil && s == "success" {
			flagged = true
		}
	}
	env.Success = flagged && statusCode >= 200 && statusCode < 300
	env.Message = w.Message
	if env.Message == "" {
		env.Message = w.Error
	}
	if !env.Success && env.Message == "" {
		env.Message = "something went wrong"
	}
	env.Errors = decodeFieldErrors(w.Errors)
	env.Raw = w.Data
	return env, nil
}

// decodeFieldErrors accepts a list of {field,message}, a map of field to message,
// or a map of field to list of messages.
func decodeFieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []FieldError
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var single map[string]string
	if json.Unmarshal(raw, &single) == nil {
		return sortedFieldErrors(single)
	}
	var multi map[string][]string
	if json.Unmarshal(raw, &multi) == nil {
		flat := make(map[string]string, len(multi))
		for field, msgs := range multi {
			if len(msgs) > 0 {
				flat[field] = msgs[0]
			}
		}
		return sortedFieldErrors(flat)
	}
	return nil
}

func sortedFieldErrors(m map[string]string) []FieldError {
	out := make([]FieldError, 0, len(m))
	for field, msg := range m {
		out = append(out, FieldError{Field: field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// FieldErrorMap returns the field errors keyed by field name.
func (e *Envelope) FieldErrorMap() map[string]string {
	if len(e.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		m[fe.Field] = fe.Message
	}
	return m
}

// Decode unmarshals the envelope data into v. Empty data leaves v untouched.
func (e *Envelope) Decode(v any) error {
	if len(e.Raw) == 0 || string(e.Raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Raw, v); err != nil {
		return &TransportError{Op: "decode data", Err: ErrUnexpectedDataType}
	}
	return nil
}

// IsTransient classifies a call result as likely to succeed on retry:
// any transport failure, or a server-side (5xx) status.
func IsTransient(env *Envelope, err error) bool {
	if err != nil {
		return true
	}
	return env != nil && env.StatusCode >= http.StatusInternalServerError
}
