package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// CodeValidationError is the error code the backend uses for field validation failures.
const CodeValidationError = "validation_error"

// ErrCancelled is wrapped by every error caused by an aborted request.
var ErrCancelled = errors.New("request cancelled")

// ErrorClass represents a classification of API failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors other than 401 and 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassUnauthorized represents 401 responses that survived the refresh policy.
	ErrorClassUnauthorized ErrorClass = "unauthorized"

	// ErrorClassRateLimit represents 429 responses that exhausted their retries.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (unreachable, timeout).
	ErrorClassNetwork ErrorClass = "network"
)

// APIError is the structured error returned for every failed request that was
// not cancelled. It carries the diagnostic fields supplied by the backend.
type APIError struct {
	Message   string
	Code      string
	Details   map[string][]string
	Status    int // 0 when no response was received
	RequestID string
	Class     ErrorClass
	Err       error
}

// NewAPIError builds an APIError from its parts.
func NewAPIError(message, code string, details map[string][]string, status int, requestID string) *APIError {
	return &APIError{
		Message:   message,
		Code:      code,
		Details:   details,
		Status:    status,
		RequestID: requestID,
		Class:     classifyStatus(status),
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("nomad api %s error: %s", e.Class, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("nomad api %s error (status %d, code %s): %s", e.Class, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("nomad api %s error (status %d): %s", e.Class, e.Status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether the backend rejected field values.
func (e *APIError) IsValidationError() bool {
	return e.Code == CodeValidationError && len(e.Details) > 0
}

// FieldError returns the error messages reported for field.
func (e *APIError) FieldError(field string) ([]string, bool) {
	msgs, ok := e.Details[field]
	return msgs, ok
}

// FirstFieldError returns the first error message reported for field.
func (e *APIError) FirstFieldError(field string) (string, bool) {
	msgs, ok := e.Details[field]
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// IsServerError reports whether the failure should be surfaced as a global
// notification: no response at all, or a 5xx status. Everything else is a
// client error meant to be shown inline, including requests that could not be
// built.
func (e *APIError) IsServerError() bool {
	if e.Status == 0 {
		return e.Class != ErrorClassClient
	}
	return e.Status >= http.StatusInternalServerError
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsCancelled reports whether err was caused by an aborted request rather
// than by a genuine failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// classifyStatus categorizes an HTTP status for observability and handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 0:
		return ErrorClassNetwork
	case status == http.StatusUnauthorized:
		return ErrorClassUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// statusError carries a non-2xx response between pipeline stages until it is
// translated into an APIError.
type statusError struct {
	response *Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.response.StatusCode)
}

// transportError carries a failure that produced no response.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

// requestError carries a failure to build the outgoing request.
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.response.StatusCode
	}
	return 0
}

// errorBody is the backend error envelope. Keys may arrive in either naming
// convention depending on whether the casing transport is installed.
type errorBody struct {
	Message        string                     `json:"message"`
	Detail         json.RawMessage            `json:"detail"`
	Code           string                     `json:"code"`
	Details        map[string]json.RawMessage `json:"details"`
	RequestID      string                     `json:"request_id"`
	RequestIDCamel string                     `json:"requestId"`
}

// translateError is the single point where raw failures become APIErrors.
func translateError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var se *statusError
	if errors.As(err, &se) {
		return apiErrorFromResponse(se.response)
	}

	var re *requestError
	if errors.As(err, &re) {
		return &APIError{
			Message: re.Error(),
			Class:   ErrorClassClient,
			Err:     err,
		}
	}

	return &APIError{
		Message: err.Error(),
		Class:   ErrorClassNetwork,
		Err:     err,
	}
}

func apiErrorFromResponse(resp *Response) *APIError {
	apiErr := &APIError{
		Message:   http.StatusText(resp.StatusCode),
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("X-Request-ID"),
		Class:     classifyStatus(resp.StatusCode),
	}

	var body errorBody
	if len(resp.Body) == 0 || json.Unmarshal(resp.Body, &body) != nil {
		return apiErr
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case len(body.Detail) > 0:
		if msgs := decodeMessages(body.Detail); len(msgs) > 0 {
			apiErr.Message = msgs[0]
		}
	}

	apiErr.Code = body.Code

	if len(body.Details) > 0 {
		details := make(map[string][]string, len(body.Details))
		for field, raw := range body.Details {
			flattenDetails(field, raw, details)
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
	}

	if body.RequestID != "" {
		apiErr.RequestID = body.RequestID
	} else if body.RequestIDCamel != "" {
		apiErr.RequestID = body.RequestIDCamel
	}

	return apiErr
}

// flattenDetails stores the messages of one details entry under field.
// Nested serializer errors are flattened to dotted keys: {"address":
// {"city": [...]}} becomes "address.city", and list items are keyed by index.
func flattenDetails(field string, raw json.RawMessage, out map[string][]string) {
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil {
		for key, value := range nested {
			flattenDetails(field+"."+key, value, out)
		}
		return
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil && hasObject(items) {
		for i, item := range items {
			flattenDetails(field+"."+strconv.Itoa(i), item, out)
		}
		return
	}

	if msgs := decodeMessages(raw); len(msgs) > 0 {
		out[field] = msgs
	}
}

func hasObject(items []json.RawMessage) bool {
	for _, item := range items {
		if trimmed := bytes.TrimSpace(item); len(trimmed) > 0 && trimmed[0] == '{' {
			return true
		}
	}
	return false
}

// decodeMessages accepts a list of messages, a single message, or a list of
// arbitrary values (stringified).
func decodeMessages(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err == nil {
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, strings.TrimSpace(fmt.Sprint(v)))
		}
		return out
	}

	return nil
}
